package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guestbook/internal/api"
	"guestbook/internal/auth"
	"guestbook/internal/config"
	"guestbook/internal/guestbook"
	"guestbook/internal/model"
	"guestbook/internal/oauth"
	"guestbook/internal/storage"
	"guestbook/internal/view"
)

type server struct {
	url   string
	token string
	mem   *storage.Memory
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "cli-secret"

	mem := storage.NewMemory()
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, time.Hour)
	svc := guestbook.NewService(mem, nil, zap.NewNop(), guestbook.Options{})
	provider := oauth.NewProvider(oauth.Config{Name: "discord"}, cfg.Auth.JWTSecret)

	srv := httptest.NewServer(api.NewAPI(svc, issuer, provider, mem, cfg, zap.NewNop()).Router())
	t.Cleanup(srv.Close)

	tok, _, err := issuer.GenerateToken(model.Identity{Name: "Ana"}, "discord")
	require.NoError(t, err)
	return &server{url: srv.URL, token: tok, mem: mem}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GUESTBOOK_SERVER", "")
	t.Setenv("GUESTBOOK_TOKEN", "")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	srv := newServer(t)
	_, err := srv.mem.InsertEntry(context.Background(), "Bo", "hello there")
	require.NoError(t, err)

	out, err := run(t, "list", "--server", srv.url)
	require.NoError(t, err)
	require.Contains(t, out, "Sign in to leave a message.")
	require.Contains(t, out, "hello there\n  - Bo · ")

	out, err = run(t, "list", "--server", srv.url, "--table")
	require.NoError(t, err)
	require.Contains(t, out, "NAME")
	require.Contains(t, out, "hello there")

	out, err = run(t, "list", "--server", srv.url, "--format", "json")
	require.NoError(t, err)
	var entries []model.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Bo", entries[0].Name)
}

func TestPost(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, "post", "--server", srv.url, "hi")
	require.ErrorIs(t, err, view.ErrSignedOut)

	out, err := run(t, "post", "--server", srv.url, "--token", srv.token, "hello", "world")
	require.NoError(t, err)
	require.Contains(t, out, "Hi Ana")
	require.Contains(t, out, "hello world\n  - Ana · ")

	_, err = run(t, "post", "--server", srv.url, "--token", srv.token, " ")
	require.ErrorIs(t, err, view.ErrEmptyMessage)

	n, err := srv.mem.CountEntries(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestWhoami(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "whoami", "--server", srv.url)
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)

	out, err = run(t, "whoami", "--server", srv.url, "--token", srv.token)
	require.NoError(t, err)
	require.Contains(t, out, "Ana via discord")
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "list", "--format", "xml")
	require.Error(t, err)
}
