package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guestbook/internal/auth"
	"guestbook/internal/client"
	"guestbook/internal/guestbook"
	"guestbook/internal/model"
	"guestbook/internal/rpc"
	"guestbook/internal/storage"
	"guestbook/internal/view"
)

type testEnv struct {
	srv    *httptest.Server
	issuer *auth.Issuer
	token  string
}

func newTestEnv(t *testing.T, policy guestbook.WritePolicy) *testEnv {
	t.Helper()
	issuer := auth.NewIssuer("secret", time.Hour)
	svc := guestbook.NewService(storage.NewMemory(), nil, zap.NewNop(), guestbook.Options{WritePolicy: policy})
	router := rpc.NewRouter(zap.NewNop())
	svc.Register(router)

	mux := http.NewServeMux()
	mux.Handle("/api/trpc/", router)
	mux.HandleFunc("/auth/session", func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFromContext(r.Context())
		if s == nil {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_ = json.NewEncoder(w).Encode(s)
	})
	srv := httptest.NewServer(issuer.SessionMiddleware(mux))
	t.Cleanup(srv.Close)

	token, _, err := issuer.GenerateToken(model.Identity{Name: "Ana"}, "discord")
	require.NoError(t, err)
	return &testEnv{srv: srv, issuer: issuer, token: token}
}

func TestClient_RoundTrip(t *testing.T) {
	env := newTestEnv(t, guestbook.PolicyLogOnly)
	ctx := context.Background()
	c := client.New(env.srv.URL, env.token, nil)

	entries, err := c.GetAllMessagesAndNames(ctx)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	issued := time.Now().UTC().Add(-time.Second)
	require.NoError(t, c.PostMessage(ctx, "Ana", "first"))
	require.NoError(t, c.PostMessage(ctx, "Ana", "second"))

	entries, err = c.GetAllMessagesAndNames(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "second", entries[0].Message)
	require.Equal(t, "first", entries[1].Message)
	require.Equal(t, "Ana", entries[0].Name)
	require.False(t, entries[1].CreatedAt.Before(issued))
}

func TestClient_Unauthorized(t *testing.T) {
	env := newTestEnv(t, guestbook.PolicyLogOnly)
	ctx := context.Background()

	anon := client.New(env.srv.URL, "", nil)
	require.ErrorIs(t, anon.PostMessage(ctx, "Ana", "hi"), client.ErrUnauthorized)

	entries, err := anon.GetAllMessagesAndNames(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestClient_RemoteError(t *testing.T) {
	env := newTestEnv(t, guestbook.PolicyLogOnly)
	c := client.New(env.srv.URL, env.token, nil)

	err := c.PostMessage(context.Background(), "Ana", "")
	var remote *client.RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, "BAD_REQUEST", remote.Code)
	require.Equal(t, http.StatusBadRequest, remote.HTTPStatus)
}

func TestClient_Session(t *testing.T) {
	env := newTestEnv(t, guestbook.PolicyLogOnly)
	ctx := context.Background()

	s, err := client.New(env.srv.URL, env.token, nil).Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "Ana", s.User.Name)

	s, err = client.New(env.srv.URL, "", nil).Session(ctx)
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestClient_DrivesView(t *testing.T) {
	env := newTestEnv(t, guestbook.PolicyLogOnly)
	ctx := context.Background()
	c := client.New(env.srv.URL, env.token, nil)

	v := view.New(c, view.DefaultMaxLength)
	s, err := c.Session(ctx)
	require.NoError(t, err)
	v.SetSession(s)
	require.NoError(t, v.Load(ctx))

	v.Composer().SetText("hello from the view")
	require.NoError(t, v.Submit(ctx))

	entries, ready := v.Entries()
	require.True(t, ready)
	require.Len(t, entries, 1)
	require.Equal(t, "hello from the view", entries[0].Message)
	require.Equal(t, "Ana", entries[0].Name)
}
