package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guestbook/internal/auth"
	"guestbook/internal/guestbook"
	"guestbook/internal/model"
	"guestbook/internal/storage"
)

func newPage(t *testing.T) (*Page, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	svc := guestbook.NewService(mem, nil, zap.NewNop(), guestbook.Options{})
	return NewPage(svc, "discord", 100, zap.NewNop()), mem
}

func asUser(r *http.Request, name string) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), &model.Session{
		User:      model.Identity{Name: name, Image: "https://img.example/" + name + ".png"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func composeRequest(message string) *http.Request {
	form := url.Values{"message": {message}}
	r := httptest.NewRequest(http.MethodPost, "/compose", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestShow_Anonymous(t *testing.T) {
	page, mem := newPage(t)
	_, err := mem.InsertEntry(context.Background(), "Ana", "hello <world>")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	page.Show(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `href="/auth/signin/discord"`)
	require.NotContains(t, body, `action="/compose"`)
	require.Contains(t, body, "hello &lt;world&gt;")
	require.Contains(t, body, "- Ana · ")
}

func TestShow_SignedIn(t *testing.T) {
	page, _ := newPage(t)

	w := httptest.NewRecorder()
	page.Show(w, asUser(httptest.NewRequest(http.MethodGet, "/", nil), "Ana"))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Hi Ana")
	require.Contains(t, body, `action="/compose"`)
	require.Contains(t, body, "100 characters left")
	require.Contains(t, body, "https://img.example/Ana.png")
}

func TestCompose_RedirectsAfterPost(t *testing.T) {
	page, mem := newPage(t)

	w := httptest.NewRecorder()
	page.Compose(w, asUser(composeRequest("first!"), "Ana"))

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	entries, err := mem.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Ana", entries[0].Name)
	require.Equal(t, "first!", entries[0].Message)
}

func TestCompose_ValidationRerenders(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"empty", "   ", "empty"},
		{"too long", strings.Repeat("x", 101), "too long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, mem := newPage(t)

			w := httptest.NewRecorder()
			page.Compose(w, asUser(composeRequest(tc.message), "Ana"))

			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			require.Contains(t, w.Body.String(), `class="error"`)
			require.Contains(t, w.Body.String(), tc.want)

			n, err := mem.CountEntries(context.Background())
			require.NoError(t, err)
			require.Zero(t, n)
		})
	}
}

func TestCompose_SignedOutGoesToSignIn(t *testing.T) {
	page, mem := newPage(t)

	w := httptest.NewRecorder()
	page.Compose(w, composeRequest("hi"))

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/auth/signin/discord", w.Header().Get("Location"))
	n, err := mem.CountEntries(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}
