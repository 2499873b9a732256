package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guestbook/internal/auth"
)

const stateCookie = "guestbook_oauth_state"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// @Summary Liveness and store reachability
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503
// @Router /healthz [get]
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.Store.Ping(ctx); err != nil {
		a.Logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Summary Start sign-in with the configured provider
// @Tags Auth
// @Param provider path string true "Provider name"
// @Success 302
// @Router /auth/signin/{provider} [get]
func (a *API) SignIn(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "provider") != a.Provider.Name() {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	state := a.Provider.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute) / time.Second),
		HttpOnly: true,
		Secure:   a.Cfg.Auth.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.Provider.AuthURL(state), http.StatusFound)
}

// @Summary Complete sign-in and start a session
// @Tags Auth
// @Param provider path string true "Provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "CSRF state"
// @Success 302
// @Failure 400
// @Failure 502
// @Router /auth/callback/{provider} [get]
func (a *API) Callback(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "provider") != a.Provider.Name() {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	state := r.URL.Query().Get("state")
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value != state || !a.Provider.VerifyState(state) {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	identity, err := a.Provider.Exchange(r.Context(), code)
	if err != nil {
		a.Logger.Warn("oauth exchange failed", zap.String("provider", a.Provider.Name()), zap.Error(err))
		http.Error(w, "sign-in failed", http.StatusBadGateway)
		return
	}

	token, _, err := a.Issuer.GenerateToken(identity, a.Provider.Name())
	if err != nil {
		a.Logger.Error("failed to issue session", zap.Error(err))
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	a.Issuer.SetSessionCookie(w, token, a.Cfg.Auth.Secure)
	a.Logger.Info("signed in", zap.String("name", identity.Name), zap.String("provider", a.Provider.Name()))
	http.Redirect(w, r, "/", http.StatusFound)
}

// @Summary End the current session
// @Tags Auth
// @Success 303
// @Router /auth/signout [post]
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, a.Cfg.Auth.Secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} model.Session
// @Router /auth/session [get]
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	if s == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// @Summary Session token for terminal clients
// @Tags Auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401
// @Router /auth/token [get]
func (a *API) Token(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFromContext(r.Context()) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": auth.TokenFromRequest(r)})
}
