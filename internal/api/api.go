package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "guestbook/docs"
	"guestbook/internal/auth"
	"guestbook/internal/config"
	"guestbook/internal/guestbook"
	"guestbook/internal/metrics"
	"guestbook/internal/oauth"
	"guestbook/internal/rpc"
	"guestbook/internal/web"
)

// Pinger reports whether the entry store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	Service  *guestbook.Service
	RPC      *rpc.Router
	Issuer   *auth.Issuer
	Provider *oauth.Provider
	Store    Pinger
	Page     *web.Page
	Cfg      *config.Config
	Logger   *zap.Logger
}

func NewAPI(svc *guestbook.Service, issuer *auth.Issuer, provider *oauth.Provider, store Pinger, cfg *config.Config, logger *zap.Logger) *API {
	procs := rpc.NewRouter(logger)
	svc.Register(procs)

	return &API{
		Service:  svc,
		RPC:      procs,
		Issuer:   issuer,
		Provider: provider,
		Store:    store,
		Page:     web.NewPage(svc, provider.Name(), cfg.Guestbook.MaxMessageLength, logger),
		Cfg:      cfg,
		Logger:   logger,
	}
}

// Router builds a fresh chi router on every call.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(a.Logger))
	r.Use(metrics.Middleware)
	r.Use(a.Issuer.SessionMiddleware)

	// Operational
	r.Get("/healthz", a.Healthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Procedures; the session gate lives inside the rpc router
	r.Handle("/api/trpc/{procedure}", a.RPC)

	// Sign-in
	r.Route("/auth", func(r chi.Router) {
		r.Get("/signin/{provider}", a.SignIn)
		r.Get("/callback/{provider}", a.Callback)
		r.Post("/signout", a.SignOut)
		r.Get("/session", a.Session)
		r.Get("/token", a.Token)
	})

	// Page
	r.Get("/", a.Page.Show)
	r.Post("/compose", a.Page.Compose)

	return r
}
