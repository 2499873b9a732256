package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"guestbook/internal/api"
	"guestbook/internal/auth"
	"guestbook/internal/config"
	"guestbook/internal/consumer"
	"guestbook/internal/guestbook"
	"guestbook/internal/logger"
	"guestbook/internal/messaging"
	"guestbook/internal/metrics"
	"guestbook/internal/oauth"
	"guestbook/internal/storage"
	"guestbook/internal/worker"
)

// entryStore is what the server needs from either storage backend.
type entryStore interface {
	guestbook.Store
	api.Pinger
	Close() error
}

// @title Guestbook API
// @version 1.0
// @description Public guestbook: anyone can read, signed-in visitors can post
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Production)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg.Info("configuration loaded", zap.String("driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init storage
	store, err := openStore(ctx, cfg)
	if err != nil {
		lg.Fatal("failed to init storage", zap.Error(err))
	}
	defer store.Close()
	lg.Info("storage ready", zap.String("driver", cfg.Database.Driver))

	// Init RabbitMQ, optional
	var events messaging.Publisher = messaging.NewNoop()
	var feed *consumer.Consumer
	var pool *worker.WorkerPool
	if cfg.RabbitMQ.URL != "" {
		rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, lg)
		if err != nil {
			lg.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitClient.Close()
		events = rabbitClient

		if err := rabbitClient.DeclareQueue(cfg.RabbitMQ.Queue, "entry.*"); err != nil {
			lg.Fatal("failed to declare feed queue", zap.Error(err))
		}

		pool = worker.NewWorkerPool(cfg.RabbitMQ.Queue, cfg.Workers, worker.EntryFeed(lg), lg)
		pool.Start()

		feed, err = consumer.StartConsumer(rabbitClient.GetConnection(), cfg.RabbitMQ.Queue, pool.Dispatch, lg)
		if err != nil {
			lg.Fatal("failed to start feed consumer", zap.Error(err))
		}

		// Background loop for queue depth metrics
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					rabbitClient.UpdateQueueDepth(cfg.RabbitMQ.Queue)
				case <-ctx.Done():
					return
				}
			}
		}()
		lg.Info("RabbitMQ connected", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	policy, err := guestbook.ParseWritePolicy(cfg.Guestbook.WriteFailurePolicy)
	if err != nil {
		lg.Fatal("invalid write failure policy", zap.Error(err))
	}
	svc := guestbook.NewService(store, events, lg, guestbook.Options{WritePolicy: policy})

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	provider := oauth.NewProvider(oauth.Config{
		Name:         cfg.OAuth.Provider,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.Server.PublicURL + "/auth/callback/" + cfg.OAuth.Provider,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		UserInfoURL:  cfg.OAuth.UserInfoURL,
		Scopes:       cfg.OAuth.Scopes,
	}, cfg.Auth.JWTSecret)

	// Init API
	apiHandler := api.NewAPI(svc, issuer, provider, store, cfg, lg)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("starting API server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Warn("HTTP shutdown error", zap.Error(err))
	}

	// Stop deliveries first, then drain the workers while the channel they
	// ack on is still open, then close it.
	if feed != nil {
		feed.Cancel()
	}
	if pool != nil {
		pool.Stop()
	}
	if feed != nil {
		feed.Stop()
	}

	lg.Info("graceful shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config) (entryStore, error) {
	if cfg.Database.Driver == "memory" {
		return storage.NewMemory(), nil
	}

	db, err := storage.NewStorage(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
