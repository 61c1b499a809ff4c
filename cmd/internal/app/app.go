// Package app wires the Gatehouse server runtime: config, logging, metrics,
// persistence and the auth HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"gatehouse/cmd/identity"
	authapi "gatehouse/cmd/internal/auth/api"
	"gatehouse/cmd/internal/auth/token"
	"gatehouse/cmd/security/password"
)

// App is the Gatehouse server runtime. It owns the HTTP server wiring and
// the lifecycle of the Mongo client when one is configured.
type App struct {
	cfg Config
	log Logger

	client *mongo.Client
	store  identity.Store

	auth    *authapi.Handler
	metrics *Metrics
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	store, client, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tcfg, err := resolveTokenConfig(cfg, log)
	if err != nil {
		disconnect(ctx, client)
		return nil, err
	}
	codec, err := token.NewCodec(tcfg)
	if err != nil {
		disconnect(ctx, client)
		return nil, err
	}

	authCfg := authapi.LoadConfigFromEnv()
	auth, err := authapi.NewHandler(log, authCfg, store, password.FromEnv(), codec)
	if err != nil {
		disconnect(ctx, client)
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		client:  client,
		store:   store,
		auth:    auth,
		metrics: NewMetrics(),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.client, a.auth, a.metrics)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithMetrics(handler, a.metrics)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.client != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.client != nil {
		if err := a.client.Disconnect(shutdownCtx); err != nil {
			a.log.Error("db.disconnect.fail", "err", err)
		}
	}

	a.log.Info("server.stopped")
	return nil
}

// newStore decides between Mongo-backed persistence and the in-memory dev
// store. The returned client is nil in dev mode.
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, *mongo.Client, error) {
	if cfg.MongoURI == "" {
		log.Info("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), nil, nil
	}

	client, err := NewMongoClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := identity.NewMongoStore(client.Database(cfg.MongoDatabase))
	if err != nil {
		disconnect(ctx, client)
		return nil, nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		disconnect(ctx, client)
		return nil, nil, err
	}

	log.Info("db.enabled.mongo_store", "database", cfg.MongoDatabase)
	return store, client, nil
}

func disconnect(ctx context.Context, client *mongo.Client) {
	if client != nil {
		_ = client.Disconnect(ctx)
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
