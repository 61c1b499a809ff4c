package app

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	authapi "gatehouse/cmd/internal/auth/api"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	client *mongo.Client,
	auth *authapi.Handler,
	metrics *Metrics,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && client == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if client != nil {
			if err := PingDB(r.Context(), client, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", metrics.Handler())

	auth.Register(mux)
}
