package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/asegura/renomail/internal/api"
	"github.com/asegura/renomail/internal/config"
	"github.com/asegura/renomail/internal/db"
	"github.com/asegura/renomail/internal/sync"
)

func main() {
	log := logrus.New()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseConnection(pool)

	log.Info("Successfully connected to database")

	server := NewServer(cfg, pool, log)

	address := ":" + cfg.Port
	log.Infof("renomail admin server starting on %s (environment: %s)", address, cfg.Environment)

	if err := http.ListenAndServe(address, server); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// NewServer creates the HTTP handler for the admin API.
func NewServer(cfg *config.Config, pool *pgxpool.Pool, log *logrus.Logger) http.Handler {
	runner := sync.NewPipeline(cfg, pool, log)
	syncHandler := api.NewSyncHandler(runner, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleRoot)
	mux.Handle("/api/v1/sync", http.HandlerFunc(syncHandler.RunSync))

	return mux
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "renomail sync API is running")
}
