package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asegura/renomail/internal/config"
	"github.com/asegura/renomail/internal/db"
	"github.com/asegura/renomail/internal/models"
	"github.com/asegura/renomail/internal/sync"
)

func main() {
	interval := flag.Duration("interval", 0, "run continuously at this interval (0 runs one cycle and exits)")
	flag.Parse()

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

	runner := sync.NewPipeline(cfg, pool, log)

	if *interval <= 0 {
		result := runner.Run(ctx)
		report(log, result)
		if !result.Success {
			os.Exit(1)
		}
		return
	}

	log.Infof("polling every %s", *interval)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	// A failed run is retried by the next tick; checkpoint and dedup make
	// the retry safe.
	for {
		report(log, runner.Run(ctx))
		<-ticker.C
	}
}

func report(log *logrus.Logger, result models.SyncResult) {
	log.WithFields(logrus.Fields{
		"success":      result.Success,
		"new":          result.CountNewMessages,
		"classified":   result.CountClassified,
		"unclassified": result.CountUnclassified,
		"duplicates":   result.CountSkippedDuplicate,
		"errors":       len(result.Errors),
		"duration_ms":  result.DurationMS,
	}).Info("sync cycle finished")

	for _, message := range result.Errors {
		log.Warn(message)
	}
}
