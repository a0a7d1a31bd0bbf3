// Command ingest-api runs the telegram ingest service: the REST upload API
// plus an optional NATS feed subscriber, persisting accepted flights to
// Postgres and archiving raw telegrams to ClickHouse.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"telegram_parser/internal/api"
	"telegram_parser/internal/batch"
	"telegram_parser/internal/config"
	"telegram_parser/internal/feed"
	"telegram_parser/internal/ingest"
	"telegram_parser/internal/regions"
	"telegram_parser/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := storage.Open(openCtx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatalw("storage open failed", "error", err)
	}
	defer db.Close()

	if err := db.CreateSchemas(ctx); err != nil {
		log.Fatalw("schema creation failed", "error", err)
	}

	ing := &ingest.Ingestor{
		Processor: batch.New(cfg.Limits).WithWorkers(cfg.Workers),
		Sink:      db.PG,
		Log:       log,
	}
	if cfg.ArchiveEnabled {
		ing.Archive = db.CH
	}

	if cfg.RegionsDBPath != "" {
		rdb, err := regions.Open(cfg.RegionsDBPath)
		if err != nil {
			log.Fatalw("regions db open failed", "path", cfg.RegionsDBPath, "error", err)
		}
		defer rdb.Close()
		ing.Regions = rdb

		n, err := rdb.Count(ctx)
		if err != nil {
			log.Warnw("regions db count failed", "error", err)
		} else {
			log.Infow("regions db loaded", "path", cfg.RegionsDBPath, "regions", n)
		}
	}

	if cfg.NATSURL != "" {
		sub := feed.NewSubscriber(feed.Config{
			URL:     cfg.NATSURL,
			Subject: cfg.NATSSubject,
			Queue:   cfg.NATSQueue,
		}, ing, log)
		if err := sub.Start(ctx); err != nil {
			log.Fatalw("feed start failed", "error", err)
		}
		defer sub.Close()
	}

	srv := api.NewServer(ing, api.Config{
		Port:        cfg.APIPort,
		AuthEnabled: cfg.AuthEnabled,
		APIKeys:     cfg.APIKeys,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()

	select {
	case err := <-errc:
		log.Fatalw("api server stopped", "error", err)
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	}
}
