package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"eventhive/internal/config"
	"eventhive/internal/database"
	"eventhive/internal/models"
	"eventhive/internal/repository"
	"eventhive/internal/search"
)

var (
	recreate  = flag.Bool("recreate", true, "Drop and recreate the index before indexing")
	batchSize = flag.Int("batch", 200, "Events read from the database per batch")
)

// reindex переносит все события из Postgres в Elasticsearch
func main() {
	flag.Parse()

	cfg := config.Load()
	// Массовая запись без wait_for, индекс обновляется один раз в конце
	cfg.Elasticsearch.Refresh = "false"

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		slog.Error("Failed to connect to Elasticsearch", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *recreate {
		if err := es.RecreateIndex(ctx); err != nil {
			slog.Error("Failed to recreate index", "error", err)
			os.Exit(1)
		}
	}

	events := repository.NewEventRepository(db)
	start := time.Now()
	indexed, failed := 0, 0

	err = events.ForEach(ctx, *batchSize, func(event *models.Event) error {
		if err := es.IndexEvent(ctx, event); err != nil {
			failed++
			slog.Error("Failed to index event", "event_id", event.ID, "error", err)
			return nil
		}
		indexed++
		return nil
	})
	if err != nil {
		slog.Error("Reindex aborted", "error", err, "indexed", indexed)
		os.Exit(1)
	}

	if err := es.Refresh(ctx); err != nil {
		slog.Error("Failed to refresh index", "error", err)
		os.Exit(1)
	}

	slog.Info("Reindex completed", "indexed", indexed, "failed", failed, "elapsed", time.Since(start).String())
}
