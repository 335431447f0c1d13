package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmorell/sitedigest/internal/api"
	"github.com/kmorell/sitedigest/internal/blobstore"
	"github.com/kmorell/sitedigest/internal/config"
	"github.com/kmorell/sitedigest/internal/llm"
	"github.com/kmorell/sitedigest/internal/pipeline"
	"github.com/kmorell/sitedigest/internal/queue"
	"github.com/kmorell/sitedigest/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence and storage.
	jobs, err := store.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.MongoTimeout, log)
	if err != nil {
		log.Error("mongodb unavailable", "error", err)
		os.Exit(1)
	}

	blobs, err := blobstore.OpenBadger(cfg.BlobDir)
	if err != nil {
		log.Error("blob store unavailable", "error", err)
		os.Exit(1)
	}

	// Job queue.
	q, err := queue.ConnectJetStream(queue.JetStreamConfig{
		URL:        cfg.NATSURL,
		Stream:     cfg.QueueStream,
		Subject:    cfg.QueueSubject,
		Durable:    cfg.QueueDurable,
		AckWait:    cfg.AckWait,
		MaxDeliver: cfg.MaxDeliver,
		FetchWait:  cfg.FetchWait,
	})
	if err != nil {
		log.Error("queue unavailable", "error", err)
		os.Exit(1)
	}

	// Extraction pipeline.
	stats := llm.NewStats(cfg.StatsWindow)
	claude := llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, stats)

	texts := pipeline.NewBlobTextExtractor(blobs)
	orch := pipeline.NewOrchestrator(texts, claude, log)
	consumer := pipeline.NewConsumer(q, jobs, orch, log, cfg.PollInterval)
	consumer.Start(ctx)

	// HTTP server.
	srv := api.NewServer(jobs, blobs, q, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		consumer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		if err := q.Close(); err != nil {
			log.Warn("queue close", "error", err)
		}
		if err := blobs.Close(); err != nil {
			log.Warn("blob store close", "error", err)
		}
		if err := jobs.Close(context.Background()); err != nil {
			log.Warn("mongodb close", "error", err)
		}
	}()

	log.Info("starting sitedigest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
