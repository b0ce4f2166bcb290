package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foxo/internal/api"
	"foxo/internal/assistant"
	"foxo/internal/config"
	"foxo/internal/watcher"
	"foxo/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	mode := flag.String("mode", "serve", "one of: serve, ingest, ask")
	question := flag.String("question", "", "question to answer in ask mode")
	watch := flag.Bool("watch", false, "watch the data folder and re-ingest on changes (serve mode)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logger.Level)
	appLogger := logger.New("foxo", "")
	appLogger.Info("Starting assistant...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := assistant.New(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build assistant: %v", err)
	}

	switch *mode {
	case "ingest":
		runIngest(ctx, a, appLogger)
	case "ask":
		runAsk(ctx, a, *question)
	case "serve":
		runServe(ctx, cfg, a, appLogger, *watch || cfg.Ingest.Watch)
	default:
		log.Fatalf("Unknown mode %q, expected serve, ingest, or ask", *mode)
	}
}

func runIngest(ctx context.Context, a *assistant.Assistant, appLogger *logger.Logger) {
	stats, err := a.Ingest(ctx)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
	appLogger.WithPayload(map[string]interface{}{
		"files_found":  stats.FilesFound,
		"files_loaded": stats.FilesLoaded,
		"chunks":       stats.ChunksCreated,
		"indexed":      stats.ItemsIndexed,
	}).Info("Ingestion complete")
	for _, skipped := range stats.Skipped {
		appLogger.Warn(fmt.Sprintf("Skipped %s: %v", skipped.Path, skipped.Err))
	}
}

func runAsk(ctx context.Context, a *assistant.Assistant, question string) {
	if question == "" {
		log.Fatal("ask mode requires -question")
	}
	reply, err := a.Ask(ctx, question)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}
	fmt.Println(reply.Answer)
}

func runServe(ctx context.Context, cfg *config.AppConfig, a *assistant.Assistant, appLogger *logger.Logger, watchFolder bool) {
	handler := api.NewHandler(a, appLogger)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	if watchFolder {
		w := watcher.New(cfg.Ingest.DataDir, a, logger.New("watcher", ""))
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.WithError(err).Error("Folder watcher stopped")
			}
		}()
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening on %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("HTTP server shutdown failed")
		os.Exit(1)
	}
}
