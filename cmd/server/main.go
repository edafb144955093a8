package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tunevault/tunevault/internal/backup"
	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/config"
	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/downloader"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/httpapp"
	"github.com/tunevault/tunevault/internal/library"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/mediastore"
	"github.com/tunevault/tunevault/internal/playback"
	"github.com/tunevault/tunevault/internal/store"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	media, err := mediastore.New(cfg.MusicDir)
	if err != nil {
		appLogger.Error("Failed to init media store", "error", err)
		os.Exit(1)
	}

	var provider catalog.Provider
	if cfg.ProviderURL != "" {
		provider = catalog.NewRemoteProvider(cfg.ProviderURL)
	} else {
		appLogger.Warn("PROVIDER_URL not set, running with an empty mock catalog")
		provider = catalog.NewMockProvider()
	}

	bus := events.NewBus()
	lib := library.New(db, media, bus, appLogger)

	worker := downloader.NewWorker(db, provider, media, bus, appLogger)
	lib.AttachDownloads(worker)
	worker.Start()
	defer worker.Stop()

	// No audio engine in the server build. Playback requests are logged and
	// checkpointed so a connected client can pick them up.
	player := playback.PlayerFunc(func(ctx context.Context, items []domain.PlayableItem, startIndex int) error {
		appLogger.Info("Playback requested", "items", len(items), "start_index", startIndex)
		return nil
	})
	pb := playback.NewService(db, player, bus, appLogger)

	bk := backup.NewManager(cfg.DBPath, appLogger)

	h := httpapp.NewHandler(lib, worker, provider, pb, bk, bus, appLogger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.NewRouter(),
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exiting")
}
