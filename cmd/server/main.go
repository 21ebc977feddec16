package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	h "github.com/acordar/dataset-annotator/internal/api/http"
	"github.com/acordar/dataset-annotator/internal/catalog"
	cfgpkg "github.com/acordar/dataset-annotator/internal/config"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
	"github.com/acordar/dataset-annotator/internal/reconciler"
	repo "github.com/acordar/dataset-annotator/internal/repository"
	svc "github.com/acordar/dataset-annotator/internal/service"
	"github.com/acordar/dataset-annotator/internal/storage"
)

func main() {

	cfg, err := cfgpkg.Load()
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			slog.Error("configuration file not found", "error", err)
		} else {
			slog.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully")

	records, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		if errors.Is(err, errpkg.ErrCatalogNotFound) {
			slog.Error("catalog file does not exist", "error", err)
		} else {
			slog.Error("failed to load catalog", "error", err)
		}
		os.Exit(1)
	}

	runStorage, err := repo.NewRunStorage(cfg.StateFile)
	if err != nil {
		slog.Error("failed to initialize run repository", "error", err)
		os.Exit(1)
	}

	store := storage.NewDescriptorStore(cfg.DatasetsRoot)
	prober := storage.NewDirectoryProber(cfg.DatasetsRoot)
	rec := reconciler.New(store, prober, slog.Default())
	runService := svc.NewRunService(runStorage, rec, records, slog.Default())

	if err := runService.RecoverInterruptedRuns(context.Background()); err != nil {
		slog.Error("failed to recover interrupted runs", "error", err)
	}

	router := h.NewRouter(runService, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := runService.Shutdown(shutdownCtx); err != nil {
			slog.Error("run service shutdown failed", "error", err)
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
