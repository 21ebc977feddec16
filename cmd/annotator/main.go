package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acordar/dataset-annotator/internal/catalog"
	cfgpkg "github.com/acordar/dataset-annotator/internal/config"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
	"github.com/acordar/dataset-annotator/internal/reconciler"
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

	store := storage.NewDescriptorStore(cfg.DatasetsRoot)
	prober := storage.NewDirectoryProber(cfg.DatasetsRoot)
	rec := reconciler.New(store, prober, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("annotation started", "datasets_root", cfg.DatasetsRoot, "records", len(records))

	summary, _, runErr := rec.Run(ctx, records)

	slog.Info("annotation finished",
		"created", summary.Created,
		"repaired", summary.Repaired,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	if runErr != nil {
		slog.Error("annotation interrupted", "error", runErr)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
