package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
	"github.com/acordar/dataset-annotator/internal/metrics"
	"github.com/acordar/dataset-annotator/internal/reconciler"
	repo "github.com/acordar/dataset-annotator/internal/repository"
)

// RunService starts and tracks reconciliation runs over the loaded catalog.
type RunService struct {
	runRepo    repo.RunRepo
	reconciler *reconciler.Reconciler
	records    []domain.CatalogRecord
	byID       map[string]domain.CatalogRecord
	logger     *slog.Logger

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// NewRunService creates a RunService over the catalog records, which are held
// immutable for the lifetime of the service.
func NewRunService(runRepo repo.RunRepo, rec *reconciler.Reconciler, records []domain.CatalogRecord, logger *slog.Logger) *RunService {
	byID := make(map[string]domain.CatalogRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	return &RunService{
		runRepo:      runRepo,
		reconciler:   rec,
		records:      records,
		byID:         byID,
		logger:       logger,
		shutdownChan: make(chan struct{}),
	}
}

// StartRun creates a run, persists it, and executes it asynchronously.
// An empty dataset_ids filter means the whole catalog.
func (s *RunService) StartRun(ctx context.Context, req *domain.CreateRunRequest) (*domain.Run, error) {
	select {
	case <-s.shutdownChan:
		return nil, fmt.Errorf("service is shutting down")
	default:
	}

	run := &domain.Run{
		ID:         uuid.New(),
		Status:     domain.RunStatusPending,
		DatasetIDs: req.DatasetIDs,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	metrics.RunsStarted.Inc()
	s.logger.Info("run created",
		"run_id", run.ID,
		"dataset_filter", len(req.DatasetIDs),
	)

	s.wg.Add(1)
	go func(run *domain.Run) {
		defer s.wg.Done()
		if err := s.executeRun(run); err != nil {
			s.logger.Error("failed to execute run",
				"run_id", run.ID,
				"error", err,
			)
		}
	}(run)

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *RunService) GetRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	return s.runRepo.GetRun(ctx, id)
}

func (s *RunService) executeRun(run *domain.Run) error {
	// Work on a private copy. The repository copies runs both on store and
	// on read, so readers only ever see the states handed to UpdateRun.
	current := *run
	run = &current

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-s.shutdownChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	run.Status = domain.RunStatusRunning
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	records, missing := s.selectRecords(run.DatasetIDs)

	summary, results, runErr := s.reconciler.Run(ctx, records)

	for _, id := range missing {
		summary.Failed++
		metrics.DatasetsFailed.Inc()
		results = append(results, domain.DatasetResult{
			DatasetID: id,
			Action:    domain.ActionFailed,
			Error:     errpkg.ErrDatasetNotFound.Error(),
		})
		s.logger.Error("dataset reconciliation failed",
			"dataset_id", id,
			"error", errpkg.ErrDatasetNotFound,
		)
	}

	run.Summary = summary
	run.Results = results

	if runErr != nil {
		run.Status = domain.RunStatusInterrupted
		s.logger.Warn("run interrupted",
			"run_id", run.ID,
			"error", runErr,
		)
	} else {
		run.Status = domain.RunStatusCompleted
		metrics.RunsCompleted.Inc()
		s.logger.Info("run completed",
			"run_id", run.ID,
			"created", summary.Created,
			"repaired", summary.Repaired,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	}

	// Persist the final report even when the run context was cancelled.
	if err := s.runRepo.UpdateRun(context.Background(), run); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// selectRecords resolves a dataset_ids filter against the catalog, preserving
// catalog order. IDs not present in the catalog are returned separately so
// they fail that dataset only.
func (s *RunService) selectRecords(ids []string) ([]domain.CatalogRecord, []string) {
	if len(ids) == 0 {
		return s.records, nil
	}

	wanted := make(map[string]bool, len(ids))
	var missing []string
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			missing = append(missing, id)
			continue
		}
		wanted[id] = true
	}

	var records []domain.CatalogRecord
	for _, record := range s.records {
		if wanted[record.ID] {
			records = append(records, record)
		}
	}
	return records, missing
}

// RecoverInterruptedRuns marks runs left pending or running by a previous
// process as interrupted. Reconciliation is idempotent, so callers simply
// start a new run instead of resuming an old one.
func (s *RunService) RecoverInterruptedRuns(ctx context.Context) error {
	pending, err := s.runRepo.GetRunsByStatus(ctx, domain.RunStatusPending)
	if err != nil {
		return fmt.Errorf("failed to get pending runs: %w", err)
	}

	running, err := s.runRepo.GetRunsByStatus(ctx, domain.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to get running runs: %w", err)
	}

	for _, run := range append(pending, running...) {
		run.Status = domain.RunStatusInterrupted
		if err := s.runRepo.UpdateRun(ctx, run); err != nil {
			s.logger.Error("failed to mark run interrupted", "run_id", run.ID, "error", err)
			continue
		}
		s.logger.Warn("stale run marked interrupted", "run_id", run.ID)
	}

	return nil
}

// Shutdown stops accepting new runs and waits for in-flight runs to finish
// writing their reports, or until ctx expires.
func (s *RunService) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down run service")

	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("run service shutdown completed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("run service shutdown timed out")
		return ctx.Err()
	}
}
