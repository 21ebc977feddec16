package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
)

// RunStorage provides in-memory and file-based storage for run reports.
// Runs are copied on the way in and on the way out, so callers never share
// memory with the map entries.
type RunStorage struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.Run
	file string
}

// NewRunStorage creates a new RunStorage and loads runs from the state file
// if it exists.
func NewRunStorage(filePath string) (*RunStorage, error) {
	repo := &RunStorage{
		runs: make(map[uuid.UUID]*domain.Run),
		file: filepath.Clean(filePath),
	}

	if err := repo.restoreRuns(); err != nil {
		return nil, fmt.Errorf("failed to load state from file: %w", err)
	}

	slog.Info("run repository initialized", "file_path", repo.file, "runs_count", len(repo.runs))
	return repo, nil
}

func (r *RunStorage) restoreRuns() error {
	if isFileNotExist(r.file) {
		slog.Info("state file does not exist, starting with empty state", "file_path", r.file)
		return nil
	}

	data, err := os.ReadFile(r.file)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if len(data) == 0 {
		slog.Warn("state file is empty")
		return nil
	}

	var runs []*domain.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	for _, run := range runs {
		r.runs[run.ID] = run
	}

	slog.Info("state loaded from file", "runs_count", len(runs), "file_path", r.file)
	return nil
}

func isFileNotExist(filePath string) bool {
	_, err := os.Stat(filePath)
	return os.IsNotExist(err)
}

func (r *RunStorage) persistRuns() error {
	r.mu.RLock()
	runs := make([]*domain.Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}

	tempFile := r.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, r.file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	slog.Debug("state saved to file", "runs_count", len(runs), "file_path", r.file)
	return nil
}

// CreateRun adds a new run and persists it to the state file.
func (r *RunStorage) CreateRun(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	stored := *run
	r.runs[run.ID] = &stored
	r.mu.Unlock()

	if err := r.persistRuns(); err != nil {
		return fmt.Errorf("failed to save state after creating run: %w", err)
	}

	slog.Debug("run created and saved", "run_id", run.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (r *RunStorage) GetRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	run, exists := r.runs[id]
	var snapshot domain.Run
	if exists {
		snapshot = *run
	}
	r.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrRunNotFound
	}
	return &snapshot, nil
}

// UpdateRun updates an existing run and persists it to the state file.
func (r *RunStorage) UpdateRun(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	run.UpdatedAt = time.Now()
	stored := *run
	r.runs[run.ID] = &stored
	r.mu.Unlock()

	if err := r.persistRuns(); err != nil {
		return fmt.Errorf("failed to save state after updating run: %w", err)
	}

	slog.Debug("run updated and saved", "run_id", run.ID, "status", run.Status)
	return nil
}

// GetRunsByStatus returns all runs with the specified status.
func (r *RunStorage) GetRunsByStatus(ctx context.Context, status domain.RunStatus) ([]*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var filtered []*domain.Run
	for _, run := range r.runs {
		if run.Status == status {
			snapshot := *run
			filtered = append(filtered, &snapshot)
		}
	}
	r.mu.RUnlock()

	return filtered, nil
}
