package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/acordar/dataset-annotator/internal/domain"
)

// RunRepo defines the interface for run-report storage operations.
type RunRepo interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	UpdateRun(ctx context.Context, run *domain.Run) error
	GetRunsByStatus(ctx context.Context, status domain.RunStatus) ([]*domain.Run, error)
}
