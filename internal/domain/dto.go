package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateRunRequest represents the request body for starting a reconciliation
// run. An empty DatasetIDs list means the whole catalog.
type CreateRunRequest struct {
	DatasetIDs []string `json:"dataset_ids" validate:"omitempty,min=1,dive,required"`
}

// RunResponse represents the response returned for a run, including its
// status and per-dataset results.
type RunResponse struct {
	ID        uuid.UUID       `json:"run_id"`
	Status    RunStatus       `json:"status"`
	Summary   Summary         `json:"summary"`
	Results   []DatasetResult `json:"results,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
