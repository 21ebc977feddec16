package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusPending     RunStatus = "pending"
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// Action is the outcome of reconciling a single dataset.
type Action string

const (
	ActionCreated  Action = "created"
	ActionRepaired Action = "repaired"
	ActionSkipped  Action = "skipped"
	ActionFailed   Action = "failed"
)

// DatasetResult records the outcome of one dataset within a run.
type DatasetResult struct {
	DatasetID string `json:"dataset_id"`
	Action    Action `json:"action"`
	Error     string `json:"error,omitempty"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	Created  int `json:"created"`
	Repaired int `json:"repaired"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Run is a single reconciliation run over the catalog, or over a subset of it
// when DatasetIDs is non-empty.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	Status     RunStatus       `json:"status"`
	DatasetIDs []string        `json:"dataset_ids,omitempty"`
	Results    []DatasetResult `json:"results,omitempty"`
	Summary    Summary         `json:"summary"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
