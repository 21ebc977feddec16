package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
)

// RunServiceI defines the interface for run-related business logic.
type RunServiceI interface {
	StartRun(ctx context.Context, req *domain.CreateRunRequest) (*domain.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// RunHandler handles HTTP requests for reconciliation runs.
type RunHandler struct {
	runService RunServiceI
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewRunHandler creates a new RunHandler with the provided service and logger.
func NewRunHandler(runService RunServiceI, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		runService: runService,
		validator:  validator.New(),
		logger:     logger,
	}
}

// StartRun handles the HTTP POST /runs request to start a reconciliation run.
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error("failed to decode request", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.runService.StartRun(ctx, &req)
	if err != nil {
		h.logger.Error("failed to start run", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("run started", "run_id", run.ID, "dataset_filter", len(req.DatasetIDs))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"run_id": run.ID,
	})
}

// GetRun handles the HTTP GET /runs/{runID} request to fetch a run report.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runIDStr := chi.URLParam(r, "runID")
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := h.runService.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, errpkg.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("failed to get run", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := domain.RunResponse{
		ID:        run.ID,
		Status:    run.Status,
		Summary:   run.Summary,
		Results:   run.Results,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
