package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
	"github.com/acordar/dataset-annotator/internal/metrics"
	"github.com/acordar/dataset-annotator/internal/validation"
)

// DescriptorStore reads and writes the per-dataset sidecar document.
type DescriptorStore interface {
	Exists(datasetID string) bool
	Load(datasetID string) (*domain.StoredDescriptor, error)
	Save(datasetID string, desc *domain.Descriptor) error
}

// DirectoryProber reports on dataset download directories.
type DirectoryProber interface {
	Exists(datasetID string) bool
	EntryCount(datasetID string) (int, error)
}

// Reconciler decides, per catalog record, whether to create, repair, or skip
// the dataset's descriptor, and computes its canonical content.
type Reconciler struct {
	store  DescriptorStore
	prober DirectoryProber
	logger *slog.Logger
}

// New creates a Reconciler over the given store and prober.
func New(store DescriptorStore, prober DirectoryProber, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		prober: prober,
		logger: logger,
	}
}

// Run reconciles every record sequentially in catalog order. Errors are
// dataset-scoped: a failing record is reported in its result and the run
// continues. Run stops early only when ctx is cancelled, returning the
// partial results together with the context error.
func (r *Reconciler) Run(ctx context.Context, records []domain.CatalogRecord) (domain.Summary, []domain.DatasetResult, error) {
	start := time.Now()

	var summary domain.Summary
	results := make([]domain.DatasetResult, 0, len(records))

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, results, err
		}

		result := domain.DatasetResult{DatasetID: record.ID}

		action, err := r.ReconcileDataset(record)
		if err != nil {
			action = domain.ActionFailed
			result.Error = err.Error()
			r.logger.Error("dataset reconciliation failed",
				"dataset_id", record.ID,
				"error", err,
			)
		}
		result.Action = action

		switch action {
		case domain.ActionCreated:
			summary.Created++
			metrics.DescriptorsCreated.Inc()
			r.logger.Info("descriptor created", "dataset_id", record.ID)
		case domain.ActionRepaired:
			summary.Repaired++
			metrics.DescriptorsRepaired.Inc()
			r.logger.Info("descriptor repaired", "dataset_id", record.ID)
		case domain.ActionSkipped:
			summary.Skipped++
			metrics.DatasetsSkipped.Inc()
			r.logger.Debug("dataset not downloaded, skipping", "dataset_id", record.ID)
		case domain.ActionFailed:
			summary.Failed++
			metrics.DatasetsFailed.Inc()
		}

		results = append(results, result)
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	return summary, results, nil
}

// ReconcileDataset ensures a consistent descriptor for a single catalog
// record: skip when the dataset was never downloaded, create when no
// descriptor exists yet, repair otherwise.
func (r *Reconciler) ReconcileDataset(record domain.CatalogRecord) (domain.Action, error) {
	if record.ID == "" {
		return domain.ActionFailed, errpkg.ErrMissingIdentifier
	}
	if err := validation.ValidateDatasetID(record.ID); err != nil {
		return domain.ActionFailed, err
	}
	if record.Download == nil {
		return domain.ActionFailed, fmt.Errorf("dataset %s: %w", record.ID, errpkg.ErrMissingURLList)
	}

	if !r.prober.Exists(record.ID) {
		return domain.ActionSkipped, nil
	}

	// The entry count is taken before any write, so on the create path the
	// descriptor file is not part of it.
	entries, err := r.prober.EntryCount(record.ID)
	if err != nil {
		return domain.ActionFailed, fmt.Errorf("probe dataset directory: %w", err)
	}

	if !r.store.Exists(record.ID) {
		desc := CreateDescriptor(record, entries)
		if err := r.store.Save(record.ID, desc); err != nil {
			return domain.ActionFailed, fmt.Errorf("save descriptor: %w", err)
		}
		return domain.ActionCreated, nil
	}

	stored, err := r.store.Load(record.ID)
	if err != nil {
		return domain.ActionFailed, err
	}

	desc := RepairDescriptor(record, stored, entries)
	if err := r.store.Save(record.ID, desc); err != nil {
		return domain.ActionFailed, fmt.Errorf("save descriptor: %w", err)
	}
	return domain.ActionRepaired, nil
}

// CreateDescriptor builds a fresh descriptor from the catalog record and the
// directory entry count, measured while no descriptor file exists yet.
func CreateDescriptor(record domain.CatalogRecord, entries int) *domain.Descriptor {
	desc := &domain.Descriptor{
		Title:       record.Title,
		Description: record.Description,
		Author:      record.Author,
		Tags:        record.Tags,
		Mined:       false,
	}

	if record.ID != "" {
		id := record.ID
		desc.DatasetID = &id
	}

	desc.DownloadInfo = &domain.DownloadInfo{
		Downloaded: entries,
		TotalURLs:  len(record.Download),
	}

	return desc
}

// RepairDescriptor derives the canonical descriptor from a stored one.
// Legacy download_info field names are migrated to their canonical lowercase
// form, the downloaded count is floored by the physical artifact count, and
// total_URLS is always re-derived from the record. Every other field is
// carried over from the stored document untouched.
//
// entries is the current directory entry count and includes the descriptor
// file itself, hence the -1 below. Descriptors with no download_info at all
// get a fresh section computed the same way, so the descriptor file is never
// double counted as an artifact.
func RepairDescriptor(record domain.CatalogRecord, stored *domain.StoredDescriptor, entries int) *domain.Descriptor {
	desc := &domain.Descriptor{
		DatasetID:   stored.DatasetID,
		Title:       stored.Title,
		Description: stored.Description,
		Author:      stored.Author,
		Tags:        stored.Tags,
		Mined:       stored.Mined,
	}

	effectiveMax := entries - 1
	if effectiveMax < 0 {
		effectiveMax = 0
	}

	downloaded := effectiveMax
	if stored.DownloadInfo != nil {
		if n := stored.DownloadInfo.DownloadedCount(); n > downloaded {
			downloaded = n
		}
	}

	desc.DownloadInfo = &domain.DownloadInfo{
		Downloaded: downloaded,
		TotalURLs:  len(record.Download),
	}

	return desc
}
