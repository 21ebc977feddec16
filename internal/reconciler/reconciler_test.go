package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
	"github.com/acordar/dataset-annotator/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

func newReconciler(root string) *Reconciler {
	return New(storage.NewDescriptorStore(root), storage.NewDirectoryProber(root), testLogger())
}

func makeDataset(t *testing.T, root, id string, artifacts int) {
	t.Helper()
	dir := filepath.Join(root, "dataset-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create dataset dir: %v", err)
	}
	for i := 0; i < artifacts; i++ {
		name := filepath.Join(dir, fmt.Sprintf("file-%d.rdf", i))
		if err := os.WriteFile(name, []byte("artifact"), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}
	}
}

func writeDescriptor(t *testing.T, root, id, content string) {
	t.Helper()
	path := filepath.Join(root, "dataset-"+id, domain.DescriptorFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}
}

func loadRaw(t *testing.T, root, id string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "dataset-"+id, domain.DescriptorFileName))
	if err != nil {
		t.Fatalf("failed to read descriptor: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal descriptor: %v", err)
	}
	return raw
}

func downloadInfo(t *testing.T, raw map[string]interface{}) map[string]interface{} {
	t.Helper()
	di, ok := raw["download_info"].(map[string]interface{})
	if !ok {
		t.Fatalf("descriptor has no download_info object: %v", raw)
	}
	return di
}

func strPtr(s string) *string { return &s }

func TestReconcileDataset_CreateDescriptor(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "7", 2)

	record := domain.CatalogRecord{
		ID:       "7",
		Title:    strPtr("Air Quality Measurements"),
		Download: []string{"http://a/1", "http://a/2", "http://a/3"},
	}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreated, action)

	raw := loadRaw(t, root, "7")
	di := downloadInfo(t, raw)

	assert.Equal(t, float64(2), di["downloaded"])
	assert.Equal(t, float64(3), di["total_URLS"])
	assert.Equal(t, false, raw["mined"])
	assert.Equal(t, "7", raw["dataset_id"])
	assert.Equal(t, "Air Quality Measurements", raw["title"])

	// Absent catalog fields must be omitted, not written as null.
	assert.NotContains(t, raw, "description")
	assert.NotContains(t, raw, "author")
	assert.NotContains(t, raw, "tags")
}

func TestReconcileDataset_SkipWhenNotDownloaded(t *testing.T) {
	root := t.TempDir()

	record := domain.CatalogRecord{ID: "42", Download: []string{"http://a"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSkipped, action)

	_, statErr := os.Stat(filepath.Join(root, "dataset-42"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcileDataset_RepairRaisesStaleCount(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "7", 4)
	writeDescriptor(t, root, "7", `{"download_info":{"downloaded":1,"total_URLS":4},"mined":false}`)

	record := domain.CatalogRecord{ID: "7", Download: []string{"u1", "u2", "u3", "u4"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRepaired, action)

	// 5 entries on disk, descriptor excluded: the stored 1 understates reality.
	di := downloadInfo(t, loadRaw(t, root, "7"))
	assert.Equal(t, float64(4), di["downloaded"])
}

func TestReconcileDataset_RepairKeepsLargerStoredCount(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "8", 4)
	writeDescriptor(t, root, "8", `{"download_info":{"downloaded":10,"total_URLS":4},"mined":false}`)

	record := domain.CatalogRecord{ID: "8", Download: []string{"u1", "u2", "u3", "u4"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRepaired, action)

	di := downloadInfo(t, loadRaw(t, root, "8"))
	assert.Equal(t, float64(10), di["downloaded"])
}

func TestReconcileDataset_MigratesLegacyFields(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "9", 2)
	writeDescriptor(t, root, "9", `{"download_info":{"Downloaded":3,"Total_URLS":9},"mined":true}`)

	record := domain.CatalogRecord{ID: "9", Download: []string{"u1", "u2"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRepaired, action)

	di := downloadInfo(t, loadRaw(t, root, "9"))
	assert.Equal(t, float64(3), di["downloaded"])
	assert.Equal(t, float64(2), di["total_URLS"])
	assert.NotContains(t, di, "Downloaded")
	assert.NotContains(t, di, "Total_URLS")
}

func TestReconcileDataset_RederivesTotalURLs(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "10", 1)
	writeDescriptor(t, root, "10", `{"download_info":{"downloaded":1,"total_URLS":99},"mined":false}`)

	record := domain.CatalogRecord{ID: "10", Download: []string{"u1", "u2", "u3"}}

	_, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)

	di := downloadInfo(t, loadRaw(t, root, "10"))
	assert.Equal(t, float64(3), di["total_URLS"])
}

func TestReconcileDataset_RepairPreservesMetadata(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "11", 1)
	writeDescriptor(t, root, "11", `{
		"dataset_id": "11",
		"title": "Old Title",
		"description": "A stored description",
		"author": "Someone",
		"tags": ["rdf", "open-data"],
		"download_info": {"downloaded": 1, "total_URLS": 1},
		"mined": true
	}`)

	// Catalog carries a different title; repair must not touch stored metadata.
	record := domain.CatalogRecord{
		ID:       "11",
		Title:    strPtr("New Catalog Title"),
		Download: []string{"u1"},
	}

	_, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)

	raw := loadRaw(t, root, "11")
	assert.Equal(t, "Old Title", raw["title"])
	assert.Equal(t, "A stored description", raw["description"])
	assert.Equal(t, "Someone", raw["author"])
	assert.Equal(t, []interface{}{"rdf", "open-data"}, raw["tags"])
	assert.Equal(t, true, raw["mined"])
}

func TestReconcileDataset_RepairWithoutDownloadInfo(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "12", 3)
	writeDescriptor(t, root, "12", `{"title":"No Counts Yet","mined":false}`)

	record := domain.CatalogRecord{ID: "12", Download: []string{"u1", "u2"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRepaired, action)

	// 4 entries, descriptor excluded.
	di := downloadInfo(t, loadRaw(t, root, "12"))
	assert.Equal(t, float64(3), di["downloaded"])
	assert.Equal(t, float64(2), di["total_URLS"])
}

func TestReconcileDataset_MalformedDescriptor(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "13", 1)
	writeDescriptor(t, root, "13", `{this is not json`)

	record := domain.CatalogRecord{ID: "13", Download: []string{"u1"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	assert.Equal(t, domain.ActionFailed, action)
	assert.ErrorIs(t, err, errpkg.ErrMalformedDescriptor)

	// Corrupt evidence must survive, never be overwritten.
	data, readErr := os.ReadFile(filepath.Join(root, "dataset-13", domain.DescriptorFileName))
	require.NoError(t, readErr)
	assert.Equal(t, `{this is not json`, string(data))
}

func TestReconcileDataset_MissingIdentifier(t *testing.T) {
	root := t.TempDir()

	record := domain.CatalogRecord{Download: []string{"u1"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	assert.Equal(t, domain.ActionFailed, action)
	assert.ErrorIs(t, err, errpkg.ErrMissingIdentifier)
}

func TestReconcileDataset_MissingURLList(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "14", 1)

	record := domain.CatalogRecord{ID: "14"}

	action, err := newReconciler(root).ReconcileDataset(record)
	assert.Equal(t, domain.ActionFailed, action)
	assert.ErrorIs(t, err, errpkg.ErrMissingURLList)
}

func TestReconcileDataset_EmptyURLListIsValid(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "15", 1)

	record := domain.CatalogRecord{ID: "15", Download: []string{}}

	action, err := newReconciler(root).ReconcileDataset(record)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreated, action)

	di := downloadInfo(t, loadRaw(t, root, "15"))
	assert.Equal(t, float64(0), di["total_URLS"])
}

func TestReconcileDataset_UnsafeIdentifier(t *testing.T) {
	root := t.TempDir()

	record := domain.CatalogRecord{ID: "../escape", Download: []string{"u1"}}

	action, err := newReconciler(root).ReconcileDataset(record)
	assert.Equal(t, domain.ActionFailed, action)
	assert.Error(t, err)
}

func TestRun_SummaryAndIsolation(t *testing.T) {
	root := t.TempDir()

	makeDataset(t, root, "1", 2)
	makeDataset(t, root, "3", 1)
	writeDescriptor(t, root, "3", `{"download_info":{"downloaded":0,"total_URLS":1},"mined":false}`)

	records := []domain.CatalogRecord{
		{ID: "1", Download: []string{"u1", "u2"}},
		{ID: "2", Download: []string{"u1"}}, // never downloaded
		{ID: "bad"},                         // no URL list, must not abort the run
		{ID: "3", Download: []string{"u1"}},
	}

	summary, results, err := newReconciler(root).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, domain.Summary{Created: 1, Repaired: 1, Skipped: 1, Failed: 1}, summary)
	require.Len(t, results, 4)
	assert.Equal(t, domain.ActionCreated, results[0].Action)
	assert.Equal(t, domain.ActionSkipped, results[1].Action)
	assert.Equal(t, domain.ActionFailed, results[2].Action)
	assert.NotEmpty(t, results[2].Error)
	assert.Equal(t, domain.ActionRepaired, results[3].Action)
}

func TestRun_ContextCancelled(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []domain.CatalogRecord{{ID: "1", Download: []string{"u1"}}}

	_, results, err := newReconciler(root).Run(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestCreateDescriptor_CopiesPresentFields(t *testing.T) {
	record := domain.CatalogRecord{
		ID:          "20",
		Title:       strPtr("Title"),
		Description: strPtr("Description"),
		Author:      strPtr("Author"),
		Tags:        []string{"a", "b"},
		Download:    []string{"u1", "u2"},
	}

	desc := CreateDescriptor(record, 5)

	require.NotNil(t, desc.DownloadInfo)
	assert.Equal(t, 5, desc.DownloadInfo.Downloaded)
	assert.Equal(t, 2, desc.DownloadInfo.TotalURLs)
	assert.False(t, desc.Mined)
	require.NotNil(t, desc.Title)
	assert.Equal(t, "Title", *desc.Title)
	assert.Equal(t, []string{"a", "b"}, desc.Tags)
}

func TestRepairDescriptor_EmptyDirectory(t *testing.T) {
	// A directory holding only the descriptor file has zero artifacts.
	stored := &domain.StoredDescriptor{
		DownloadInfo: &domain.StoredDownloadInfo{},
	}
	record := domain.CatalogRecord{ID: "21", Download: []string{"u1"}}

	desc := RepairDescriptor(record, stored, 1)

	require.NotNil(t, desc.DownloadInfo)
	assert.Equal(t, 0, desc.DownloadInfo.Downloaded)
	assert.Equal(t, 1, desc.DownloadInfo.TotalURLs)
}
