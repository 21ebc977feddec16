package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
)

// DatasetDir returns the directory for a dataset under the given root.
func DatasetDir(root, datasetID string) string {
	return filepath.Join(root, "dataset-"+datasetID)
}

// DescriptorStore reads and writes the per-dataset sidecar document at
// <root>/dataset-<id>/dataset.json.
type DescriptorStore struct {
	root string
}

// NewDescriptorStore creates a DescriptorStore rooted at the datasets directory.
func NewDescriptorStore(root string) *DescriptorStore {
	return &DescriptorStore{root: filepath.Clean(root)}
}

func (s *DescriptorStore) descriptorPath(datasetID string) string {
	return filepath.Join(DatasetDir(s.root, datasetID), domain.DescriptorFileName)
}

// Exists checks whether a descriptor file exists for the dataset.
func (s *DescriptorStore) Exists(datasetID string) bool {
	_, err := os.Stat(s.descriptorPath(datasetID))
	return err == nil
}

// Load reads the descriptor for the dataset in its on-disk form, legacy
// field names included. A file that does not decode into the expected shape
// is reported as malformed, never silently discarded.
func (s *DescriptorStore) Load(datasetID string) (*domain.StoredDescriptor, error) {
	data, err := os.ReadFile(s.descriptorPath(datasetID))
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	var stored domain.StoredDescriptor
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", errpkg.ErrMalformedDescriptor, err)
	}

	return &stored, nil
}

// Save writes the canonical descriptor for the dataset, fully replacing any
// previous content. The temporary file lives next to the dataset directory,
// not inside it, so directory entry counts never observe it; its name is
// unique per call so overlapping runs cannot interleave on the same path.
func (s *DescriptorStore) Save(datasetID string, desc *domain.Descriptor) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, "dataset-"+datasetID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	// CreateTemp files are 0600; descriptors stay readable like any artifact.
	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to set temporary file mode: %w", err)
	}

	if err := os.Rename(tempFile, s.descriptorPath(datasetID)); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
