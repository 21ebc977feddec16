package storage

import (
	"fmt"
	"os"
)

// DirectoryProber reports on dataset directories under the datasets root.
// It only ever reads; artifact files are owned by the download process.
type DirectoryProber struct {
	root string
}

// NewDirectoryProber creates a DirectoryProber rooted at the datasets directory.
func NewDirectoryProber(root string) *DirectoryProber {
	return &DirectoryProber{root: root}
}

// Exists checks whether the dataset directory exists.
func (p *DirectoryProber) Exists(datasetID string) bool {
	info, err := os.Stat(DatasetDir(p.root, datasetID))
	return err == nil && info.IsDir()
}

// EntryCount returns the number of entries in the dataset directory,
// descriptor file included when present.
func (p *DirectoryProber) EntryCount(datasetID string) (int, error) {
	entries, err := os.ReadDir(DatasetDir(p.root, datasetID))
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset directory: %w", err)
	}
	return len(entries), nil
}
