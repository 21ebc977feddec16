package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/acordar/dataset-annotator/internal/domain"
	errpkg "github.com/acordar/dataset-annotator/internal/errors"
)

// Load reads the catalog document from the given path and returns its dataset
// records in catalog order. The records are treated as immutable for the
// duration of a run.
func Load(path string) ([]domain.CatalogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errpkg.ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("catalog file is empty: %s", path)
	}

	var doc domain.Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog file: %w", err)
	}

	slog.Info("catalog loaded", "path", path, "records", len(doc.Datasets))
	return doc.Datasets, nil
}
