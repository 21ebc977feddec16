package errors

import "errors"

var (
	ErrCatalogNotFound     = errors.New("catalog file not found")
	ErrMissingIdentifier   = errors.New("catalog record missing dataset identifier")
	ErrMissingURLList      = errors.New("catalog record missing download URL list")
	ErrMalformedDescriptor = errors.New("malformed descriptor file")
	ErrDatasetNotFound     = errors.New("dataset not in catalog")
	ErrRunNotFound         = errors.New("run not found")
)
