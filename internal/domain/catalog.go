package domain

// CatalogRecord is a single dataset entry from the authoritative catalog.
// Optional metadata fields are pointers: nil means the catalog does not carry
// the field and the descriptor must omit it, never write null.
type CatalogRecord struct {
	ID          string   `json:"dataset_id"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Download    []string `json:"download"`
}

// Catalog is the top-level catalog document holding the ordered dataset list.
type Catalog struct {
	Datasets []CatalogRecord `json:"datasets"`
}
