package domain

// DescriptorFileName is the sidecar file written into every dataset directory.
const DescriptorFileName = "dataset.json"

// DownloadInfo tracks download completeness under the canonical field names.
type DownloadInfo struct {
	Downloaded int `json:"downloaded"`
	TotalURLs  int `json:"total_URLS"`
}

// Descriptor is the canonical per-dataset sidecar document. It is always
// written in this shape; legacy field names never survive a reconciliation.
type Descriptor struct {
	DatasetID    *string       `json:"dataset_id,omitempty"`
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Author       *string       `json:"author,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	DownloadInfo *DownloadInfo `json:"download_info,omitempty"`
	Mined        bool          `json:"mined"`
}

// StoredDownloadInfo is the download_info section as read from disk, before
// schema migration. Historical descriptors used capitalized field names, so
// both forms are kept separate here; exact tag matches win during decoding,
// which keeps "Downloaded" and "downloaded" from colliding.
type StoredDownloadInfo struct {
	Downloaded       *int `json:"downloaded,omitempty"`
	TotalURLs        *int `json:"total_URLS,omitempty"`
	LegacyDownloaded *int `json:"Downloaded,omitempty"`
	LegacyTotalURLs  *int `json:"Total_URLS,omitempty"`
}

// DownloadedCount resolves the stored download count, preferring the legacy
// capitalized field when present. Returns 0 when no count was stored.
func (d *StoredDownloadInfo) DownloadedCount() int {
	if d.LegacyDownloaded != nil {
		return *d.LegacyDownloaded
	}
	if d.Downloaded != nil {
		return *d.Downloaded
	}
	return 0
}

// StoredDescriptor is a descriptor as loaded from disk. Metadata fields are
// carried through untouched; only download_info is subject to migration.
type StoredDescriptor struct {
	DatasetID    *string             `json:"dataset_id,omitempty"`
	Title        *string             `json:"title,omitempty"`
	Description  *string             `json:"description,omitempty"`
	Author       *string             `json:"author,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	DownloadInfo *StoredDownloadInfo `json:"download_info,omitempty"`
	Mined        bool                `json:"mined"`
}
