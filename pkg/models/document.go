package models

// Document is the metadata kept for every file added to the dataset. Extra
// carries caller-supplied fields.
type Document struct {
	DocID         string         `json:"doc_id"`
	Filename      string         `json:"filename"`
	FileExtension string         `json:"file_extension"`
	AddedAt       string         `json:"added_at"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	FilePath      string         `json:"file_path"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// DatasetStatistics is maintained incrementally as documents come and go.
type DatasetStatistics struct {
	TotalDocuments int    `json:"total_documents"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	LastUpdated    string `json:"last_updated,omitempty"`
}

// DatasetMetadata is the dataset_metadata.json sidecar.
type DatasetMetadata struct {
	DatasetName string              `json:"dataset_name"`
	CreatedAt   string              `json:"created_at"`
	Documents   map[string]Document `json:"documents"`
	Statistics  DatasetStatistics   `json:"statistics"`
}

// DatasetStats extends the stored statistics with values computed on demand.
type DatasetStats struct {
	DatasetStatistics
	AvgFileSizeBytes    float64 `json:"avg_file_size_bytes"`
	FilesInRaw          int     `json:"files_in_raw"`
	FilesInLabels       int     `json:"files_in_labels"`
	FilesInPreprocessed int     `json:"files_in_preprocessed"`
}
