package models

// FieldError describes how one tracked field of one document was recognized.
type FieldError struct {
	GroundTruth        string  `json:"ground_truth"`
	OCRExtracted       string  `json:"ocr_extracted"`
	Similarity         float64 `json:"similarity"`
	IsCorrect          bool    `json:"is_correct"`
	CharacterErrorRate float64 `json:"character_error_rate"`
}

// DocumentAnalysis is the per-document result of comparing OCR output with
// its label.
type DocumentAnalysis struct {
	DocID         string                `json:"doc_id"`
	Engine        string                `json:"engine"`
	FieldErrors   map[string]FieldError `json:"field_errors"`
	Accuracy      float64               `json:"accuracy"`
	AvgConfidence float64               `json:"avg_confidence"`
	NumBlocks     int                   `json:"num_blocks"`
}

// FieldStats aggregates one field across all analyzed documents.
type FieldStats struct {
	Correct      int       `json:"correct"`
	Incorrect    int       `json:"incorrect"`
	Total        int       `json:"total"`
	Accuracy     float64   `json:"accuracy"`
	Similarities []float64 `json:"similarities"`
}

// ReportSummary holds averages over the analyzed documents.
type ReportSummary struct {
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgBlocksPerDoc  float64 `json:"avg_blocks_per_doc"`
	AvgCharErrorRate float64 `json:"avg_character_error_rate"`
}

// ErrorReport is the outcome of one analysis run over a dataset.
type ErrorReport struct {
	Engine            string                `json:"engine"`
	GeneratedAt       string                `json:"generated_at"`
	TotalDocuments    int                   `json:"total_documents"`
	AnalyzedDocuments int                   `json:"analyzed_documents"`
	Gaps              int                   `json:"gaps"`
	GapDocuments      []string              `json:"gap_documents"`
	Failures          int                   `json:"failures"`
	FailedDocuments   []string              `json:"failed_documents"`
	Fields            map[string]FieldStats `json:"fields"`
	FieldAccuracy     map[string]float64    `json:"field_accuracy"`
	OverallAccuracy   float64               `json:"overall_accuracy"`
	DocumentAccuracy  map[string]float64    `json:"document_accuracy"`
	DetailedErrors    []DocumentAnalysis    `json:"detailed_errors"`
	Summary           ReportSummary         `json:"summary"`
}
