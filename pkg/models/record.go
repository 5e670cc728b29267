package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReportRecord is an ErrorReport persisted in PostgreSQL. The full report is
// kept in Payload; the headline numbers are columns for listing.
type ReportRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Engine            string    `gorm:"size:32;index;not null" json:"engine"`
	TotalDocuments    int       `json:"total_documents"`
	AnalyzedDocuments int       `json:"analyzed_documents"`
	Gaps              int       `json:"gaps"`
	Failures          int       `json:"failures"`
	OverallAccuracy   float64   `json:"overall_accuracy"`
	Payload           string    `gorm:"type:jsonb;not null" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewReportRecord builds the row for report.
func NewReportRecord(report ErrorReport) (ReportRecord, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("failed to encode report: %w", err)
	}
	return ReportRecord{
		Engine:            report.Engine,
		TotalDocuments:    report.TotalDocuments,
		AnalyzedDocuments: report.AnalyzedDocuments,
		Gaps:              report.Gaps,
		Failures:          report.Failures,
		OverallAccuracy:   report.OverallAccuracy,
		Payload:           string(payload),
	}, nil
}

// Report decodes the stored report.
func (r ReportRecord) Report() (ErrorReport, error) {
	var report ErrorReport
	if err := json.Unmarshal([]byte(r.Payload), &report); err != nil {
		return ErrorReport{}, fmt.Errorf("failed to decode report %d: %w", r.ID, err)
	}
	return report, nil
}
