package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRecordRoundTrip(t *testing.T) {
	report := ErrorReport{
		Engine:            EngineTesseract,
		TotalDocuments:    10,
		AnalyzedDocuments: 8,
		Gaps:              2,
		GapDocuments:      []string{"a", "b"},
		OverallAccuracy:   0.5,
	}

	record, err := NewReportRecord(report)
	require.NoError(t, err)
	assert.Equal(t, EngineTesseract, record.Engine)
	assert.Equal(t, 8, record.AnalyzedDocuments)
	assert.Contains(t, record.Payload, `"gap_documents":["a","b"]`)

	decoded, err := record.Report()
	require.NoError(t, err)
	assert.Equal(t, report.GapDocuments, decoded.GapDocuments)

	record.Payload = "{"
	_, err = record.Report()
	assert.Error(t, err)
}
