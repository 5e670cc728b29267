package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	analyzer *Analyzer
	labels   string
	ocr      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		labels: filepath.Join(base, "labels"),
		ocr:    filepath.Join(base, "ocr_text"),
	}
	f.analyzer = New(f.labels, f.ocr, zap.NewNop())
	f.analyzer.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f fixture) writeLabel(t *testing.T, docID string, label map[string]any) {
	t.Helper()
	require.NoError(t, fileutil.WriteJSON(filepath.Join(f.labels, docID+".json"), label))
}

func (f fixture) writeOCR(t *testing.T, docID, engine, fullText string) {
	t.Helper()
	res := models.NewEngineResult(engine, []models.TextBlock{{Text: fullText, Confidence: 0.8}}, "\n")
	require.NoError(t, fileutil.WriteJSON(filepath.Join(f.ocr, engine, docID+"_ocr.json"), models.ImageResult{
		ImagePath: docID + ".png",
		ImageName: docID + ".png",
		Timestamp: "2024-06-01T12:00:00Z",
		Engines:   map[string]models.EngineResult{engine: res},
	}))
}

func sampleLabel(i int) map[string]any {
	return map[string]any{
		"invoice_number": fmt.Sprintf("INV-%d", 1000+i),
		"invoice_date":   "2024-03-14",
		"vendor_name":    "Acme Logistics LLC",
		"total_amount":   1324.5,
	}
}

func sampleOCR(i int) string {
	return fmt.Sprintf("INVOICE\nInvoice #: INV-%d\nDate: 2024-03-14\nFROM:\nAcme Logistics LLC\nTOTAL: 1324.50 USD", 1000+i)
}

func TestAnalyzeFieldsExactMatch(t *testing.T) {
	got := AnalyzeFields([]string{"invoice_number"}, map[string]any{"invoice_number": "INV-1001"}, "Invoice #: INV-1001")

	fe := got["invoice_number"]
	assert.Equal(t, "INV-1001", fe.GroundTruth)
	assert.Equal(t, "INV-1001", fe.OCRExtracted)
	assert.Equal(t, 1.0, fe.Similarity)
	assert.True(t, fe.IsCorrect)
	assert.Equal(t, 0.0, fe.CharacterErrorRate)
}

func TestAnalyzeFieldsMisreadStillCorrect(t *testing.T) {
	got := AnalyzeFields([]string{"invoice_number"}, map[string]any{"invoice_number": "INV-1001"}, "some header\nINV-l001\nfooter")

	fe := got["invoice_number"]
	assert.Equal(t, "INV-l001", fe.OCRExtracted)
	assert.InDelta(t, 0.875, fe.Similarity, 1e-9)
	assert.True(t, fe.IsCorrect)
}

func TestAnalyzeFieldsMissingField(t *testing.T) {
	got := AnalyzeFields([]string{"vendor_name"}, map[string]any{}, "FROM: Acme")
	assert.Equal(t, "", got["vendor_name"].GroundTruth)
	assert.Equal(t, 0.0, got["vendor_name"].Similarity)
	assert.False(t, got["vendor_name"].IsCorrect)
}

func TestAnalyzeDocument(t *testing.T) {
	f := newFixture(t)
	f.writeLabel(t, "doc1", sampleLabel(1))
	f.writeOCR(t, "doc1", models.EnginePaddle, sampleOCR(1))

	doc, err := f.analyzer.AnalyzeDocument("doc1", models.EnginePaddle)
	require.NoError(t, err)
	assert.Equal(t, "doc1", doc.DocID)
	assert.Equal(t, 1.0, doc.Accuracy)
	assert.Equal(t, 1, doc.NumBlocks)
	assert.InDelta(t, 0.8, doc.AvgConfidence, 1e-9)
	assert.Equal(t, "1324.5", doc.FieldErrors["total_amount"].GroundTruth)

	_, err = f.analyzer.AnalyzeDocument("doc1", models.EngineTesseract)
	assert.ErrorIs(t, err, ErrMissingOCRResult)

	_, err = f.analyzer.AnalyzeDocument("doc2", models.EnginePaddle)
	assert.ErrorIs(t, err, ErrMissingLabel)
}

func TestGenerateReportCountsGaps(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		docID := fmt.Sprintf("synthetic_20240601_%04d", i)
		f.writeLabel(t, docID, sampleLabel(i))
		if i == 3 || i == 7 {
			continue
		}
		f.writeOCR(t, docID, models.EnginePaddle, sampleOCR(i))
	}
	require.NoError(t, fileutil.WriteJSON(filepath.Join(f.labels, "doc_x_metadata.json"), map[string]any{"doc_id": "doc_x"}))

	report, err := f.analyzer.GenerateReport(models.EnginePaddle, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalDocuments)
	assert.Equal(t, 8, report.AnalyzedDocuments)
	assert.Equal(t, 2, report.Gaps)
	assert.Equal(t, []string{"synthetic_20240601_0003", "synthetic_20240601_0007"}, report.GapDocuments)
	assert.Equal(t, 0, report.Failures)
	assert.Equal(t, "2024-06-01T12:00:00Z", report.GeneratedAt)

	for _, field := range DefaultFields {
		assert.Equal(t, 8, report.Fields[field].Total, field)
		assert.Equal(t, 8, report.Fields[field].Correct, field)
		assert.Len(t, report.Fields[field].Similarities, 8)
		assert.Equal(t, 1.0, report.FieldAccuracy[field], field)
	}
	assert.Equal(t, 1.0, report.OverallAccuracy)
	assert.Len(t, report.DocumentAccuracy, 8)
	assert.Len(t, report.DetailedErrors, 8)
	assert.InDelta(t, 0.8, report.Summary.AvgConfidence, 1e-9)
	assert.Equal(t, 1.0, report.Summary.AvgBlocksPerDoc)
}

func TestGenerateReportIsolatesMalformedInput(t *testing.T) {
	f := newFixture(t)
	f.writeLabel(t, "good", sampleLabel(1))
	f.writeOCR(t, "good", models.EngineTesseract, "INV-9999 nothing else matches")
	f.writeLabel(t, "bad", sampleLabel(2))
	badPath := filepath.Join(f.ocr, models.EngineTesseract, "bad_ocr.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o644))

	report, err := f.analyzer.GenerateReport(models.EngineTesseract, []string{"good", "bad", "missing"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalDocuments)
	assert.Equal(t, 1, report.AnalyzedDocuments)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, []string{"bad"}, report.FailedDocuments)
	assert.Equal(t, 1, report.Gaps)

	stats := report.Fields["invoice_number"]
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 0.0, report.FieldAccuracy["invoice_number"])
}

func TestGenerateReportCountsEngineErrorsAsFailures(t *testing.T) {
	f := newFixture(t)
	f.writeLabel(t, "ok", sampleLabel(1))
	f.writeOCR(t, "ok", models.EnginePaddle, sampleOCR(1))
	f.writeLabel(t, "crashed", sampleLabel(2))
	require.NoError(t, fileutil.WriteJSON(filepath.Join(f.ocr, models.EnginePaddle, "crashed_ocr.json"), models.ImageResult{
		ImagePath: "crashed.png",
		ImageName: "crashed.png",
		Timestamp: "2024-06-01T12:00:00Z",
		Engines: map[string]models.EngineResult{
			models.EnginePaddle: models.FailedEngineResult(models.EnginePaddle, errors.New("server returned 503")),
		},
	}))

	_, err := f.analyzer.AnalyzeDocument("crashed", models.EnginePaddle)
	require.ErrorIs(t, err, ErrEngineFailed)
	assert.Contains(t, err.Error(), "server returned 503")

	report, err := f.analyzer.GenerateReport(models.EnginePaddle, []string{"ok", "crashed"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.AnalyzedDocuments)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, []string{"crashed"}, report.FailedDocuments)
	assert.Equal(t, 0, report.Gaps)
	assert.Equal(t, 1, report.Fields["invoice_number"].Total)
	assert.Equal(t, 1.0, report.FieldAccuracy["invoice_number"])
}

func TestGenerateReportEmpty(t *testing.T) {
	f := newFixture(t)
	report, err := f.analyzer.GenerateReport(models.EnginePaddle, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalDocuments)
	assert.Equal(t, 0.0, report.OverallAccuracy)
	assert.Equal(t, 0.0, report.Summary.AvgConfidence)
}

func TestDetailedErrorsAreCapped(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 12; i++ {
		docID := fmt.Sprintf("d%02d", i)
		ids = append(ids, docID)
		f.writeLabel(t, docID, sampleLabel(i))
		f.writeOCR(t, docID, models.EnginePaddle, sampleOCR(i))
	}

	report, err := f.analyzer.GenerateReport(models.EnginePaddle, ids)
	require.NoError(t, err)
	assert.Equal(t, 12, report.AnalyzedDocuments)
	assert.Len(t, report.DetailedErrors, detailLimit)
}

func TestSaveReportAndSummary(t *testing.T) {
	f := newFixture(t)
	f.writeLabel(t, "doc1", sampleLabel(1))
	f.writeOCR(t, "doc1", models.EnginePaddle, sampleOCR(1))

	report, err := f.analyzer.GenerateReport(models.EnginePaddle, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "error_report_paddle.json")
	require.NoError(t, f.analyzer.SaveReport(report, path))

	var saved models.ErrorReport
	require.NoError(t, fileutil.ReadJSON(path, &saved))
	assert.Equal(t, report.OverallAccuracy, saved.OverallAccuracy)
	assert.Equal(t, report.AnalyzedDocuments, saved.AnalyzedDocuments)

	text := Summary(report, DefaultFields)
	assert.Contains(t, text, "OCR ERROR ANALYSIS REPORT - PADDLE")
	assert.Contains(t, text, "Analyzed Documents: 1")
	assert.Contains(t, text, "invoice_number: 100.00%")
	assert.Contains(t, text, "overall: 100.00%")
}
