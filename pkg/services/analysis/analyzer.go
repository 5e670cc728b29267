// Package analysis scores OCR output against ground-truth invoice labels.
package analysis

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"go.uber.org/zap"
)

var (
	ErrMissingLabel     = errors.New("ground truth label not found")
	ErrMissingOCRResult = errors.New("ocr result not found")
	// ErrEngineFailed marks an OCR result the engine recorded as failed. It
	// is counted as a failure, not a gap.
	ErrEngineFailed = errors.New("ocr engine reported an error")
)

// DefaultFields are the invoice fields scored by default.
var DefaultFields = []string{"invoice_number", "invoice_date", "vendor_name", "total_amount"}

// detailLimit caps the number of per-document analyses kept in a report.
const detailLimit = 10

// Analyzer compares label files in LabelsDir with OCR result files stored
// under OCRDir/<engine>.
type Analyzer struct {
	LabelsDir string
	OCRDir    string
	Fields    []string

	logger *zap.Logger
	now    func() time.Time
}

func New(labelsDir, ocrDir string, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		LabelsDir: labelsDir,
		OCRDir:    ocrDir,
		Fields:    DefaultFields,
		logger:    logger.Named("analysis"),
		now:       time.Now,
	}
}

// AnalyzeFields scores every field of fields found in label against the OCR
// full text.
func AnalyzeFields(fields []string, label map[string]any, fullText string) map[string]models.FieldError {
	out := make(map[string]models.FieldError, len(fields))
	for _, field := range fields {
		expected := labelValue(label[field])
		extracted := Extract(fullText, field, expected)
		sim := Similarity(expected, extracted)
		out[field] = models.FieldError{
			GroundTruth:        expected,
			OCRExtracted:       extracted,
			Similarity:         sim,
			IsCorrect:          IsCorrect(sim),
			CharacterErrorRate: CharErrorRate(expected, extracted),
		}
	}
	return out
}

// AnalyzeDocument loads the label and the engine's OCR result for docID and
// scores them. A missing input yields ErrMissingLabel or ErrMissingOCRResult;
// an engine result recorded as failed yields ErrEngineFailed.
func (a *Analyzer) AnalyzeDocument(docID, engine string) (models.DocumentAnalysis, error) {
	label, err := a.loadLabel(docID)
	if err != nil {
		return models.DocumentAnalysis{}, err
	}
	result, err := a.loadOCRResult(docID, engine)
	if err != nil {
		return models.DocumentAnalysis{}, err
	}

	fieldErrors := AnalyzeFields(a.Fields, label, result.FullText)
	correct := 0
	for _, fe := range fieldErrors {
		if fe.IsCorrect {
			correct++
		}
	}
	var accuracy float64
	if len(fieldErrors) > 0 {
		accuracy = float64(correct) / float64(len(fieldErrors))
	}

	return models.DocumentAnalysis{
		DocID:         docID,
		Engine:        engine,
		FieldErrors:   fieldErrors,
		Accuracy:      accuracy,
		AvgConfidence: result.AvgConfidence,
		NumBlocks:     result.NumBlocks,
	}, nil
}

// GenerateReport analyzes docIDs, or every label in LabelsDir when docIDs is
// nil. Documents missing a label or OCR result are gaps; unreadable ones are
// failures. Neither counts towards any accuracy.
func (a *Analyzer) GenerateReport(engine string, docIDs []string) (models.ErrorReport, error) {
	a.logger.Info("generating error report", zap.String("engine", engine))

	if docIDs == nil {
		ids, err := a.labelIDs()
		if err != nil {
			return models.ErrorReport{}, err
		}
		docIDs = ids
	}

	report := models.ErrorReport{
		Engine:           engine,
		GeneratedAt:      a.now().Format(time.RFC3339),
		TotalDocuments:   len(docIDs),
		GapDocuments:     []string{},
		FailedDocuments:  []string{},
		Fields:           make(map[string]models.FieldStats, len(a.Fields)),
		FieldAccuracy:    make(map[string]float64, len(a.Fields)),
		DocumentAccuracy: map[string]float64{},
		DetailedErrors:   []models.DocumentAnalysis{},
	}
	for _, field := range a.Fields {
		report.Fields[field] = models.FieldStats{Similarities: []float64{}}
	}

	var (
		confSum, blockSum, cerSum float64
		cerCount                  int
	)
	for _, docID := range docIDs {
		doc, err := a.AnalyzeDocument(docID, engine)
		switch {
		case errors.Is(err, ErrMissingLabel), errors.Is(err, ErrMissingOCRResult):
			a.logger.Warn("skipping document", zap.String("doc_id", docID), zap.Error(err))
			report.Gaps++
			report.GapDocuments = append(report.GapDocuments, docID)
			continue
		case err != nil:
			a.logger.Error("failed to analyze document", zap.String("doc_id", docID), zap.Error(err))
			report.Failures++
			report.FailedDocuments = append(report.FailedDocuments, docID)
			continue
		}

		report.AnalyzedDocuments++
		report.DocumentAccuracy[docID] = doc.Accuracy
		if len(report.DetailedErrors) < detailLimit {
			report.DetailedErrors = append(report.DetailedErrors, doc)
		}
		confSum += doc.AvgConfidence
		blockSum += float64(doc.NumBlocks)

		for field, fe := range doc.FieldErrors {
			stats := report.Fields[field]
			stats.Total++
			if fe.IsCorrect {
				stats.Correct++
			} else {
				stats.Incorrect++
			}
			stats.Similarities = append(stats.Similarities, fe.Similarity)
			report.Fields[field] = stats

			cerSum += fe.CharacterErrorRate
			cerCount++
		}
	}

	var totalCorrect, totalFields int
	for field, stats := range report.Fields {
		if stats.Total > 0 {
			stats.Accuracy = float64(stats.Correct) / float64(stats.Total)
		}
		report.Fields[field] = stats
		report.FieldAccuracy[field] = stats.Accuracy
		totalCorrect += stats.Correct
		totalFields += stats.Total
	}
	if totalFields > 0 {
		report.OverallAccuracy = float64(totalCorrect) / float64(totalFields)
	}
	if n := float64(report.AnalyzedDocuments); n > 0 {
		report.Summary.AvgConfidence = confSum / n
		report.Summary.AvgBlocksPerDoc = blockSum / n
	}
	if cerCount > 0 {
		report.Summary.AvgCharErrorRate = cerSum / float64(cerCount)
	}

	a.logger.Info("error report generated",
		zap.String("engine", engine),
		zap.Int("analyzed", report.AnalyzedDocuments),
		zap.Int("gaps", report.Gaps),
		zap.Int("failures", report.Failures),
		zap.Float64("overall_accuracy", report.OverallAccuracy))
	return report, nil
}

// SaveReport writes report as JSON to path.
func (a *Analyzer) SaveReport(report models.ErrorReport, path string) error {
	if err := fileutil.WriteJSON(path, report); err != nil {
		return err
	}
	a.logger.Info("report saved", zap.String("path", path))
	return nil
}

// Summary renders the human-readable report overview.
func Summary(report models.ErrorReport, fields []string) string {
	rule := strings.Repeat("=", 60)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nOCR ERROR ANALYSIS REPORT - %s\n%s\n", rule, strings.ToUpper(report.Engine), rule)
	fmt.Fprintf(&b, "Total Documents: %d\n", report.TotalDocuments)
	fmt.Fprintf(&b, "Analyzed Documents: %d\n", report.AnalyzedDocuments)
	fmt.Fprintf(&b, "Gaps: %d\n", report.Gaps)
	fmt.Fprintf(&b, "Failures: %d\n", report.Failures)
	b.WriteString("\nField Accuracy:\n")
	for _, field := range fields {
		fmt.Fprintf(&b, "  %s: %.2f%%\n", field, report.FieldAccuracy[field]*100)
	}
	fmt.Fprintf(&b, "  overall: %.2f%%\n", report.OverallAccuracy*100)
	fmt.Fprintf(&b, "\nAverage Confidence: %.2f%%\n", report.Summary.AvgConfidence*100)
	fmt.Fprintf(&b, "Average Blocks per Document: %.1f\n", report.Summary.AvgBlocksPerDoc)
	fmt.Fprintf(&b, "Average Character Error Rate: %.3f\n", report.Summary.AvgCharErrorRate)
	b.WriteString(rule + "\n")
	return b.String()
}

func (a *Analyzer) loadLabel(docID string) (map[string]any, error) {
	var label map[string]any
	err := fileutil.ReadJSON(filepath.Join(a.LabelsDir, docID+".json"), &label)
	if errors.Is(err, fileutil.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", docID, ErrMissingLabel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load label for %s: %w", docID, err)
	}
	return label, nil
}

func (a *Analyzer) loadOCRResult(docID, engine string) (models.EngineResult, error) {
	var result models.ImageResult
	err := fileutil.ReadJSON(filepath.Join(a.OCRDir, engine, docID+"_ocr.json"), &result)
	if errors.Is(err, fileutil.ErrNotFound) {
		return models.EngineResult{}, fmt.Errorf("%s (%s): %w", docID, engine, ErrMissingOCRResult)
	}
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("failed to load OCR result for %s: %w", docID, err)
	}
	res, ok := result.Engines[engine]
	if !ok {
		return models.EngineResult{}, fmt.Errorf("%s has no %s output: %w", docID, engine, ErrMissingOCRResult)
	}
	if res.Error != "" {
		return models.EngineResult{}, fmt.Errorf("%s (%s): %s: %w", docID, engine, res.Error, ErrEngineFailed)
	}
	return res, nil
}

// labelIDs lists the document IDs of all label files, leaving out the
// organizer's *_metadata.json files.
func (a *Analyzer) labelIDs() ([]string, error) {
	files, err := fileutil.ListFiles(a.LabelsDir, "*.json", false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		stem := fileutil.Stem(f)
		if strings.HasSuffix(stem, "_metadata") {
			continue
		}
		ids = append(ids, stem)
	}
	return ids, nil
}

func labelValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
