package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDocumentNotFound is returned for IDs that are not in the dataset.
var ErrDocumentNotFound = errors.New("document not found")

const metadataFile = "dataset_metadata.json"

// Organizer keeps a flat directory of invoice documents together with a
// metadata sidecar. It is safe for concurrent use.
type Organizer struct {
	BasePath        string
	RawDir          string
	LabelsDir       string
	OCRTextDir      string
	PreprocessedDir string

	mu           sync.Mutex
	metadataPath string
	metadata     models.DatasetMetadata
	logger       *zap.Logger
	now          func() time.Time
}

// New creates the directory layout under base and loads the sidecar. A
// sidecar that cannot be decoded is replaced with an empty one.
func New(base string, logger *zap.Logger) (*Organizer, error) {
	o := &Organizer{
		BasePath:        base,
		RawDir:          filepath.Join(base, "raw"),
		LabelsDir:       filepath.Join(base, "labels"),
		OCRTextDir:      filepath.Join(base, "ocr_text"),
		PreprocessedDir: filepath.Join(base, "preprocessed"),
		metadataPath:    filepath.Join(base, metadataFile),
		logger:          logger.Named("dataset"),
		now:             time.Now,
	}

	dirs := []string{o.RawDir, o.LabelsDir, o.PreprocessedDir}
	for _, engine := range models.KnownEngines {
		dirs = append(dirs, filepath.Join(o.OCRTextDir, engine))
	}
	for _, dir := range dirs {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	o.metadata = o.loadMetadata()
	o.logger.Info("dataset organizer initialized", zap.String("path", base))
	return o, nil
}

func (o *Organizer) loadMetadata() models.DatasetMetadata {
	var md models.DatasetMetadata
	err := fileutil.ReadJSON(o.metadataPath, &md)
	if err == nil {
		if md.Documents == nil {
			md.Documents = map[string]models.Document{}
		}
		return md
	}
	if !errors.Is(err, fileutil.ErrNotFound) {
		o.logger.Warn("failed to load metadata, creating new", zap.Error(err))
	}
	return models.DatasetMetadata{
		DatasetName: "invoice_dataset",
		CreatedAt:   o.now().Format(time.RFC3339Nano),
		Documents:   map[string]models.Document{},
	}
}

func (o *Organizer) saveMetadata() error {
	return fileutil.WriteJSON(o.metadataPath, o.metadata)
}

// Add copies the file at sourcePath into the raw directory and records it.
// extra is stored alongside the generated metadata.
func (o *Organizer) Add(sourcePath string, extra map[string]any) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("source file not found: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %s is a directory", sourcePath)
	}

	now := o.now()
	docID := fmt.Sprintf("doc_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
	ext := filepath.Ext(sourcePath)
	dest := filepath.Join(o.RawDir, docID+ext)

	size, err := copyFile(sourcePath, dest)
	if err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", sourcePath, err)
	}

	rel, err := filepath.Rel(o.BasePath, dest)
	if err != nil {
		rel = dest
	}
	doc := models.Document{
		DocID:         docID,
		Filename:      filepath.Base(sourcePath),
		FileExtension: ext,
		AddedAt:       now.Format(time.RFC3339Nano),
		FileSizeBytes: size,
		FilePath:      filepath.ToSlash(rel),
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(extra) > 0 {
		doc.Extra = make(map[string]any, len(extra))
		for k, v := range extra {
			doc.Extra[k] = v
		}
	}

	if err := fileutil.WriteJSON(o.docMetadataPath(docID), doc); err != nil {
		os.Remove(dest)
		return "", err
	}

	prevStats := o.metadata.Statistics
	o.metadata.Documents[docID] = doc
	o.metadata.Statistics.TotalDocuments++
	o.metadata.Statistics.TotalSizeBytes += size
	o.metadata.Statistics.LastUpdated = now.Format(time.RFC3339Nano)
	if err := o.saveMetadata(); err != nil {
		delete(o.metadata.Documents, docID)
		o.metadata.Statistics = prevStats
		os.Remove(dest)
		os.Remove(o.docMetadataPath(docID))
		return "", err
	}

	o.logger.Info("added document", zap.String("doc_id", docID), zap.String("filename", doc.Filename))
	return docID, nil
}

// List returns documents in insertion order. limit <= 0 returns all of them.
func (o *Organizer) List(limit int) []models.Document {
	o.mu.Lock()
	defer o.mu.Unlock()

	docs := make([]models.Document, 0, len(o.metadata.Documents))
	for _, d := range o.metadata.Documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].AddedAt != docs[j].AddedAt {
			return docs[i].AddedAt < docs[j].AddedAt
		}
		return docs[i].DocID < docs[j].DocID
	})
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// Get returns the metadata of one document.
func (o *Organizer) Get(docID string) (models.Document, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	doc, ok := o.metadata.Documents[docID]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	return doc, nil
}

// Path returns the absolute location of a document's raw file.
func (o *Organizer) Path(doc models.Document) string {
	return filepath.Join(o.BasePath, filepath.FromSlash(doc.FilePath))
}

// Stats returns the stored statistics plus directory counts.
func (o *Organizer) Stats() (models.DatasetStats, error) {
	o.mu.Lock()
	stats := models.DatasetStats{DatasetStatistics: o.metadata.Statistics}
	o.mu.Unlock()

	if stats.TotalDocuments > 0 {
		stats.AvgFileSizeBytes = float64(stats.TotalSizeBytes) / float64(stats.TotalDocuments)
	}

	counts := []struct {
		dir     string
		pattern string
		dst     *int
	}{
		{o.RawDir, "*", &stats.FilesInRaw},
		{o.LabelsDir, "*.json", &stats.FilesInLabels},
		{o.PreprocessedDir, "*", &stats.FilesInPreprocessed},
	}
	for _, c := range counts {
		files, err := fileutil.ListFiles(c.dir, c.pattern, false)
		if err != nil {
			return stats, err
		}
		*c.dst = len(files)
	}
	return stats, nil
}

// Remove deletes a document's files and metadata.
func (o *Organizer) Remove(docID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	doc, ok := o.metadata.Documents[docID]
	if !ok {
		o.logger.Warn("document not found", zap.String("doc_id", docID))
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}

	for _, path := range []string{o.Path(doc), o.docMetadataPath(docID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	o.metadata.Statistics.TotalDocuments--
	o.metadata.Statistics.TotalSizeBytes -= doc.FileSizeBytes
	o.metadata.Statistics.LastUpdated = o.now().Format(time.RFC3339Nano)
	delete(o.metadata.Documents, docID)
	if err := o.saveMetadata(); err != nil {
		return err
	}

	o.logger.Info("removed document", zap.String("doc_id", docID))
	return nil
}

func (o *Organizer) docMetadataPath(docID string) string {
	return filepath.Join(o.LabelsDir, docID+"_metadata.json")
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
