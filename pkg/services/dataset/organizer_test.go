package dataset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tempImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for x := 0; x < 100; x++ {
		img.Set(x, x, color.Black)
	}
	path := filepath.Join(t.TempDir(), "test_image.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newOrganizer(t *testing.T) *Organizer {
	t.Helper()
	o, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return o
}

func TestNewCreatesLayout(t *testing.T) {
	o := newOrganizer(t)
	for _, dir := range []string{
		o.RawDir,
		o.LabelsDir,
		o.PreprocessedDir,
		filepath.Join(o.OCRTextDir, "paddle"),
		filepath.Join(o.OCRTextDir, "tesseract"),
		filepath.Join(o.OCRTextDir, "azure"),
	} {
		assert.DirExists(t, dir)
	}
}

func TestAddDocument(t *testing.T) {
	o := newOrganizer(t)
	src := tempImage(t)

	docID, err := o.Add(src, map[string]any{"test_field": "test_value"})
	require.NoError(t, err)
	require.NotEmpty(t, docID)

	doc, err := o.Get(docID)
	require.NoError(t, err)
	assert.Equal(t, "test_value", doc.Extra["test_field"])
	assert.Equal(t, "test_image.png", doc.Filename)
	assert.Equal(t, ".png", doc.FileExtension)
	assert.Positive(t, doc.FileSizeBytes)
	assert.FileExists(t, o.Path(doc))
	assert.FileExists(t, filepath.Join(o.LabelsDir, docID+"_metadata.json"))

	_, err = o.Add(filepath.Join(t.TempDir(), "missing.png"), nil)
	assert.Error(t, err)
}

func TestListDocuments(t *testing.T) {
	o := newOrganizer(t)
	src := tempImage(t)

	id1, err := o.Add(src, nil)
	require.NoError(t, err)
	id2, err := o.Add(src, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	assert.Len(t, o.List(0), 2)
	assert.Len(t, o.List(1), 1)
}

func TestStats(t *testing.T) {
	o := newOrganizer(t)
	src := tempImage(t)

	_, err := o.Add(src, nil)
	require.NoError(t, err)
	_, err = o.Add(src, nil)
	require.NoError(t, err)

	stats, err := o.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Positive(t, stats.TotalSizeBytes)
	assert.Positive(t, stats.AvgFileSizeBytes)
	assert.Equal(t, 2, stats.FilesInRaw)
	assert.Equal(t, 2, stats.FilesInLabels)
	assert.Equal(t, 0, stats.FilesInPreprocessed)
}

func TestRemoveDocument(t *testing.T) {
	o := newOrganizer(t)

	docID, err := o.Add(tempImage(t), nil)
	require.NoError(t, err)
	doc, err := o.Get(docID)
	require.NoError(t, err)

	require.NoError(t, o.Remove(docID))
	_, err = o.Get(docID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoFileExists(t, o.Path(doc))

	stats, err := o.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.EqualValues(t, 0, stats.TotalSizeBytes)

	assert.ErrorIs(t, o.Remove(docID), ErrDocumentNotFound)
}

func TestMetadataPersistsAcrossInstances(t *testing.T) {
	base := t.TempDir()
	o, err := New(base, zap.NewNop())
	require.NoError(t, err)
	docID, err := o.Add(tempImage(t), nil)
	require.NoError(t, err)

	reopened, err := New(base, zap.NewNop())
	require.NoError(t, err)
	_, err = reopened.Get(docID)
	assert.NoError(t, err)
}

func TestCorruptMetadataIsReplaced(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, metadataFile), []byte("{broken"), 0o644))

	o, err := New(base, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, o.List(0))
	assert.Equal(t, "invoice_dataset", o.metadata.DatasetName)
}

func TestAddRollsBackWhenMetadataCannotBeSaved(t *testing.T) {
	o := newOrganizer(t)
	src := tempImage(t)

	require.NoError(t, os.RemoveAll(o.metadataPath))
	require.NoError(t, os.Mkdir(o.metadataPath, 0o755))

	_, err := o.Add(src, nil)
	require.Error(t, err)

	assert.Empty(t, o.List(0))
	stats, err := o.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.TotalSizeBytes)
	assert.Zero(t, stats.FilesInRaw)

	raw, err := os.ReadDir(o.RawDir)
	require.NoError(t, err)
	assert.Empty(t, raw)
	sidecars, err := filepath.Glob(filepath.Join(o.LabelsDir, "*_metadata.json"))
	require.NoError(t, err)
	assert.Empty(t, sidecars)
}
