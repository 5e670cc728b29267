package generator

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGenerator(t *testing.T, seed uint64) *Generator {
	t.Helper()
	g, err := New(Options{
		OutputDir: filepath.Join(t.TempDir(), "raw"),
		Seed:      seed,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestNewDefaultsLabelsDir(t *testing.T) {
	base := t.TempDir()
	g, err := New(Options{OutputDir: filepath.Join(base, "raw"), Locale: "vi_VN"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "labels"), g.LabelsDir)
	assert.DirExists(t, g.LabelsDir)
	assert.Equal(t, DefaultLocale, g.Locale)

	_, err = New(Options{}, zap.NewNop())
	assert.Error(t, err)
}

func TestGenerateTotalsAreConsistent(t *testing.T) {
	g := newGenerator(t, 42)

	for i := 0; i < 200; i++ {
		inv := g.Generate()
		require.NoError(t, VerifyTotals(inv))

		var sum int64
		for _, item := range inv.LineItems {
			sum += Cents(item.Amount)
		}
		assert.Equal(t, Cents(inv.Subtotal), sum)
		assert.Equal(t, Cents(inv.TotalAmount), Cents(inv.Subtotal)+Cents(inv.TaxAmount))
	}
}

func TestGenerateFields(t *testing.T) {
	g := newGenerator(t, 7)
	inv := g.Generate()

	assert.Regexp(t, regexp.MustCompile(`^INV-\d{4}$`), inv.InvoiceNumber)
	assert.Regexp(t, regexp.MustCompile(`^TAX-\d{6}$`), inv.VendorTaxID)
	assert.NotEmpty(t, inv.VendorName)
	assert.NotEmpty(t, inv.CustomerName)
	assert.Contains(t, currencies, inv.Currency)
	assert.Contains(t, taxRates, inv.TaxRate)
	require.NotEmpty(t, inv.LineItems)
	assert.LessOrEqual(t, len(inv.LineItems), 5)

	issued, err := time.Parse("2006-01-02", inv.InvoiceDate)
	require.NoError(t, err)
	due, err := time.Parse("2006-01-02", inv.DueDate)
	require.NoError(t, err)
	days := due.Sub(issued).Hours() / 24
	assert.GreaterOrEqual(t, days, 14.9)
	assert.LessOrEqual(t, days, 60.1)
}

func TestGenerateIsReproducible(t *testing.T) {
	a := newGenerator(t, 99)
	b := newGenerator(t, 99)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now }

	assert.Equal(t, a.Generate(), b.Generate())
}

func TestVerifyTotalsDetectsMismatch(t *testing.T) {
	inv := models.Invoice{
		LineItems:   []models.LineItem{{Description: "x", Quantity: 2, UnitPrice: 10.10, Amount: 20.20}},
		Subtotal:    20.20,
		TaxAmount:   2.02,
		TotalAmount: 22.22,
	}
	require.NoError(t, VerifyTotals(inv))

	inv.TotalAmount = 22.23
	assert.Error(t, VerifyTotals(inv))

	inv.TotalAmount = 22.22
	inv.Subtotal = 20.21
	assert.Error(t, VerifyTotals(inv))
}

func TestRenderAndNoiseKeepPageSize(t *testing.T) {
	g := newGenerator(t, 3)
	img := g.Render(g.Generate())
	assert.Equal(t, pageWidth, img.Bounds().Dx())
	assert.Equal(t, pageHeight, img.Bounds().Dy())

	noisy := g.AddNoise(img)
	assert.Equal(t, img.Bounds().Size(), noisy.Bounds().Size())
}

func TestRenderFallsBackWithoutFonts(t *testing.T) {
	g, err := New(Options{
		OutputDir: filepath.Join(t.TempDir(), "raw"),
		FontDir:   filepath.Join(t.TempDir(), "no-fonts"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, g.fonts.title)
	require.NotNil(t, g.fonts.small)

	img := g.Render(g.Generate())
	assert.Equal(t, pageWidth, img.Bounds().Dx())
}

func TestGenerateDataset(t *testing.T) {
	g := newGenerator(t, 11)

	ids, err := g.GenerateDataset(3, 0.5)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	for i, id := range ids {
		assert.Regexp(t, regexp.MustCompile(`^synthetic_\d{8}_000`+string(rune('0'+i))+`$`), id)

		img, err := imaging.Open(filepath.Join(g.OutputDir, id+".png"))
		require.NoError(t, err)
		assert.Equal(t, pageWidth, img.Bounds().Dx())

		var label models.Invoice
		require.NoError(t, fileutil.ReadJSON(filepath.Join(g.LabelsDir, id+".json"), &label))
		assert.NoError(t, VerifyTotals(label))
		assert.Equal(t, 1.0, label.ConfidenceScores["invoice_number"])
	}

	_, err = g.GenerateDataset(1, 1.5)
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	lines := wrapText("123 Main Street, Apt 4, Springfield, IL 62704, United States", 20)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
	assert.Equal(t, "123 Main Street, Apt", lines[0])
	assert.Nil(t, wrapText("   ", 10))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 30))
	assert.Equal(t, "abcdefg...", truncateText("abcdefghijklmnop", 10))
}
