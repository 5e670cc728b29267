package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

// DefaultLocale is the only locale the fake-data source provides.
const DefaultLocale = "en_US"

var (
	taxRates      = []int{0, 5, 8, 10, 15, 20}
	currencies    = []string{"USD", "EUR", "GBP", "VND"}
	paymentDays   = []int{15, 30, 45, 60}
	trackedFields = []string{"invoice_number", "invoice_date", "vendor_name", "total_amount"}
)

// Options configures a Generator.
type Options struct {
	// OutputDir receives the rendered images.
	OutputDir string
	// LabelsDir receives the ground-truth JSON; defaults to a "labels"
	// directory next to OutputDir.
	LabelsDir string
	Locale    string
	// Seed makes the output reproducible; zero picks a random seed.
	Seed    uint64
	FontDir string
}

// Generator produces synthetic invoices with their labels.
type Generator struct {
	OutputDir string
	LabelsDir string
	Locale    string

	faker  *gofakeit.Faker
	rng    *rand.Rand
	fonts  fontSet
	logger *zap.Logger
	now    func() time.Time
}

type fontSet struct {
	title, normal, small font.Face
}

// New prepares the output directories and loads the rendering fonts.
func New(opts Options, logger *zap.Logger) (*Generator, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	if opts.LabelsDir == "" {
		opts.LabelsDir = filepath.Join(filepath.Dir(filepath.Clean(opts.OutputDir)), "labels")
	}

	logger = logger.Named("generator")

	locale := opts.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	if locale != DefaultLocale {
		logger.Warn("locale not supported by fake-data source, using default",
			zap.String("locale", locale), zap.String("default", DefaultLocale))
		locale = DefaultLocale
	}

	for _, dir := range []string{opts.OutputDir, opts.LabelsDir} {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	faker := gofakeit.New(opts.Seed)
	g := &Generator{
		OutputDir: opts.OutputDir,
		LabelsDir: opts.LabelsDir,
		Locale:    locale,
		faker:     faker,
		rng:       rand.New(faker.Rand),
		fonts:     loadFonts(opts.FontDir, logger),
		logger:    logger,
		now:       time.Now,
	}

	logger.Info("invoice generator initialized", zap.String("locale", locale))
	return g, nil
}

// Generate returns a random, internally consistent invoice. Money is computed
// in cents so that line items add up to the subtotal and subtotal plus tax
// equals the total exactly.
func (g *Generator) Generate() models.Invoice {
	f := g.faker

	now := g.now()
	invoiceDate := f.DateRange(now.AddDate(-1, 0, 0), now)
	dueDate := invoiceDate.AddDate(0, 0, f.IntRange(15, 60))

	numItems := f.IntRange(1, 5)
	items := make([]models.LineItem, 0, numItems)
	var subtotal int64
	for i := 0; i < numItems; i++ {
		qty := f.IntRange(1, 10)
		unit := int64(f.IntRange(1000, 50000))
		amount := int64(qty) * unit
		subtotal += amount
		items = append(items, models.LineItem{
			Description: f.ProductName(),
			Quantity:    qty,
			UnitPrice:   FromCents(unit),
			Amount:      FromCents(amount),
		})
	}

	rate := taxRates[f.IntN(len(taxRates))]
	tax := (subtotal*int64(rate) + 50) / 100
	total := subtotal + tax

	return models.Invoice{
		InvoiceNumber:   fmt.Sprintf("INV-%d", f.IntRange(1000, 9999)),
		InvoiceDate:     invoiceDate.Format("2006-01-02"),
		DueDate:         dueDate.Format("2006-01-02"),
		VendorName:      f.Company(),
		VendorAddress:   f.Address().Address,
		VendorTaxID:     fmt.Sprintf("TAX-%d", f.IntRange(100000, 999999)),
		CustomerName:    f.Name(),
		CustomerAddress: f.Address().Address,
		LineItems:       items,
		Subtotal:        FromCents(subtotal),
		TaxRate:         rate,
		TaxAmount:       FromCents(tax),
		TotalAmount:     FromCents(total),
		Currency:        f.RandomString(currencies),
		PaymentTerms:    fmt.Sprintf("Net %d days", paymentDays[f.IntN(len(paymentDays))]),
		Notes:           "Thank you for your business!",
	}
}

// FromCents converts an integer amount of cents to a decimal value.
func FromCents(c int64) float64 { return float64(c) / 100 }

// Cents converts a decimal amount back to integer cents.
func Cents(v float64) int64 { return int64(math.Round(v * 100)) }

// VerifyTotals checks the arithmetic of an invoice in cents.
func VerifyTotals(inv models.Invoice) error {
	var sum int64
	for _, item := range inv.LineItems {
		if got, want := Cents(item.Amount), int64(item.Quantity)*Cents(item.UnitPrice); got != want {
			return fmt.Errorf("line item %q: amount %d != quantity x unit price %d", item.Description, got, want)
		}
		sum += Cents(item.Amount)
	}
	if sum != Cents(inv.Subtotal) {
		return fmt.Errorf("line items sum to %d cents, subtotal is %d", sum, Cents(inv.Subtotal))
	}
	if Cents(inv.Subtotal)+Cents(inv.TaxAmount) != Cents(inv.TotalAmount) {
		return fmt.Errorf("subtotal %v + tax %v != total %v", inv.Subtotal, inv.TaxAmount, inv.TotalAmount)
	}
	return nil
}
