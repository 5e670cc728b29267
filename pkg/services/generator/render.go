package generator

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"docintel/pkg/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pageWidth  = 800
	pageHeight = 1000
	margin     = 40

	sizeTitle  = 32
	sizeNormal = 16
	sizeSmall  = 12
)

// loadFonts tries the DejaVu faces in dir first, then the Go fonts bundled
// with x/image, then the fixed bitmap face.
func loadFonts(dir string, logger *zap.Logger) fontSet {
	load := func(file string, fallback []byte, size float64) font.Face {
		if dir != "" {
			face, err := gg.LoadFontFace(filepath.Join(dir, file), size)
			if err == nil {
				return face
			}
			logger.Debug("font not available, using fallback", zap.String("font", file), zap.Error(err))
		}
		parsed, err := truetype.Parse(fallback)
		if err != nil {
			logger.Warn("embedded font unusable, using bitmap face", zap.Error(err))
			return basicfont.Face7x13
		}
		return truetype.NewFace(parsed, &truetype.Options{Size: size})
	}

	return fontSet{
		title:  load("DejaVuSans-Bold.ttf", gobold.TTF, sizeTitle),
		normal: load("DejaVuSans.ttf", goregular.TTF, sizeNormal),
		small:  load("DejaVuSans.ttf", goregular.TTF, sizeSmall),
	}
}

// Render draws the invoice on a white page.
func (g *Generator) Render(inv models.Invoice) image.Image {
	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	text := func(face font.Face, s string, x, y float64) {
		dc.SetFontFace(face)
		dc.DrawStringAnchored(s, x, y, 0, 1)
	}

	x := float64(margin)
	y := float64(margin)

	text(g.fonts.title, "INVOICE", x, y)
	y += 60

	text(g.fonts.normal, "Invoice #: "+inv.InvoiceNumber, x, y)
	y += 25
	text(g.fonts.normal, "Date: "+inv.InvoiceDate, x, y)
	y += 25
	text(g.fonts.normal, "Due Date: "+inv.DueDate, x, y)
	y += 40

	text(g.fonts.normal, "FROM:", x, y)
	y += 25
	text(g.fonts.small, inv.VendorName, x, y)
	y += 20
	for _, line := range wrapText(inv.VendorAddress, 50) {
		text(g.fonts.small, line, x, y)
		y += 18
	}
	text(g.fonts.small, "Tax ID: "+inv.VendorTaxID, x, y)
	y += 35

	text(g.fonts.normal, "TO:", x, y)
	y += 25
	text(g.fonts.small, inv.CustomerName, x, y)
	y += 20
	for _, line := range wrapText(inv.CustomerAddress, 50) {
		text(g.fonts.small, line, x, y)
		y += 18
	}
	y += 25

	text(g.fonts.normal, "Description", x, y)
	text(g.fonts.normal, "Qty", x+300, y)
	text(g.fonts.normal, "Price", x+380, y)
	text(g.fonts.normal, "Amount", x+500, y)
	y += 30

	for _, item := range inv.LineItems {
		text(g.fonts.small, truncateText(item.Description, 30), x, y)
		text(g.fonts.small, strconv.Itoa(item.Quantity), x+300, y)
		text(g.fonts.small, money(item.UnitPrice), x+380, y)
		text(g.fonts.small, money(item.Amount), x+500, y)
		y += 25
	}
	y += 20

	text(g.fonts.normal, "Subtotal:", x+380, y)
	text(g.fonts.normal, money(inv.Subtotal)+" "+inv.Currency, x+500, y)
	y += 25
	text(g.fonts.normal, fmt.Sprintf("Tax (%d%%):", inv.TaxRate), x+380, y)
	text(g.fonts.normal, money(inv.TaxAmount)+" "+inv.Currency, x+500, y)
	y += 25
	text(g.fonts.normal, "TOTAL:", x+380, y)
	text(g.fonts.normal, money(inv.TotalAmount)+" "+inv.Currency, x+500, y)
	y += 40

	text(g.fonts.small, "Payment Terms: "+inv.PaymentTerms, x, y)
	y += 25
	text(g.fonts.small, inv.Notes, x, y)

	return dc.Image()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// wrapText breaks text into lines of at most maxChars characters at word
// boundaries. Words longer than maxChars get a line of their own.
func wrapText(text string, maxChars int) []string {
	var lines []string
	var current []string
	length := 0
	for _, word := range strings.Fields(text) {
		n := len([]rune(word))
		if len(current) > 0 && length+1+n > maxChars {
			lines = append(lines, strings.Join(current, " "))
			current, length = nil, 0
		}
		if len(current) > 0 {
			length++
		}
		current = append(current, word)
		length += n
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

func truncateText(text string, maxChars int) string {
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars-3]) + "..."
}
