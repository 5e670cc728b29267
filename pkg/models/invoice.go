package models

// Invoice represents a synthetic invoice and doubles as the ground-truth label
// written next to the rendered image.
type Invoice struct {
	InvoiceNumber    string             `json:"invoice_number"`
	InvoiceDate      string             `json:"invoice_date"`
	DueDate          string             `json:"due_date"`
	VendorName       string             `json:"vendor_name"`
	VendorAddress    string             `json:"vendor_address"`
	VendorTaxID      string             `json:"vendor_tax_id"`
	CustomerName     string             `json:"customer_name"`
	CustomerAddress  string             `json:"customer_address"`
	LineItems        []LineItem         `json:"line_items"`
	Subtotal         float64            `json:"subtotal"`
	TaxRate          int                `json:"tax_rate"`
	TaxAmount        float64            `json:"tax_amount"`
	TotalAmount      float64            `json:"total_amount"`
	Currency         string             `json:"currency"`
	PaymentTerms     string             `json:"payment_terms"`
	Notes            string             `json:"notes"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
}

// LineItem represents a single billed line of an invoice
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// TextLine represents a line of text with its position from OCR
type TextLine struct {
	Text   string
	X      int
	Y      int
	Width  int
	Height int
}
