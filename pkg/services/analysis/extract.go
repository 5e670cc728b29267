package analysis

import (
	"regexp"
	"strings"
)

// fieldHints are label patterns printed on the rendered invoices. The first
// capture group is the candidate value.
var fieldHints = map[string][]*regexp.Regexp{
	"invoice_number": {
		regexp.MustCompile(`(?i)invoice\s*#?\s*:?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)(INV-\d+)`),
	},
	"invoice_date": {
		regexp.MustCompile(`(?i)date\s*:?\s*(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(?i)date\s*:?\s*(\d{2}/\d{2}/\d{4})`),
	},
	"vendor_name": {
		regexp.MustCompile(`(?im)from\s*:?\s*([^\n]+)`),
	},
	"total_amount": {
		regexp.MustCompile(`(?i)total\s*:?\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?m)(\d+\.\d{2})\s*[A-Z]{3}$`),
	},
}

// Extract looks for the value of field in OCR text. It is an approximation,
// not a layout-aware parser: candidates are the captures of the field's hint
// patterns and, for every line, the substring closest to expected with a
// length within one rune of it. The candidate most similar to expected wins;
// earlier candidates win ties. It returns "" when nothing resembles expected.
func Extract(fullText, field, expected string) string {
	if strings.TrimSpace(fullText) == "" {
		return ""
	}

	best, bestSim := "", 0.0
	consider := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return
		}
		if sim := Similarity(expected, candidate); sim > bestSim {
			best, bestSim = candidate, sim
		}
	}

	for _, re := range fieldHints[field] {
		for _, m := range re.FindAllStringSubmatch(fullText, -1) {
			consider(m[1])
		}
	}

	target := len([]rune(normalize(expected)))
	if target == 0 {
		return best
	}
	for _, line := range strings.Split(fullText, "\n") {
		consider(bestWindow(line, expected, target))
	}
	return best
}

// bestWindow slides windows of target-1 to target+1 runes over line and
// returns the one most similar to expected.
func bestWindow(line, expected string, target int) string {
	runes := []rune(strings.TrimSpace(line))
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= target+1 {
		return string(runes)
	}

	best, bestSim := "", -1.0
	for size := max(target-1, 1); size <= target+1; size++ {
		for start := 0; start+size <= len(runes); start++ {
			window := string(runes[start : start+size])
			if sim := Similarity(expected, window); sim > bestSim {
				best, bestSim = window, sim
			}
		}
	}
	return best
}
