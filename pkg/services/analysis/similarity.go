package analysis

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Threshold is the similarity at or above which a field counts as correct.
const Threshold = 0.85

// Similarity returns 2*LCS/(len(a)+len(b)) over the lower-cased, trimmed
// inputs, counted in runes. It is symmetric, 1 for identical non-empty
// strings and 0 when either side is empty. Inputs that trim to nothing on
// both sides are identical and score 1.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra := []rune(normalize(a))
	rb := []rune(normalize(b))
	switch {
	case len(ra) == 0 && len(rb) == 0:
		return 1
	case len(ra) == 0 || len(rb) == 0:
		return 0
	}
	return 2 * float64(lcs(ra, rb)) / float64(len(ra)+len(rb))
}

// IsCorrect reports whether sim reaches Threshold.
func IsCorrect(sim float64) bool {
	return sim >= Threshold
}

// CharErrorRate is the edit distance between the normalized strings divided
// by the ground truth length.
func CharErrorRate(groundTruth, extracted string) float64 {
	gt := normalize(groundTruth)
	ex := normalize(extracted)
	n := len([]rune(gt))
	if n == 0 {
		if ex == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.ComputeDistance(gt, ex)) / float64(n)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// lcs is the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
