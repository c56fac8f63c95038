package ontology

import (
	"sort"
	"strings"
)

// FuzzyThreshold is the inclusive minimum token-sort score for the fuzzy
// tier.  A key scoring exactly the threshold is kept.
const FuzzyThreshold = 0.85

// Scorer measures string similarity in [0, 1] for the fuzzy tier.
type Scorer interface {
	Score(a, b string) float64
}

// TokenSortScorer scores by token-sort ratio: both inputs are split on
// whitespace, token-sorted, rejoined, and compared by normalized indel
// distance.  Word order therefore never affects the score.
type TokenSortScorer struct{}

// Score implements Scorer.
func (TokenSortScorer) Score(a, b string) float64 {
	return TokenSortRatio(a, b)
}

// TokenSortRatio returns the order-independent similarity of a and b.
// Two strings with identical token multisets score 1.0.
func TokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// ratio is (len(a)+len(b)-dist)/(len(a)+len(b)) where dist is the
// insert/delete edit distance.  Two empty strings are identical.
func ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return float64(total-indelDistance(ra, rb)) / float64(total)
}

// indelDistance is edit distance with insertions and deletions only,
// computed as len(a)+len(b)-2*LCS(a,b) with a two-row DP.
func indelDistance(a, b []rune) int {
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
	return len(a) + len(b) - 2*prev[len(b)]
}
