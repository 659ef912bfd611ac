package reconciliation

import (
	"math"
	"strings"
)

// DefaultThreshold is the minimum similarity score treated as a match.
const DefaultThreshold = 85

// Ratio scores how alike two strings are on a 0-100 scale, case
// insensitively. 100 is an exact match. Substitutions count double, so
// one swap costs the same as a delete plus an insert.
func Ratio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(total-editDistance(ra, rb)) / float64(total) * 100))
}

// BestMatch returns the candidate most similar to name, provided the
// score reaches threshold. Ties keep the earlier candidate.
func BestMatch(name string, candidates []string, threshold int) (string, int, bool) {
	best := ""
	bestScore := 0
	for _, c := range candidates {
		if score := Ratio(name, c); score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < threshold {
		return "", bestScore, false
	}
	return best, bestScore, true
}

func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 2
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}
