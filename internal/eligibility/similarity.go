package eligibility

import "strings"

// StringSimilarity scores two strings in [0, 1] with a positional
// character-overlap heuristic: case-insensitive, identical strings score
// 1.0, otherwise the count of positions where both strings carry the same
// character divided by the longer string's length. A cheap positional
// heuristic, not an edit distance.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}

// ArraySimilarity is the maximum pairwise StringSimilarity across the
// Cartesian product of the two slices. Empty input on either side scores 0.
func ArraySimilarity(first, second []string) float64 {
	if len(first) == 0 || len(second) == 0 {
		return 0
	}
	maxSim := 0.0
	for _, a := range first {
		for _, b := range second {
			if sim := StringSimilarity(a, b); sim > maxSim {
				maxSim = sim
			}
		}
	}
	return maxSim
}
