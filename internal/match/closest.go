package match

import (
	"slices"
)

// Threshold is the minimum similarity for a candidate to be suggested.
const Threshold = 0.6

// Closest returns the candidate most similar to name, if any reaches
// Threshold. Ties go to the lexically smaller candidate.
func Closest(name string, candidates []string) (string, bool) {
	var (
		best      string
		bestScore float64
	)

	sorted := slices.Clone(candidates)
	slices.Sort(sorted)

	for _, c := range sorted {
		if c == name {
			continue
		}

		if score := Similarity(name, c); score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < Threshold {
		return "", false
	}

	return best, true
}
