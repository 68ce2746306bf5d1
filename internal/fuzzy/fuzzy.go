// Package fuzzy suggests the closest known name for a misspelled one.
// It is used for diagnostics only.
package fuzzy

// Distance returns the Levenshtein edit distance between a and b
// (insert, delete and substitute all cost 1). It compares runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// matrix[i][j] is the distance between rb[:i] and ra[:j].
	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = 1 + min(
				matrix[i-1][j-1], // substitute
				matrix[i][j-1],   // insert
				matrix[i-1][j],   // delete
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}

// MaxDistance is the exclusive upper bound on an acceptable suggestion.
const MaxDistance = 3

// Suggest returns the candidate closest to target, or false if none is close
// enough. A candidate qualifies when its distance is below MaxDistance and
// below half the length of target. The smallest distance wins; ties go to
// the earliest candidate.
func Suggest(target string, candidates []string) (string, bool) {
	half := float64(len([]rune(target))) / 2
	best := ""
	bestDist := -1

	for _, c := range candidates {
		d := Distance(target, c)
		if d >= MaxDistance || float64(d) >= half {
			continue
		}
		if bestDist == -1 || d < bestDist {
			best = c
			bestDist = d
		}
	}

	return best, bestDist != -1
}
