package hangul

// Distance returns the Levenshtein distance between the jamo decompositions
// of a and b. Insertions, deletions and substitutions each cost 1.
func Distance(a, b string) int {
	return distance(DecomposeString(a), DecomposeString(b))
}

// Similarity returns 1 - Distance(a, b) / max(len(jamo(a)), len(jamo(b))),
// clamped to [0, 1].
//
// Equal strings, including two empty strings, score 1. Exactly one empty
// string scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return SimilarityRunes(DecomposeString(a), DecomposeString(b))
}

// SimilarityRunes is Similarity over already decomposed sequences. Callers
// that compare one query against many candidates decompose each side once and
// use this form.
func SimilarityRunes(a, b []rune) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}
	longest := max(la, lb)
	score := 1 - float64(distance(a, b))/float64(longest)
	return min(max(score, 0), 1)
}

// distance computes edit distance with two rolling rows sized to the shorter
// input.
func distance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
