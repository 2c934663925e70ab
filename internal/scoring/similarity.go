package scoring

// Similarity returns the Jaro similarity of a and b in [0, 1], comparing runes.
// Equal strings, including two empty ones, score exactly 1.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	window := max(len1, len2)/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0
	for i := range len1 {
		start := max(0, i-window)
		end := min(i+window+1, len2)
		for j := start; j < end; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range len1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len1) + m/float64(len2) + (m-t)/m) / 3
}
