package render

// DefaultIndentUnit is used when a block has too little indentation to measure.
const DefaultIndentUnit = 2

// DetectIndent infers how many spaces one nesting level uses in text.
//
// Only leading spaces count; tabs are ignored and unindented lines are
// skipped entirely rather than treated as depth zero. The absolute
// difference between each pair of consecutive measured depths is tallied
// and the most frequent non-zero difference wins, the smaller one on a tie.
// The result is a heuristic and falls back to DefaultIndentUnit.
func DetectIndent(text string) int {
	var depths []int
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		if n := leadingSpaces(text[start:i]); n > 0 {
			depths = append(depths, n)
		}
		start = i + 1
	}

	if len(depths) < 2 {
		return DefaultIndentUnit
	}

	counts := make(map[int]int)
	for i := 1; i < len(depths); i++ {
		diff := depths[i] - depths[i-1]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0 {
			counts[diff]++
		}
	}

	best, bestCount := 0, 0
	for diff, count := range counts {
		if count > bestCount || (count == bestCount && diff < best) {
			best, bestCount = diff, count
		}
	}
	if best == 0 {
		return DefaultIndentUnit
	}
	return best
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}
