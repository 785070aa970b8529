package sv

const maxRepeatUnit = 6

// minRepeatCount is the minimum number of consecutive copies of a unit that
// forms a tandem repeat.
func minRepeatCount(unit int) int {
	if unit == 1 {
		return 5
	}
	return 3
}

// markRepeatRedundancy flags the bases of seq that are redundant copies in a
// short tandem repeat: every base of a repeat except its first unit.
func markRepeatRedundancy(seq []byte) []bool {
	marked := make([]bool, len(seq))
	for unit := 1; unit <= maxRepeatUnit && unit < len(seq); unit++ {
		minCount := minRepeatCount(unit)
		runStart := unit
		for j := unit; j <= len(seq); j++ {
			if j < len(seq) && seq[j] == seq[j-unit] {
				continue
			}
			// The repeat covers [runStart-unit, j).
			if (j-runStart+unit)/unit >= minCount {
				for k := runStart; k < j; k++ {
					marked[k] = true
				}
			}
			runStart = j + 1
		}
	}
	return marked
}

// countMarked counts the true entries of marked[start:end], clamped to the
// array bounds.
func countMarked(marked []bool, start, end int) int {
	if start < 0 {
		start = 0
	}
	if end > len(marked) {
		end = len(marked)
	}
	n := 0
	for i := start; i < end; i++ {
		if marked[i] {
			n++
		}
	}
	return n
}
