package sv

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// RefSource provides reference bases. Coordinates are 0-based half-open, as
// in refgenome.Fasta.
type RefSource interface {
	Get(seqName string, start, end uint64) (string, error)
}

// HomologyData describes the ambiguous bases at a junction. The bounds are
// offsets from the breakend position: ExactStart and InexactStart are <= 0,
// ExactEnd and InexactEnd are >= 0.
type HomologyData struct {
	Homology     string
	ExactStart   int
	ExactEnd     int
	InexactStart int
	InexactEnd   int
}

// IsSymmetrical checks if the exact homology is split evenly around the
// breakend position.
func (h HomologyData) IsSymmetrical() bool { return abs(h.ExactStart) == h.ExactEnd }

// Length is the number of exact homology bases.
func (h HomologyData) Length() int { return abs(h.ExactStart) + h.ExactEnd }

// PositionAdjustment is the shift that moves a nominal breakend position to
// the homology-centred position.
func (h HomologyData) PositionAdjustment(orient Orientation) int {
	if orient == Forward {
		return -abs(h.InexactEnd)
	}
	return abs(h.InexactStart)
}

// Invert expresses the homology from the other strand. reversePositions
// mirrors the bounds and reverseBases reverse-complements the bases.
func (h HomologyData) Invert(reversePositions, reverseBases bool) HomologyData {
	out := h
	if reversePositions {
		out.ExactStart, out.ExactEnd = -h.ExactEnd, abs(h.ExactStart)
		out.InexactStart, out.InexactEnd = -h.InexactEnd, abs(h.InexactStart)
	}
	if reverseBases {
		out.Homology = reverseComplement(h.Homology)
	}
	return out
}

// shiftCentre moves the split point one base towards the start, which gives
// the end side the extra base of an odd-length homology.
func (h HomologyData) shiftCentre() HomologyData {
	h.ExactStart++
	h.ExactEnd++
	h.InexactStart++
	h.InexactEnd++
	return h
}

func (h HomologyData) String() string {
	return fmt.Sprintf("%s exact(%d,%d) inexact(%d,%d)", h.Homology, h.ExactStart, h.ExactEnd, h.InexactStart, h.InexactEnd)
}

// DetermineHomology computes the homology at the junction of two alignments
// whose assembly spans overlap, in assembly orientation. The bounds are
// relative to the chosen split point; PositionAdjustment moves the nominal
// end of each alignment onto it. It returns nil if the spans do not overlap
// or the overlap is inconsistent with either span.
func DetermineHomology(fullSeq []byte, left, right *AlignData) *HomologyData {
	overlapStart, overlapEnd := right.SequenceStart, left.SequenceEnd
	n := overlapEnd - overlapStart + 1
	if n <= 0 {
		return nil
	}
	if overlapStart < left.SequenceStart || overlapEnd > right.SequenceEnd || overlapEnd >= len(fullSeq) {
		log.Debug.Printf("homology: overlap %d-%d inconsistent with %v and %v", overlapStart, overlapEnd, left, right)
		return nil
	}
	a, b := 0, n
	lm, rm := left.mismatchFlags(), right.mismatchFlags()
	if lm != nil || rm != nil {
		a, b = bestSplitRun(lm, overlapStart-left.SequenceStart, rm, n)
	}
	c := a + (b-a+1)/2
	return &HomologyData{
		Homology:     string(fullSeq[overlapStart+a : overlapStart+b]),
		ExactStart:   -(c - a),
		ExactEnd:     b - c,
		InexactStart: -c,
		InexactEnd:   n - c,
	}
}

// bestSplitRun scans the n+1 split points of an overlap of n bases. Split
// point k assigns overlap bases [0,k) to the left alignment and [k,n) to the
// right one. It returns the longest contiguous run [a,b] of split points with
// the fewest total mismatches. leftOffset is the index of the first overlap
// base in leftMismatches. A nil array has no mismatches.
func bestSplitRun(leftMismatches []bool, leftOffset int, rightMismatches []bool, n int) (int, int) {
	isMismatch := func(m []bool, i int) bool { return m != nil && i < len(m) && m[i] }
	rightTotal := 0
	for i := 0; i < n; i++ {
		if isMismatch(rightMismatches, i) {
			rightTotal++
		}
	}
	costs := make([]int, n+1)
	leftCount, rightCount := 0, 0
	for k := 0; k <= n; k++ {
		costs[k] = leftCount + rightTotal - rightCount
		if k < n {
			if isMismatch(leftMismatches, leftOffset+k) {
				leftCount++
			}
			if isMismatch(rightMismatches, k) {
				rightCount++
			}
		}
	}
	minCost := costs[0]
	for _, c := range costs {
		if c < minCost {
			minCost = c
		}
	}
	bestA, bestB := -1, -1
	for k := 0; k <= n; {
		if costs[k] != minCost {
			k++
			continue
		}
		runStart := k
		for k <= n && costs[k] == minCost {
			k++
		}
		if bestA < 0 || k-1-runStart > bestB-bestA {
			bestA, bestB = runStart, k-1
		}
	}
	return bestA, bestB
}

// refBases returns the 1-based inclusive reference range [start, end].
func refBases(ref RefSource, chrom string, start, end int) (string, bool) {
	if ref == nil || start < 1 || end < start {
		return "", false
	}
	s, err := ref.Get(chrom, uint64(start-1), uint64(end))
	if err != nil {
		log.Debug.Printf("homology: reference %s:%d-%d: %v", chrom, start, end, err)
		return "", false
	}
	return s, true
}

// sharedPrefixLength compares bases ignoring case, since soft-masked
// reference bases are lowercase.
func sharedPrefixLength(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i]|0x20 != b[i]|0x20 {
			return i
		}
	}
	return n
}

// centredHomology builds the homology of h shared bases starting at the
// nominal position, centred so that the start side gets the extra base.
func centredHomology(bases string, h int) *HomologyData {
	if h == 0 {
		return nil
	}
	s := (h + 1) / 2
	return &HomologyData{
		Homology:     bases[:h],
		ExactStart:   -s,
		ExactEnd:     h - s,
		InexactStart: -s,
		InexactEnd:   h - s,
	}
}

// DetermineIndelHomology computes the homology of a CIGAR indel whose last
// aligned base before the indel is the 1-based position refBefore. For a
// deletion of n bases it compares the deleted bases with the n reference bases
// that follow them; for an insertion it compares the inserted bases with the
// reference bases after refBefore. The homology is the shared leading run. It
// returns nil when no reference is available, the reference cannot be read or
// no bases are shared.
func DetermineIndelHomology(ref RefSource, chrom string, refBefore int, insertion bool, length int, inserted string) *HomologyData {
	if ref == nil || length <= 0 {
		return nil
	}
	var first, second string
	var ok bool
	if insertion {
		if len(inserted) != length {
			return nil
		}
		first = inserted
		if second, ok = refBases(ref, chrom, refBefore+1, refBefore+length); !ok {
			return nil
		}
	} else {
		if first, ok = refBases(ref, chrom, refBefore+1, refBefore+length); !ok {
			return nil
		}
		if second, ok = refBases(ref, chrom, refBefore+length+1, refBefore+2*length); !ok {
			return nil
		}
	}
	if len(first) != len(second) {
		log.Debug.Printf("homology: mismatched indel windows at %s:%d (%d vs %d)", chrom, refBefore, len(first), len(second))
		return nil
	}
	return centredHomology(first, sharedPrefixLength(first, second))
}

// determineDupHomology computes the homology of a tandem duplication of the
// 1-based range [start, end] against the reference that follows it.
func determineDupHomology(ref RefSource, chrom string, start, end int) *HomologyData {
	length := end - start + 1
	dup, ok := refBases(ref, chrom, start, end)
	if !ok {
		return nil
	}
	next, ok := refBases(ref, chrom, end+1, end+length)
	if !ok || len(dup) != len(next) {
		return nil
	}
	return centredHomology(dup, sharedPrefixLength(dup, next))
}
