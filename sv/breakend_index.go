package sv

import (
	"math"

	"github.com/biogo/store/llrb"
)

// indexKey orders breakends by position, then by index.
type indexKey struct {
	pos int
	idx int
}

// Compare compares two key objects for use in llrb.
func (k indexKey) Compare(c2 llrb.Comparable) int {
	k2 := c2.(indexKey)
	if diff := k.pos - k2.pos; diff != 0 {
		return diff
	}
	return k.idx - k2.idx
}

// breakendIndex is a per-chromosome ordered index of the breakends of one
// assembly.
type breakendIndex struct {
	breakends []*Breakend
	byChrom   map[string]*llrb.Tree
}

func newBreakendIndex(breakends []*Breakend) *breakendIndex {
	x := &breakendIndex{breakends: breakends, byChrom: map[string]*llrb.Tree{}}
	for _, b := range breakends {
		tree := x.byChrom[b.Chromosome]
		if tree == nil {
			tree = &llrb.Tree{}
			x.byChrom[b.Chromosome] = tree
		}
		tree.Insert(indexKey{pos: b.Position, idx: b.Index})
	}
	return x
}

// closestDownstream returns the first breakend with the given orientation
// at a position in [from, from+maxDistance], or -1.
func (x *breakendIndex) closestDownstream(chrom string, from int, orient Orientation, maxDistance int) int {
	tree := x.byChrom[chrom]
	if tree == nil || maxDistance < 0 {
		return -1
	}
	found := -1
	tree.DoRange(func(c llrb.Comparable) bool {
		k := c.(indexKey)
		if x.breakends[k.idx].Orientation == orient {
			found = k.idx
			return true
		}
		return false
	}, indexKey{pos: from, idx: math.MinInt32}, indexKey{pos: from + maxDistance + 1, idx: math.MinInt32})
	return found
}

// closestUpstream returns the last breakend with the given orientation at a
// position in [from-maxDistance, from], or -1.
func (x *breakendIndex) closestUpstream(chrom string, from int, orient Orientation, maxDistance int) int {
	tree := x.byChrom[chrom]
	if tree == nil || maxDistance < 0 {
		return -1
	}
	found := -1
	tree.DoRangeReverse(func(c llrb.Comparable) bool {
		k := c.(indexKey)
		if x.breakends[k.idx].Orientation == orient {
			found = k.idx
			return true
		}
		return false
	}, indexKey{pos: from, idx: math.MaxInt32}, indexKey{pos: from - maxDistance - 1, idx: math.MaxInt32})
	return found
}
