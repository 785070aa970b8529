package sv

import (
	"github.com/grailbio/hts/sam"
)

// cigarIndel is an insertion or deletion found in a CIGAR.
type cigarIndel struct {
	// OpIndex is the index of the indel operation in the CIGAR.
	OpIndex int
	// Insertion is true for 'I', false for 'D'.
	Insertion bool
	Length    int
	// RefBefore is the 1-based reference position of the last aligned base
	// before the indel.
	RefBefore int
	// QueryBefore is the 0-based index, in CIGAR order, of the last aligned
	// query base before the indel. Clips are included in the count.
	QueryBefore int
	// LeftAligned and RightAligned are the numbers of aligned query bases on
	// either side of the indel.
	LeftAligned  int
	RightAligned int
}

func consumesQuery(t sam.CigarOpType) bool {
	switch t {
	case sam.CigarMatch, sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarEqual, sam.CigarMismatch:
		return true
	}
	return false
}

func consumesRef(t sam.CigarOpType) bool {
	switch t {
	case sam.CigarMatch, sam.CigarDeletion, sam.CigarSkipped, sam.CigarEqual, sam.CigarMismatch:
		return true
	}
	return false
}

func isAligned(t sam.CigarOpType) bool {
	return t == sam.CigarMatch || t == sam.CigarEqual || t == sam.CigarMismatch
}

func isClip(t sam.CigarOpType) bool {
	return t == sam.CigarSoftClipped || t == sam.CigarHardClipped
}

// cigarClips returns the lengths of the soft or hard clips at both ends of
// the CIGAR.
func cigarClips(cigar sam.Cigar) (left, right int) {
	if len(cigar) == 0 {
		return 0, 0
	}
	for i := 0; i < len(cigar) && isClip(cigar[i].Type()); i++ {
		left += cigar[i].Len()
	}
	for i := len(cigar) - 1; i >= 0 && isClip(cigar[i].Type()); i-- {
		right += cigar[i].Len()
	}
	return left, right
}

// cigarAlignedBases sums the lengths of the match operations.
func cigarAlignedBases(cigar sam.Cigar) int {
	n := 0
	for _, op := range cigar {
		if isAligned(op.Type()) {
			n += op.Len()
		}
	}
	return n
}

// cigarRefLength is the number of reference bases covered by the CIGAR.
func cigarRefLength(cigar sam.Cigar) int {
	n := 0
	for _, op := range cigar {
		if consumesRef(op.Type()) {
			n += op.Len()
		}
	}
	return n
}

// cigarQueryLength is the number of query bases consumed by the CIGAR,
// excluding clips.
func cigarQueryLength(cigar sam.Cigar) int {
	n := 0
	for _, op := range cigar {
		if consumesQuery(op.Type()) && op.Type() != sam.CigarSoftClipped {
			n += op.Len()
		}
	}
	return n
}

// cigarIndels lists the insertions and deletions of at least minLength bases.
// refStart is the 1-based position of the first aligned reference base.
func cigarIndels(cigar sam.Cigar, refStart, minLength int) []cigarIndel {
	var (
		indels    []cigarIndel
		refPos    = refStart - 1
		queryPos  = -1
		aligned   = 0
		totalAlnd = cigarAlignedBases(cigar)
	)
	for i, op := range cigar {
		t := op.Type()
		if (t == sam.CigarInsertion || t == sam.CigarDeletion) && op.Len() >= minLength {
			indels = append(indels, cigarIndel{
				OpIndex:      i,
				Insertion:    t == sam.CigarInsertion,
				Length:       op.Len(),
				RefBefore:    refPos,
				QueryBefore:  queryPos,
				LeftAligned:  aligned,
				RightAligned: totalAlnd - aligned,
			})
		}
		if consumesRef(t) {
			refPos += op.Len()
		}
		if consumesQuery(t) || t == sam.CigarHardClipped {
			queryPos += op.Len()
		}
		if isAligned(t) {
			aligned += op.Len()
		}
	}
	return indels
}
