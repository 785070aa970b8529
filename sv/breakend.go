package sv

import (
	"fmt"
	"strings"
)

// SvType classifies a breakend by its relation to its partner.
type SvType uint8

const (
	SvUnknown SvType = iota
	DEL
	DUP
	INS
	INV
	BND
	SGL
)

var svTypeNames = [...]string{"UNKNOWN", "DEL", "DUP", "INS", "INV", "BND", "SGL"}

func (t SvType) String() string {
	if int(t) < len(svTypeNames) {
		return svTypeNames[t]
	}
	return fmt.Sprintf("SvType(%d)", t)
}

// isLocalIndel checks if the type is a short-range deletion, duplication or
// insertion.
func (t SvType) isLocalIndel() bool { return t == DEL || t == DUP || t == INS }

// BreakendSegment is the part of an alignment that produced a breakend.
type BreakendSegment struct {
	Alignment *AlignData
	// SequenceIndex is the assembly index of the last base before the
	// junction when JunctionFollows, otherwise of the first base after it.
	SequenceIndex   int
	JunctionFollows bool
	// Index is the segment's ordinal among all segments of the assembly.
	Index int
	// IndelSeqStart and IndelSeqEnd are the assembly indices of the aligned
	// bases bracketing an indel, or -1 for breakends not formed from an
	// indel.
	IndelSeqStart int
	IndelSeqEnd   int
}

// SampleSupport counts the fragments of one sample supporting a breakend.
type SampleSupport struct {
	Split      int
	Discordant int
}

// Breakend is one side of a structural variant. Breakends refer to each
// other by index into AssemblyAlignment.Breakends.
type Breakend struct {
	Index       int
	Chromosome  string
	Position    int
	Orientation Orientation
	// InsertedBases are the non-reference bases at the junction, in
	// reference-forward orientation.
	InsertedBases string
	Homology      *HomologyData
	Segments      []BreakendSegment
	// OtherBreakend is the index of the partner, or -1 for single breakends.
	OtherBreakend int
	// Facing lists the indices of facing breakends.
	Facing []int
	// AltAlignments are the alternative placements of low-confidence anchors
	// and of low-quality alignments adjacent to the junction.
	AltAlignments []AlternativeAlignment
	Type          SvType
	// Qual is the lowest modified mapping quality of the anchors.
	Qual float64

	Support             []SampleSupport
	ForwardReads        int
	ReverseReads        int
	FragLengthTotal     int
	FragLengthCount     int
	IncompleteFragments int
}

func newBreakend(chrom string, pos int, orient Orientation, numSamples int) *Breakend {
	return &Breakend{
		Chromosome:    chrom,
		Position:      pos,
		Orientation:   orient,
		OtherBreakend: -1,
		Support:       make([]SampleSupport, max(1, numSamples)),
	}
}

// IsSingle checks if the breakend has no partner.
func (b *Breakend) IsSingle() bool { return b.OtherBreakend < 0 }

// SvLength is the number of deleted, duplicated or inverted reference bases
// plus the inserted bases, and 0 for translocations and single breakends.
func (b *Breakend) SvLength(asm *AssemblyAlignment) int {
	if b.OtherBreakend < 0 {
		return 0
	}
	dist := abs(asm.Breakends[b.OtherBreakend].Position - b.Position)
	switch b.Type {
	case INS:
		return len(b.InsertedBases)
	case DEL:
		return dist - 1 + len(b.InsertedBases)
	case DUP:
		return dist + 1 + len(b.InsertedBases)
	case INV:
		return dist + len(b.InsertedBases)
	}
	return 0
}

// AverageFragmentLength is the mean inferred length of the supporting
// fragments, or 0 if there are none.
func (b *Breakend) AverageFragmentLength() float64 {
	if b.FragLengthCount == 0 {
		return 0
	}
	return float64(b.FragLengthTotal) / float64(b.FragLengthCount)
}

// TotalSupport sums split and discordant fragments over all samples.
func (b *Breakend) TotalSupport() (split, discordant int) {
	for _, s := range b.Support {
		split += s.Split
		discordant += s.Discordant
	}
	return
}

func (b *Breakend) sameLocation(chrom string, pos int, orient Orientation) bool {
	return b.Chromosome == chrom && b.Position == pos && b.Orientation == orient
}

func (b *Breakend) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%s:%d:%s %s", b.Index, b.Chromosome, b.Position, b.Orientation, b.Type)
	if b.InsertedBases != "" {
		fmt.Fprintf(&sb, " ins=%s", b.InsertedBases)
	}
	if b.Homology != nil {
		fmt.Fprintf(&sb, " hom=%v", *b.Homology)
	}
	if b.OtherBreakend >= 0 {
		fmt.Fprintf(&sb, " other=%d", b.OtherBreakend)
	}
	return sb.String()
}

// classifySvType determines the type of a linked pair. lower is the breakend
// with the lower genomic location.
func classifySvType(lower, upper *Breakend) SvType {
	if lower.Chromosome != upper.Chromosome {
		return BND
	}
	if lower.Orientation == upper.Orientation {
		return INV
	}
	if lower.Orientation == Forward {
		if upper.Position-lower.Position == 1 && lower.InsertedBases != "" {
			return INS
		}
		return DEL
	}
	return DUP
}
