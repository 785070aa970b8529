package sv

import (
	"github.com/grailbio/hts/sam"
)

// SupportType says how a read supports a breakend.
type SupportType uint8

const (
	NoSupport SupportType = iota
	SplitSupport
	DiscordantSupport
)

func (t SupportType) String() string {
	switch t {
	case SplitSupport:
		return "SPLIT"
	case DiscordantSupport:
		return "DISCORDANT"
	}
	return "NONE"
}

// SupportRead is a sequencing read that contributed to an assembly.
type SupportRead struct {
	ID     string
	Sample int
	Flags  sam.Flags
	// Chromosome, UnclippedStart and UnclippedEnd are the read's reference
	// span including soft clips, 1-based inclusive.
	Chromosome     string
	UnclippedStart int
	UnclippedEnd   int
	// SoftClipLeft and SoftClipRight are in reference order.
	SoftClipLeft  int
	SoftClipRight int
	InsertSize    int
	// FullIndexStart and FullIndexEnd are the read's span in the full
	// assembly sequence, or -1 if unknown.
	FullIndexStart int
	FullIndexEnd   int
	// ExtensionLength is the number of read bases that extend the assembly
	// past its anchored junction.
	ExtensionLength int

	// Support, BreakendIndex and InferredFragmentLength are set by
	// AllocateFragments. BreakendIndex is -1 for unassigned reads.
	Support                SupportType
	BreakendIndex          int
	InferredFragmentLength int
}

// IsFirstInPair checks the read-1 flag.
func (r *SupportRead) IsFirstInPair() bool { return r.Flags&sam.Read1 != 0 }

// IsSupplementary checks the supplementary flag.
func (r *SupportRead) IsSupplementary() bool { return r.Flags&sam.Supplementary != 0 }

// Orientation returns Reverse for reads on the reverse strand.
func (r *SupportRead) Orientation() Orientation {
	if r.Flags&sam.Reverse != 0 {
		return Reverse
	}
	return Forward
}

func (r *SupportRead) hasFullIndex() bool { return r.FullIndexStart >= 0 && r.FullIndexEnd >= r.FullIndexStart }

// SubAssembly is one junction assembly merged into an AssemblyAlignment.
type SubAssembly struct {
	ID string
	// Chromosome, Position and Orientation describe the junction the
	// assembly was seeded from.
	Chromosome  string
	Position    int
	Orientation Orientation
}

// ExpectedIndel is the indel implied by a phase link between two assemblies
// of the same local variant.
type ExpectedIndel struct {
	Deletion bool
	Length   int
}

// DeclaredFacing is a facing link between two junctions established by the
// phasing stage.
type DeclaredFacing struct {
	ChromosomeA  string
	PositionA    int
	OrientationA Orientation
	ChromosomeB  string
	PositionB    int
	OrientationB Orientation
}

// AssemblyAlignment holds the alignment state of one assembled locus. It is
// owned by a single worker from alignment to output.
type AssemblyAlignment struct {
	ID            string
	FullSequence  []byte
	SubAssemblies []SubAssembly
	// Linked is true if the assembly is part of a phase link.
	Linked bool
	// PhaseChainLength is the number of assemblies in the phase chain this
	// assembly belongs to.
	PhaseChainLength int
	// ExpectedIndel is set when the assembly is one side of a simple
	// two-assembly local indel link.
	ExpectedIndel  *ExpectedIndel
	DeclaredFacing []DeclaredFacing
	Reads          []SupportRead

	// Alignments are all normalized alignments, including requeried ones.
	Alignments []*AlignData
	Filtered   FilterResult
	Breakends  []*Breakend
	// Segment count, used to number BreakendSegments.
	numSegments int
	BuildFailed bool
	Vetoed      bool
}

// FullLength is the length of the assembly sequence.
func (asm *AssemblyAlignment) FullLength() int { return len(asm.FullSequence) }

// IsValid checks that the assembly produced at least one breakend.
func (asm *AssemblyAlignment) IsValid() bool {
	return !asm.BuildFailed && !asm.Vetoed && len(asm.Breakends) > 0
}

func (asm *AssemblyAlignment) newSegment(a *AlignData, seqIndex int, junctionFollows bool) BreakendSegment {
	s := BreakendSegment{
		Alignment:       a,
		SequenceIndex:   seqIndex,
		JunctionFollows: junctionFollows,
		Index:           asm.numSegments,
		IndelSeqStart:   -1,
		IndelSeqEnd:     -1,
	}
	asm.numSegments++
	return s
}

// addBreakend appends b and assigns its index.
func (asm *AssemblyAlignment) addBreakend(b *Breakend) int {
	b.Index = len(asm.Breakends)
	asm.Breakends = append(asm.Breakends, b)
	return b.Index
}

// linkPair sets first and second as each other's partner and classifies
// them.
func (asm *AssemblyAlignment) linkPair(first, second *Breakend) {
	first.OtherBreakend, second.OtherBreakend = second.Index, first.Index
	lower, upper := first, second
	if compareLocations(second.Chromosome, second.Position, first.Chromosome, first.Position) < 0 {
		lower, upper = second, first
	}
	t := classifySvType(lower, upper)
	first.Type, second.Type = t, t
}
