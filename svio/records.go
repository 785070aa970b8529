// Package svio reads breakend resolution inputs and writes its results.
//
// Inputs are two TSV files with header rows: one assembly per line, and one
// support read per line keyed by assembly ID. Results are written as TSV
// (breakends, alignments and read annotations) and optionally dumped to a
// recordio file for later re-analysis.
package svio

import (
	"github.com/grailbio/breakend/sv"
)

// BreakendRecord is the flattened form of one breakend.
type BreakendRecord struct {
	Assembly    string
	Index       int
	Chromosome  string
	Position    int
	Orientation int
	Type        string
	SvLength    int
	// Partner is the index of the other breakend, or -1.
	Partner       int
	InsertedBases string
	Homology      string
	// ExactStart, ExactEnd, InexactStart and InexactEnd are the homology
	// offsets, all 0 without homology.
	ExactStart   int
	ExactEnd     int
	InexactStart int
	InexactEnd   int
	Qual         float64
	// Split and Discordant are per-sample fragment counts.
	Split               []int
	Discordant          []int
	ForwardReads        int
	ReverseReads        int
	AvgFragmentLength   float64
	IncompleteFragments int
	Facing              []int
	AltAlignments       []string
}

// AlignmentStatus says how the filter classified an alignment.
type AlignmentStatus string

const (
	Valid   AlignmentStatus = "VALID"
	LowQual AlignmentStatus = "LOWQUAL"
	// Unused alignments were never filtered, because the assembly failed
	// before or during filtering.
	Unused AlignmentStatus = "UNUSED"
)

// AlignmentRecord is the flattened form of one assembly alignment.
type AlignmentRecord struct {
	Assembly        string
	Chromosome      string
	RefStart        int
	RefEnd          int
	Orientation     int
	SequenceStart   int
	SequenceEnd     int
	MapQual         int
	ModifiedMapQual float64
	Score           int
	Cigar           string
	Requeried       bool
	Status          AlignmentStatus
	// SelectedAlt is the alternative location chosen by the rescue, if any.
	SelectedAlt string
}

// ReadRecord is the support annotation of one read.
type ReadRecord struct {
	Assembly       string
	Read           string
	Sample         int
	Support        string
	Breakend       int
	FragmentLength int
}

// Result is the outcome of processing one assembly.
type Result struct {
	Assembly    string
	Sequence    string
	Valid       bool
	BuildFailed bool
	Vetoed      bool
	Breakends   []BreakendRecord
	Alignments  []AlignmentRecord
	Reads       []ReadRecord
}

// NewResult flattens a processed assembly.
func NewResult(asm *sv.AssemblyAlignment) Result {
	res := Result{
		Assembly:    asm.ID,
		Sequence:    string(asm.FullSequence),
		Valid:       asm.IsValid(),
		BuildFailed: asm.BuildFailed,
		Vetoed:      asm.Vetoed,
	}
	for _, b := range asm.Breakends {
		res.Breakends = append(res.Breakends, newBreakendRecord(asm, b))
	}
	status := map[*sv.AlignData]AlignmentStatus{}
	for _, a := range asm.Filtered.Valid {
		status[a] = Valid
	}
	for _, a := range asm.Filtered.LowQual {
		status[a] = LowQual
	}
	for _, a := range asm.Alignments {
		r := AlignmentRecord{
			Assembly:        asm.ID,
			Chromosome:      a.Chromosome,
			RefStart:        a.RefStart,
			RefEnd:          a.RefEnd,
			Orientation:     int(a.Orientation()),
			SequenceStart:   a.SequenceStart,
			SequenceEnd:     a.SequenceEnd,
			MapQual:         a.MapQual,
			ModifiedMapQual: a.ModifiedMapQual,
			Score:           a.Score,
			Cigar:           a.Cigar.String(),
			Requeried:       a.Requeried,
			Status:          Unused,
		}
		if s, ok := status[a]; ok {
			r.Status = s
		}
		if a.SelectedAlt != nil {
			r.SelectedAlt = a.SelectedAlt.String()
		}
		res.Alignments = append(res.Alignments, r)
	}
	for _, r := range asm.Reads {
		res.Reads = append(res.Reads, ReadRecord{
			Assembly:       asm.ID,
			Read:           r.ID,
			Sample:         r.Sample,
			Support:        r.Support.String(),
			Breakend:       r.BreakendIndex,
			FragmentLength: r.InferredFragmentLength,
		})
	}
	return res
}

func newBreakendRecord(asm *sv.AssemblyAlignment, b *sv.Breakend) BreakendRecord {
	r := BreakendRecord{
		Assembly:            asm.ID,
		Index:               b.Index,
		Chromosome:          b.Chromosome,
		Position:            b.Position,
		Orientation:         int(b.Orientation),
		Type:                b.Type.String(),
		SvLength:            b.SvLength(asm),
		Partner:             b.OtherBreakend,
		InsertedBases:       b.InsertedBases,
		Qual:                b.Qual,
		ForwardReads:        b.ForwardReads,
		ReverseReads:        b.ReverseReads,
		AvgFragmentLength:   b.AverageFragmentLength(),
		IncompleteFragments: b.IncompleteFragments,
		Facing:              append([]int(nil), b.Facing...),
	}
	if h := b.Homology; h != nil {
		r.Homology = h.Homology
		r.ExactStart, r.ExactEnd = h.ExactStart, h.ExactEnd
		r.InexactStart, r.InexactEnd = h.InexactStart, h.InexactEnd
	}
	for _, s := range b.Support {
		r.Split = append(r.Split, s.Split)
		r.Discordant = append(r.Discordant, s.Discordant)
	}
	for _, alt := range b.AltAlignments {
		r.AltAlignments = append(r.AltAlignments, alt.String())
	}
	return r
}
