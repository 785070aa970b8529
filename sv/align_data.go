package sv

import (
	"fmt"
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// Orientation is the side of a position that a breakend joins to. Forward
// means the sequence continues from the reference up to and including the
// position; Reverse means it continues from the position onwards.
type Orientation int8

const (
	Forward Orientation = 1
	Reverse Orientation = -1
)

func (o Orientation) String() string {
	if o == Reverse {
		return "-1"
	}
	return "1"
}

func (o Orientation) strandChar() string {
	if o == Reverse {
		return "-"
	}
	return "+"
}

// Opposite returns the other orientation.
func (o Orientation) Opposite() Orientation { return -o }

// AlignmentHit is one candidate alignment returned by an Aligner.
type AlignmentHit struct {
	Chromosome string
	// RefStart and RefEnd are 0-based inclusive reference coordinates.
	RefStart int
	RefEnd   int
	// QueryStart and QueryEnd are the 0-based inclusive aligned query span in
	// the aligner's convention: they count along the aligned strand, so for a
	// reverse-strand hit index 0 is the last base of the submitted query.
	QueryStart int
	QueryEnd   int
	MapQual    int
	Score      int
	Flags      sam.Flags
	Cigar      string
	// NumMismatches is the edit distance (NM).
	NumMismatches int
	// AltTag is the alternative-mapping tag: "chrom,±pos,cigar,mapqual;...".
	AltTag string
	// MismatchTag is the per-base mismatch tag in SAM MD format.
	MismatchTag string
}

// AlignData is one normalized alignment of an assembly sequence.
type AlignData struct {
	Chromosome string
	// RefStart and RefEnd are 1-based inclusive reference coordinates.
	RefStart      int
	RefEnd        int
	MapQual       int
	Score         int
	Flags         sam.Flags
	Cigar         sam.Cigar
	NumMismatches int
	AltTag        string
	MismatchTag   string

	// SoftClipLeft and SoftClipRight are the unaligned lengths before
	// RefStart and after RefEnd, in reference order.
	SoftClipLeft  int
	SoftClipRight int
	// AlignedBases is the sum of the CIGAR match operation lengths.
	AlignedBases int

	// SequenceStart and SequenceEnd are the 0-based inclusive span in the full
	// assembly sequence, always in assembly orientation. They are valid only
	// after SetFullSequenceData.
	SequenceStart int
	SequenceEnd   int
	// Invalid marks an alignment whose coordinates are inconsistent with the
	// assembly.
	Invalid bool
	// Requeried marks an alignment obtained by realigning a soft clip.
	Requeried bool

	// AdjustedAlignment is the repeat- and overlap-trimmed alignment length.
	AdjustedAlignment int
	// ModifiedMapQual is the mapping quality discounted for repeats and
	// overlaps. It may exceed MaxMapQual after a short-variant rescue.
	ModifiedMapQual float64

	// LinkedLowMapQual marks an alignment joined to a neighbour by the
	// short local variant rescue.
	LinkedLowMapQual bool
	// SelectedAlt, if non-nil, replaces the alignment's own coordinates when
	// forming breakends.
	SelectedAlt    *AlternativeAlignment
	UnselectedAlts []AlternativeAlignment

	rawQueryStart, rawQueryEnd int
	queryOffset, queryLength   int
	fullSeqSet                 bool
	alts                       []AlternativeAlignment
	altsParsed                 bool
	mismatches                 []bool
	mismatchesParsed           bool
}

// NewAlignData normalizes an aligner hit. It returns an error for hits whose
// CIGAR cannot be parsed or does not match the reported spans.
func NewAlignData(hit AlignmentHit) (*AlignData, error) {
	cigar, err := sam.ParseCigar([]byte(hit.Cigar))
	if err != nil {
		return nil, fmt.Errorf("alignment %s:%d: bad cigar %q: %v", hit.Chromosome, hit.RefStart, hit.Cigar, err)
	}
	if cigarAlignedBases(cigar) == 0 {
		return nil, fmt.Errorf("alignment %s:%d: cigar %q has no aligned bases", hit.Chromosome, hit.RefStart, hit.Cigar)
	}
	if hit.RefEnd < hit.RefStart || hit.QueryEnd < hit.QueryStart {
		return nil, fmt.Errorf("alignment %s:%d: inverted span ref %d-%d query %d-%d",
			hit.Chromosome, hit.RefStart, hit.RefStart, hit.RefEnd, hit.QueryStart, hit.QueryEnd)
	}
	a := &AlignData{
		Chromosome:    hit.Chromosome,
		RefStart:      hit.RefStart + 1,
		RefEnd:        hit.RefEnd + 1,
		MapQual:       hit.MapQual,
		Score:         hit.Score,
		Flags:         hit.Flags,
		Cigar:         cigar,
		NumMismatches: hit.NumMismatches,
		AltTag:        hit.AltTag,
		MismatchTag:   hit.MismatchTag,
		AlignedBases:  cigarAlignedBases(cigar),
		rawQueryStart: hit.QueryStart,
		rawQueryEnd:   hit.QueryEnd,
	}
	a.SoftClipLeft, a.SoftClipRight = cigarClips(cigar)
	return a, nil
}

// newRequeriedAlignData normalizes a hit of a subsequence that starts at
// offset in the full assembly and is queryLength bases long.
func newRequeriedAlignData(hit AlignmentHit, offset, queryLength int) (*AlignData, error) {
	a, err := NewAlignData(hit)
	if err != nil {
		return nil, err
	}
	a.Requeried = true
	a.queryOffset = offset
	a.queryLength = queryLength
	return a, nil
}

// Orientation returns Reverse for reverse-strand alignments.
func (a *AlignData) Orientation() Orientation {
	if a.Flags&sam.Reverse != 0 {
		return Reverse
	}
	return Forward
}

// IsForward checks if the alignment is on the forward strand.
func (a *AlignData) IsForward() bool { return a.Flags&sam.Reverse == 0 }

// HasAltTag checks if the aligner reported alternative mappings.
func (a *AlignData) HasAltTag() bool { return a.AltTag != "" }

// SegmentLength is the number of assembly bases covered by the alignment.
func (a *AlignData) SegmentLength() int { return a.SequenceEnd - a.SequenceStart + 1 }

// SetFullSequenceData converts the aligner's query coordinates into assembly
// coordinates. Only the first call has an effect. An out-of-range result
// marks the alignment Invalid.
func (a *AlignData) SetFullSequenceData(fullSeq []byte, fullLen int) {
	if a.fullSeqSet {
		return
	}
	a.fullSeqSet = true
	if a.queryLength == 0 {
		a.queryLength = fullLen
	}
	queryLength := a.queryLength
	if a.IsForward() {
		a.SequenceStart = a.rawQueryStart + a.queryOffset
		a.SequenceEnd = a.rawQueryEnd + a.queryOffset
	} else {
		a.SequenceStart = queryLength - 1 - a.rawQueryEnd + a.queryOffset
		a.SequenceEnd = queryLength - 1 - a.rawQueryStart + a.queryOffset
	}
	if a.SequenceStart < 0 || a.SequenceEnd >= fullLen || a.SequenceStart > a.SequenceEnd ||
		(fullSeq != nil && len(fullSeq) != fullLen) {
		log.Error.Printf("alignment %v: sequence span %d-%d out of range for length %d",
			a, a.SequenceStart, a.SequenceEnd, fullLen)
		a.Invalid = true
		return
	}
	// Unaligned assembly bases on either side, converted to reference order.
	leading, trailing := a.SequenceStart, fullLen-1-a.SequenceEnd
	if a.IsForward() {
		a.SoftClipLeft, a.SoftClipRight = leading, trailing
	} else {
		a.SoftClipLeft, a.SoftClipRight = trailing, leading
	}
}

// fullIndex maps a query index in CIGAR order, clips included, to an
// assembly index.
func (a *AlignData) fullIndex(q int) int {
	if a.IsForward() {
		return q + a.queryOffset
	}
	return a.queryLength - 1 - q + a.queryOffset
}

// refOrientedBases returns the query bases [qStart, qEnd], given in CIGAR
// order, in reference-forward orientation.
func (a *AlignData) refOrientedBases(fullSeq []byte, qStart, qEnd int) string {
	if a.IsForward() {
		return string(fullSeq[a.fullIndex(qStart) : a.fullIndex(qEnd)+1])
	}
	return reverseComplementOf(fullSeq[a.fullIndex(qEnd) : a.fullIndex(qStart)+1])
}

// LeadingClip and TrailingClip are the unaligned assembly lengths before
// SequenceStart and after SequenceEnd.
func (a *AlignData) LeadingClip() int {
	if a.IsForward() {
		return a.SoftClipLeft
	}
	return a.SoftClipRight
}

func (a *AlignData) TrailingClip() int {
	if a.IsForward() {
		return a.SoftClipRight
	}
	return a.SoftClipLeft
}

// CalcAdjustedAlignment computes AdjustedAlignment and ModifiedMapQual.
// inexactStart and inexactEnd are the overlaps with the neighbouring
// alignments at the start and end of the sequence span.
func (a *AlignData) CalcAdjustedAlignment(fullSeq []byte, inexactStart, inexactEnd int, opts Opts) {
	nominal := a.SegmentLength()
	score := a.Score
	if a.SoftClipLeft == 0 && a.SoftClipRight == 0 {
		if indels := cigarIndels(a.Cigar, a.RefStart, opts.IndelMinLength); len(indels) == 1 {
			score += opts.GapOpenPenalty + indels[0].Length
			if indels[0].Insertion {
				nominal -= indels[0].Length
			}
		}
	}
	redundant := 0
	if fullSeq != nil && a.SequenceEnd < len(fullSeq) {
		marked := markRepeatRedundancy(fullSeq[a.SequenceStart : a.SequenceEnd+1])
		redundant = countMarked(marked, inexactStart, len(marked)-inexactEnd)
	}
	trimmed := nominal - inexactStart - inexactEnd - redundant
	slack := max(0, nominal-score)
	a.AdjustedAlignment = max(0, trimmed-slack)

	if nominal <= 0 || float64(score+opts.ScoreFactor)/float64(nominal) < opts.MinScoreDensity {
		a.ModifiedMapQual = 0
		return
	}
	denom := max(100, a.AlignedBases-inexactStart-inexactEnd)
	ratio := math.Min(1, float64(a.AdjustedAlignment)/float64(denom))
	a.ModifiedMapQual = float64(a.MapQual) * ratio * ratio
}

// defaultAlternative expresses the alignment's own coordinates as an
// alternative.
func (a *AlignData) defaultAlternative() AlternativeAlignment {
	return AlternativeAlignment{
		Chromosome:  a.Chromosome,
		Position:    a.RefStart,
		Orientation: a.Orientation(),
		Cigar:       a.Cigar.String(),
		MapQual:     a.MapQual,
		RefLength:   a.RefEnd - a.RefStart + 1,
	}
}

// altAlignments lazily parses AltTag.
func (a *AlignData) altAlignments() []AlternativeAlignment {
	if !a.altsParsed {
		a.altsParsed = true
		if a.AltTag != "" {
			a.alts = ParseAltAlignments(a.AltTag)
		}
	}
	return a.alts
}

// AllAlignments returns the alignment's own coordinates followed by its
// alternatives when it carries alternatives or lies in a multi-mapped
// region. Otherwise it returns the alternatives alone, which are empty.
func (a *AlignData) AllAlignments(regions *RegionConfig) []AlternativeAlignment {
	alts := a.altAlignments()
	if len(alts) == 0 && !regions.InMultiMappedRegion(a.Chromosome, a.RefStart, a.RefEnd) {
		return alts
	}
	all := make([]AlternativeAlignment, 0, len(alts)+1)
	all = append(all, a.defaultAlternative())
	return append(all, alts...)
}

// mismatchFlags returns one flag per aligned assembly base in assembly
// orientation, or nil if the alignment has no usable mismatch tag.
func (a *AlignData) mismatchFlags() []bool {
	if !a.mismatchesParsed {
		a.mismatchesParsed = true
		m := mismatchArray(a.Cigar, a.MismatchTag)
		if m != nil && len(m) != a.SegmentLength() {
			log.Debug.Printf("alignment %v: mismatch array length %d, span %d", a, len(m), a.SegmentLength())
			m = nil
		}
		if m != nil && !a.IsForward() {
			reverseBools(m)
		}
		a.mismatches = m
	}
	return a.mismatches
}

// breakendChromosome, breakendStart, breakendEnd and breakendStrand
// return the coordinates used for breakend formation, honouring a selected
// alternative.
func (a *AlignData) breakendChromosome() string {
	if a.SelectedAlt != nil {
		return a.SelectedAlt.Chromosome
	}
	return a.Chromosome
}

func (a *AlignData) breakendStart() int {
	if a.SelectedAlt != nil {
		return a.SelectedAlt.Position
	}
	return a.RefStart
}

func (a *AlignData) breakendEnd() int {
	if a.SelectedAlt != nil {
		return a.SelectedAlt.End()
	}
	return a.RefEnd
}

func (a *AlignData) breakendStrand() Orientation {
	if a.SelectedAlt != nil {
		return a.SelectedAlt.Orientation
	}
	return a.Orientation()
}

func (a *AlignData) String() string {
	return fmt.Sprintf("%s:%d-%d %s seq(%d-%d) score(%d) flags(%d) mq(%d adj=%d modq=%.1f)",
		a.Chromosome, a.RefStart, a.RefEnd, a.Cigar, a.SequenceStart, a.SequenceEnd,
		a.Score, a.Flags, a.MapQual, a.AdjustedAlignment, a.ModifiedMapQual)
}
