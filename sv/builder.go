package sv

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"
)

// formation is the path by which breakends were formed.
type formation uint8

const (
	formNone formation = iota
	formIndel
	formSingle
	formChain
)

func (f formation) String() string {
	switch f {
	case formIndel:
		return "indel"
	case formSingle:
		return "single"
	case formChain:
		return "chain"
	}
	return "none"
}

// breakendPair is a candidate breakend with its partner. second is nil for
// single breakends.
type breakendPair struct {
	first, second *Breakend
	formation     formation
}

// builder holds the inputs shared by the formation strategies.
type builder struct {
	asm      *AssemblyAlignment
	filtered FilterResult
	ref      RefSource
	cfg      *RegionConfig
	opts     Opts
}

// selectFormation chooses the formation strategy for the valid alignments.
func selectFormation(valid []*AlignData) formation {
	switch len(valid) {
	case 0:
		return formNone
	case 1:
		return formSingle
	}
	return formChain
}

// BuildBreakends forms the breakends of an assembly from its filtered
// alignments. Any failure is contained: the assembly is marked BuildFailed
// and left without breakends.
func BuildBreakends(asm *AssemblyAlignment, filtered FilterResult, ref RefSource, cfg *RegionConfig, opts Opts, stats *Stats) {
	asm.Filtered = filtered
	b := builder{asm: asm, filtered: filtered, ref: ref, cfg: cfg, opts: opts}
	pairs, err := b.safeBuild()
	if err != nil {
		logBuildFailure(asm, err)
		asm.Breakends = nil
		asm.BuildFailed = true
		stats.FailedBuilds++
		return
	}
	for _, p := range pairs {
		if !asm.commitPair(p) {
			continue
		}
		switch p.formation {
		case formIndel:
			stats.IndelBreakends += 2
		case formSingle:
			stats.SglBreakends++
		case formChain:
			stats.ChainBreakends += 2
		}
	}
	stats.FacingLinks += linkFacingBreakends(asm, opts)
	stats.FacingLinks += linkDeclaredFacing(asm, opts)
}

func (b *builder) safeBuild() (pairs []breakendPair, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.build()
}

func (b *builder) build() ([]breakendPair, error) {
	valid := b.filtered.Valid
	for _, a := range valid {
		if a.Invalid {
			return nil, fmt.Errorf("invalid alignment %v among anchors", a)
		}
	}
	switch selectFormation(valid) {
	case formSingle:
		return b.buildSingle(valid[0]), nil
	case formChain:
		return b.buildChain(valid)
	}
	return nil, nil
}

// buildSingle tries an indel first and falls back to a single breakend.
func (b *builder) buildSingle(a *AlignData) []breakendPair {
	if p := indelBreakends(b.asm, a, b.ref, b.opts); p != nil {
		return []breakendPair{*p}
	}
	if p := singleBreakend(b.asm, a, b.filtered.LowQual, b.cfg, b.opts); p != nil {
		return []breakendPair{*p}
	}
	return nil
}

// buildChain joins consecutive alignments, then adds single breakends for
// the outer clips and indels inside interior alignments.
func (b *builder) buildChain(valid []*AlignData) ([]breakendPair, error) {
	var pairs []breakendPair
	if sgl := clipBreakend(b.asm, valid[0], true, b.filtered.LowQual, b.cfg, b.opts); sgl != nil {
		pairs = append(pairs, breakendPair{first: sgl, formation: formSingle})
	}
	for i := 0; i+1 < len(valid); i++ {
		p, err := b.junction(valid[i], valid[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
		if i+1 < len(valid)-1 {
			if p := indelBreakends(b.asm, valid[i+1], b.ref, b.opts); p != nil {
				pairs = append(pairs, *p)
			}
		}
	}
	last := valid[len(valid)-1]
	if sgl := clipBreakend(b.asm, last, false, b.filtered.LowQual, b.cfg, b.opts); sgl != nil {
		pairs = append(pairs, breakendPair{first: sgl, formation: formSingle})
	}
	return pairs, nil
}

// junctionSide returns the nominal breakend of one side of a junction. The
// left alignment's junction is at its sequence end and the right
// alignment's at its sequence start.
func junctionSide(a *AlignData, left bool) (string, int, Orientation) {
	forward := a.breakendStrand() == Forward
	if left == forward {
		return a.breakendChromosome(), a.breakendEnd(), Forward
	}
	return a.breakendChromosome(), a.breakendStart(), Reverse
}

// strandView expresses assembly-oriented homology from the strand of an
// alignment.
func strandView(h HomologyData, a *AlignData) HomologyData {
	if a.breakendStrand() == Forward {
		return h
	}
	return h.Invert(true, true)
}

// junction forms the breakend pair joining two consecutive alignments.
func (b *builder) junction(left, right *AlignData) (breakendPair, error) {
	if right.SequenceStart < left.SequenceStart {
		return breakendPair{}, fmt.Errorf("alignments out of order: %v before %v", left, right)
	}
	lChrom, lPos, lOrient := junctionSide(left, true)
	rChrom, rPos, rOrient := junctionSide(right, false)
	lSeqIndex, rSeqIndex := left.SequenceEnd, right.SequenceStart

	var (
		lHom, rHom *HomologyData
		lIns, rIns string
	)
	if left.SequenceEnd >= right.SequenceStart {
		if h := DetermineHomology(b.asm.FullSequence, left, right); h != nil {
			// The lower breakend keeps the larger half of an odd-length
			// homology on its start side.
			lowerView := strandView(*h, left)
			if compareLocations(rChrom, rPos, lChrom, lPos) < 0 {
				lowerView = strandView(*h, right)
			}
			if abs(lowerView.ExactStart) < lowerView.ExactEnd {
				*h = h.shiftCentre()
			}
			lv, rv := strandView(*h, left), strandView(*h, right)
			lPos += lv.PositionAdjustment(lOrient)
			rPos += rv.PositionAdjustment(rOrient)
			lHom, rHom = &lv, &rv
			rSeqIndex = right.SequenceStart - h.InexactStart
			lSeqIndex = rSeqIndex - 1
		}
	} else if right.SequenceStart > left.SequenceEnd+1 {
		gap := b.asm.FullSequence[left.SequenceEnd+1 : right.SequenceStart]
		lIns, rIns = string(gap), string(gap)
		if left.breakendStrand() == Reverse {
			lIns = reverseComplementOf(gap)
		}
		if right.breakendStrand() == Reverse {
			rIns = reverseComplementOf(gap)
		}
	}

	lb := newBreakend(lChrom, lPos, lOrient, b.opts.NumSamples)
	rb := newBreakend(rChrom, rPos, rOrient, b.opts.NumSamples)
	lb.Homology, rb.Homology = lHom, rHom
	lb.InsertedBases, rb.InsertedBases = lIns, rIns
	lb.Segments = []BreakendSegment{b.asm.newSegment(left, lSeqIndex, true)}
	rb.Segments = []BreakendSegment{b.asm.newSegment(right, rSeqIndex, false)}
	qual := left.ModifiedMapQual
	if right.ModifiedMapQual < qual {
		qual = right.ModifiedMapQual
	}
	lb.Qual, rb.Qual = qual, qual

	lb.AltAlignments = append(lb.AltAlignments, left.UnselectedAlts...)
	rb.AltAlignments = append(rb.AltAlignments, right.UnselectedAlts...)
	rollups := intervening(b.filtered.LowQual, left, right, b.cfg)
	lb.AltAlignments = append(lb.AltAlignments, rollups...)
	rb.AltAlignments = append(rb.AltAlignments, rollups...)
	return breakendPair{first: lb, second: rb, formation: formChain}, nil
}

// intervening collects the placements of low-quality alignments lying
// strictly inside the combined span of two consecutive anchors.
func intervening(lowQual []*AlignData, left, right *AlignData, cfg *RegionConfig) []AlternativeAlignment {
	var inner []*AlignData
	for _, lq := range lowQual {
		if lq.SequenceStart > left.SequenceStart && lq.SequenceEnd < right.SequenceEnd {
			inner = append(inner, lq)
		}
	}
	return rollupAlternatives(inner, left.SequenceStart, right.SequenceEnd, cfg)
}

// commitPair stores a candidate pair unless an identical one exists. It
// returns false for duplicates.
func (asm *AssemblyAlignment) commitPair(p breakendPair) bool {
	for _, existing := range asm.Breakends {
		if !existing.sameLocation(p.first.Chromosome, p.first.Position, p.first.Orientation) {
			continue
		}
		if p.second == nil && existing.IsSingle() {
			return false
		}
		if p.second != nil && !existing.IsSingle() {
			other := asm.Breakends[existing.OtherBreakend]
			if other.sameLocation(p.second.Chromosome, p.second.Position, p.second.Orientation) {
				return false
			}
		}
	}
	asm.addBreakend(p.first)
	if p.second == nil {
		p.first.Type = SGL
		return true
	}
	asm.addBreakend(p.second)
	asm.linkPair(p.first, p.second)
	return true
}

func logBuildFailure(asm *AssemblyAlignment, err error) {
	var sb strings.Builder
	for _, a := range asm.Alignments {
		sb.WriteString("\n  ")
		sb.WriteString(a.String())
	}
	log.Error.Printf("assembly %s: breakend formation failed: %v; alignments:%s", asm.ID, err, sb.String())
}
