package sv

// selectIndel picks the CIGAR indel to call as a variant. When the assembly
// is one side of a local indel link, the indel closest to the expected one is
// chosen; otherwise the longest indel of at least IndelMinLength bases.
func selectIndel(a *AlignData, asm *AssemblyAlignment, opts Opts) (cigarIndel, bool) {
	var (
		best  cigarIndel
		found bool
	)
	if exp := asm.ExpectedIndel; exp != nil {
		bestDiff := 0
		for _, indel := range cigarIndels(a.Cigar, a.RefStart, 1) {
			if indel.Insertion == exp.Deletion {
				continue
			}
			diff := abs(indel.Length - exp.Length)
			if diff > opts.PhasedIndelLengthTolerance {
				continue
			}
			if !found || diff < bestDiff {
				best, bestDiff, found = indel, diff, true
			}
		}
	} else {
		for _, indel := range cigarIndels(a.Cigar, a.RefStart, opts.IndelMinLength) {
			if !found || indel.Length > best.Length {
				best, found = indel, true
			}
		}
	}
	if !found {
		return best, false
	}
	if asm.PhaseChainLength <= 2 &&
		(best.LeftAligned < opts.IndelMinAnchorLength || best.RightAligned < opts.IndelMinAnchorLength) {
		return best, false
	}
	return best, true
}

// indelBreakends forms the breakend pair of an indel inside a single
// alignment. It returns nil if the alignment has no qualifying indel.
func indelBreakends(asm *AssemblyAlignment, a *AlignData, ref RefSource, opts Opts) *breakendPair {
	indel, ok := selectIndel(a, asm, opts)
	if !ok {
		return nil
	}
	chrom := a.Chromosome
	lowerPos, upperPos := indel.RefBefore, indel.RefBefore+indel.Length+1
	lowerOrient, upperOrient := Forward, Reverse
	nextAlignedQ := indel.QueryBefore + 1
	var inserted string
	if indel.Insertion {
		upperPos = indel.RefBefore + 1
		nextAlignedQ = indel.QueryBefore + indel.Length + 1
		inserted = a.refOrientedBases(asm.FullSequence, indel.QueryBefore+1, indel.QueryBefore+indel.Length)
	}
	homology := DetermineIndelHomology(ref, chrom, indel.RefBefore, indel.Insertion, indel.Length, inserted)
	if indel.Insertion && homology != nil && homology.Length() == indel.Length {
		// The inserted bases repeat the reference that follows: a tandem
		// duplication of [RefBefore+1, RefBefore+Length].
		lowerPos, upperPos = indel.RefBefore+1, indel.RefBefore+indel.Length
		lowerOrient, upperOrient = Reverse, Forward
		inserted = ""
		homology = determineDupHomology(ref, chrom, lowerPos, upperPos)
	}
	if homology != nil {
		shift := -homology.ExactStart
		lowerPos += shift
		upperPos += shift
		if inserted != "" {
			inserted = inserted[shift:] + inserted[:shift]
		}
	}

	seg := asm.newSegment(a, a.fullIndex(indel.QueryBefore), true)
	seg.IndelSeqStart = a.fullIndex(indel.QueryBefore)
	seg.IndelSeqEnd = a.fullIndex(nextAlignedQ)
	if seg.IndelSeqStart > seg.IndelSeqEnd {
		seg.IndelSeqStart, seg.IndelSeqEnd = seg.IndelSeqEnd, seg.IndelSeqStart
	}
	seg.SequenceIndex = seg.IndelSeqStart

	lower := newBreakend(chrom, lowerPos, lowerOrient, opts.NumSamples)
	upper := newBreakend(chrom, upperPos, upperOrient, opts.NumSamples)
	for _, b := range []*Breakend{lower, upper} {
		b.InsertedBases = inserted
		if homology != nil {
			h := *homology
			b.Homology = &h
		}
		b.Segments = []BreakendSegment{seg}
		b.Qual = a.ModifiedMapQual
		b.AltAlignments = append(b.AltAlignments, a.UnselectedAlts...)
	}
	return &breakendPair{first: lower, second: upper, formation: formIndel}
}
