package sv

// isLineSequence checks if clipped bases look like the poly-A or poly-T tail
// of a retrotransposon insertion.
func isLineSequence(bases []byte, opts Opts) bool {
	if len(bases) == 0 {
		return false
	}
	var nA, nT int
	for _, b := range bases {
		switch b {
		case 'A', 'a':
			nA++
		case 'T', 't':
			nT++
		}
	}
	return float64(max(nA, nT)) >= opts.LineBaseFraction*float64(len(bases))
}

// clipBreakend forms a single breakend from the leading or trailing
// unaligned assembly bases of a. The clip must be longer than the minimum
// length; otherwise clipBreakend returns nil.
func clipBreakend(asm *AssemblyAlignment, a *AlignData, leading bool, lowQual []*AlignData, cfg *RegionConfig, opts Opts) *Breakend {
	var clip []byte
	if leading {
		clip = asm.FullSequence[:a.SequenceStart]
	} else {
		clip = asm.FullSequence[a.SequenceEnd+1:]
	}
	minLength := opts.MinSglClipLength
	if isLineSequence(clip, opts) {
		minLength = opts.MinLineSglClipLength
	}
	if len(clip) <= minLength {
		return nil
	}

	// A forward alignment's trailing clip continues past its reference end;
	// a reverse alignment's trailing clip continues before its reference
	// start, and its bases are on the other strand.
	var (
		pos    int
		orient Orientation
		bases  string
	)
	forward := a.breakendStrand() == Forward
	switch {
	case !leading && forward:
		pos, orient, bases = a.breakendEnd(), Forward, string(clip)
	case !leading && !forward:
		pos, orient, bases = a.breakendStart(), Reverse, reverseComplementOf(clip)
	case leading && forward:
		pos, orient, bases = a.breakendStart(), Reverse, string(clip)
	default:
		pos, orient, bases = a.breakendEnd(), Forward, reverseComplementOf(clip)
	}
	b := newBreakend(a.breakendChromosome(), pos, orient, opts.NumSamples)
	b.InsertedBases = bases
	b.Qual = a.ModifiedMapQual
	if leading {
		b.Segments = []BreakendSegment{asm.newSegment(a, a.SequenceStart, false)}
	} else {
		b.Segments = []BreakendSegment{asm.newSegment(a, a.SequenceEnd, true)}
	}
	b.AltAlignments = append(b.AltAlignments, a.UnselectedAlts...)
	clipStart, clipEnd := a.SequenceEnd+1, asm.FullLength()-1
	if leading {
		clipStart, clipEnd = 0, a.SequenceStart-1
	}
	b.AltAlignments = append(b.AltAlignments, rollupAlternatives(lowQual, clipStart, clipEnd, cfg)...)
	return b
}

// singleBreakend forms a single breakend from the larger clip of a single
// anchoring alignment.
func singleBreakend(asm *AssemblyAlignment, a *AlignData, lowQual []*AlignData, cfg *RegionConfig, opts Opts) *breakendPair {
	leading := a.SequenceStart > asm.FullLength()-1-a.SequenceEnd
	b := clipBreakend(asm, a, leading, lowQual, cfg, opts)
	if b == nil {
		return nil
	}
	return &breakendPair{first: b, formation: formSingle}
}

// rollupAlternatives collects the placements of low-quality alignments lying
// within the assembly range [start, end].
func rollupAlternatives(lowQual []*AlignData, start, end int, cfg *RegionConfig) []AlternativeAlignment {
	var alts []AlternativeAlignment
	for _, lq := range lowQual {
		if lq.Invalid || lq.SequenceEnd < start || lq.SequenceStart > end {
			continue
		}
		all := lq.AllAlignments(cfg)
		if len(all) == 0 {
			all = []AlternativeAlignment{lq.defaultAlternative()}
		}
		alts = append(alts, all...)
	}
	return alts
}
