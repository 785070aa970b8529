package sv

// addFacing links two breakends as facing, in both directions. It returns
// false if they were already linked.
func addFacing(a, b *Breakend) bool {
	for _, idx := range a.Facing {
		if idx == b.Index {
			return false
		}
	}
	a.Facing = append(a.Facing, b.Index)
	b.Facing = append(b.Facing, a.Index)
	return true
}

// facingPair checks if a and b face each other: on the same chromosome, the
// reverse-oriented one at or before the forward-oriented one, at most
// maxDistance apart. Such a pair bounds a templated insertion.
func facingPair(a, b *Breakend, maxDistance int) bool {
	if a.Chromosome != b.Chromosome || a.Orientation == b.Orientation {
		return false
	}
	start, end := a, b
	if a.Orientation == Forward {
		start, end = b, a
	}
	return start.Position <= end.Position && end.Position-start.Position <= maxDistance
}

// linkFacingBreakends links every facing pair of breakends that are not SV
// partners. It returns the number of new links.
func linkFacingBreakends(asm *AssemblyAlignment, opts Opts) int {
	n := 0
	for i, a := range asm.Breakends {
		for _, b := range asm.Breakends[i+1:] {
			if a.OtherBreakend == b.Index || !facingPair(a, b, opts.MaxFacingDistance) {
				continue
			}
			if addFacing(a, b) {
				n++
			}
		}
	}
	return n
}

// findBreakend returns the breakend closest to pos within tolerance that has
// the given chromosome and orientation.
func findBreakend(asm *AssemblyAlignment, chrom string, pos int, orient Orientation, tolerance int) *Breakend {
	var best *Breakend
	for _, b := range asm.Breakends {
		if b.Chromosome != chrom || b.Orientation != orient || abs(b.Position-pos) > tolerance {
			continue
		}
		if best == nil || abs(b.Position-pos) < abs(best.Position-pos) {
			best = b
		}
	}
	return best
}

// linkDeclaredFacing materializes the facing links declared by the phasing
// stage for assemblies merged from several junctions. It returns the number
// of new links.
func linkDeclaredFacing(asm *AssemblyAlignment, opts Opts) int {
	n := 0
	for _, df := range asm.DeclaredFacing {
		a := findBreakend(asm, df.ChromosomeA, df.PositionA, df.OrientationA, opts.DeclaredFacingTolerance)
		b := findBreakend(asm, df.ChromosomeB, df.PositionB, df.OrientationB, opts.DeclaredFacingTolerance)
		if a == nil || b == nil || a == b {
			continue
		}
		if addFacing(a, b) {
			n++
		}
	}
	return n
}
