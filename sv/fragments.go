package sv

import (
	"blainsmith.com/go/seahash"
	gunsafe "github.com/grailbio/base/unsafe"
)

// readFragment groups the reads of one sequenced fragment.
type readFragment struct {
	// members are the distinct reads, one per (first-in-pair, supplementary)
	// combination.
	members []int
	// duplicates pairs a repeated read with the member it duplicates.
	duplicates [][2]int
}

// groupReads groups reads by identity. A read seen in more than one
// sub-assembly is kept once as a member and otherwise recorded as a
// duplicate.
func groupReads(reads []SupportRead) []readFragment {
	var (
		frags  []readFragment
		byHash = map[uint64][]int{}
	)
	for i := range reads {
		r := &reads[i]
		h := seahash.Sum64(gunsafe.StringToBytes(r.ID))
		fi := -1
		for _, c := range byHash[h] {
			if reads[frags[c].members[0]].ID == r.ID {
				fi = c
				break
			}
		}
		if fi < 0 {
			fi = len(frags)
			frags = append(frags, readFragment{})
			byHash[h] = append(byHash[h], fi)
		}
		f := &frags[fi]
		dup := -1
		for _, m := range f.members {
			if reads[m].IsFirstInPair() == r.IsFirstInPair() && reads[m].IsSupplementary() == r.IsSupplementary() {
				dup = m
				break
			}
		}
		if dup >= 0 {
			f.duplicates = append(f.duplicates, [2]int{i, dup})
		} else {
			f.members = append(f.members, i)
		}
	}
	return frags
}

// readSpansRef checks if the read's unclipped reference span crosses the
// junction of b.
func readSpansRef(r *SupportRead, b *Breakend) bool {
	if r.Chromosome != b.Chromosome {
		return false
	}
	if b.Orientation == Forward {
		return r.UnclippedStart <= b.Position && r.UnclippedEnd > b.Position
	}
	return r.UnclippedStart < b.Position && r.UnclippedEnd >= b.Position
}

// readSpansSegment checks if the read's assembly span crosses the junction
// of a segment, or covers both sides of an indel.
func readSpansSegment(r *SupportRead, seg BreakendSegment) bool {
	if !r.hasFullIndex() {
		return false
	}
	if seg.IndelSeqStart >= 0 {
		return r.FullIndexStart <= seg.IndelSeqStart && r.FullIndexEnd >= seg.IndelSeqEnd
	}
	if seg.JunctionFollows {
		return r.FullIndexStart <= seg.SequenceIndex && r.FullIndexEnd > seg.SequenceIndex
	}
	return r.FullIndexStart < seg.SequenceIndex && r.FullIndexEnd >= seg.SequenceIndex
}

// matchRead finds the breakend a read supports. A read spanning a junction
// is split support; otherwise the closest breakend the read points to,
// within the concordant fragment length, is discordant support.
func matchRead(asm *AssemblyAlignment, r *SupportRead, index *breakendIndex, opts Opts) (int, bool) {
	for _, b := range asm.Breakends {
		if readSpansRef(r, b) {
			return b.Index, true
		}
	}
	for _, b := range asm.Breakends {
		for _, seg := range b.Segments {
			if readSpansSegment(r, seg) {
				return b.Index, true
			}
		}
	}
	readLength := r.UnclippedEnd - r.UnclippedStart + 1
	if r.Orientation() == Forward {
		return index.closestDownstream(r.Chromosome, r.UnclippedEnd, Forward, opts.MaxConcordantFragmentLength-readLength), false
	}
	return index.closestUpstream(r.Chromosome, r.UnclippedStart, Reverse, opts.MaxConcordantFragmentLength-readLength), false
}

// mateOppositeJunction checks if the read's mate lies on the other side of
// b's junction, as given by the sign of the insert size.
func mateOppositeJunction(r *SupportRead, b *Breakend) bool {
	if r.InsertSize > 0 {
		return r.UnclippedEnd < b.Position
	}
	return r.UnclippedStart > b.Position
}

// soloFragmentLength infers the fragment length of a read whose mate is not
// in the assembly. For one side of a local indel link the reference insert
// size is corrected by the indel length when the mate lies across the
// junction, and by the read's clip past the junction otherwise.
func soloFragmentLength(asm *AssemblyAlignment, r *SupportRead, b *Breakend, opts Opts) (int, bool) {
	length := abs(r.InsertSize)
	if length == 0 {
		return 0, false
	}
	if exp := asm.ExpectedIndel; exp != nil {
		switch {
		case !mateOppositeJunction(r, b):
			if r.Orientation() == Forward {
				length += r.SoftClipRight
			} else {
				length += r.SoftClipLeft
			}
		case exp.Deletion:
			length -= exp.Length
		default:
			length += exp.Length
		}
	}
	return length, length > 0 && length <= opts.MaxFragmentLength
}

// pairFragmentLength is the assembly span covering all reads of a fragment.
func pairFragmentLength(reads []SupportRead, members []int, opts Opts) (int, bool) {
	start, end := -1, -1
	for _, m := range members {
		r := &reads[m]
		if !r.hasFullIndex() {
			return 0, false
		}
		if start < 0 || r.FullIndexStart < start {
			start = r.FullIndexStart
		}
		if r.FullIndexEnd > end {
			end = r.FullIndexEnd
		}
	}
	length := end - start + 1
	return length, length > 0 && length <= opts.MaxFragmentLength
}

func (b *Breakend) addSupport(sample int, split bool, orient Orientation, fragLength int, validLength bool) {
	if sample < 0 || sample >= len(b.Support) {
		sample = 0
	}
	if split {
		b.Support[sample].Split++
	} else {
		b.Support[sample].Discordant++
	}
	if orient == Forward {
		b.ForwardReads++
	} else {
		b.ReverseReads++
	}
	if validLength {
		b.FragLengthTotal += fragLength
		b.FragLengthCount++
	} else {
		b.IncompleteFragments++
	}
}

// AllocateFragments attributes each fragment of the assembly's support reads
// to the breakend it supports, updating the breakend's and its partner's
// support counts and annotating the reads.
func AllocateFragments(asm *AssemblyAlignment, opts Opts, stats *Stats) {
	for i := range asm.Reads {
		asm.Reads[i].Support = NoSupport
		asm.Reads[i].BreakendIndex = -1
		asm.Reads[i].InferredFragmentLength = 0
	}
	if len(asm.Breakends) == 0 {
		return
	}
	index := newBreakendIndex(asm.Breakends)
	for _, frag := range groupReads(asm.Reads) {
		allocateFragment(asm, frag, index, opts, stats)
		for _, d := range frag.duplicates {
			dup, primary := &asm.Reads[d[0]], &asm.Reads[d[1]]
			dup.Support = primary.Support
			dup.BreakendIndex = primary.BreakendIndex
			dup.InferredFragmentLength = primary.InferredFragmentLength
		}
	}
}

func allocateFragment(asm *AssemblyAlignment, frag readFragment, index *breakendIndex, opts Opts, stats *Stats) {
	chosen, chosenBy := -1, -1
	split := false
	var nonSupps []int
	for _, m := range frag.members {
		r := &asm.Reads[m]
		if !r.IsSupplementary() {
			nonSupps = append(nonSupps, m)
		}
		idx, spans := matchRead(asm, r, index, opts)
		if idx < 0 {
			continue
		}
		if spans && !split {
			chosen, chosenBy, split = idx, m, true
		} else if chosen < 0 {
			chosen, chosenBy = idx, m
		}
	}
	if chosen < 0 {
		return
	}
	b := asm.Breakends[chosen]
	if !split && b.Type.isLocalIndel() && b.SvLength(asm) < opts.MinVariantLength {
		stats.SkippedShortFragments++
		return
	}

	var (
		fragLength  int
		validLength bool
	)
	switch len(nonSupps) {
	case 0:
	case 1:
		fragLength, validLength = soloFragmentLength(asm, &asm.Reads[nonSupps[0]], b, opts)
	default:
		fragLength, validLength = pairFragmentLength(asm.Reads, nonSupps, opts)
	}

	read := &asm.Reads[chosenBy]
	b.addSupport(read.Sample, split, read.Orientation(), fragLength, validLength)
	if !b.IsSingle() {
		asm.Breakends[b.OtherBreakend].addSupport(read.Sample, split, read.Orientation(), fragLength, validLength)
	}
	if split {
		stats.SplitFragments++
	} else {
		stats.DiscordantFragments++
	}
	if !validLength {
		stats.IncompleteFragments++
		fragLength = 0
	}

	support := DiscordantSupport
	if split {
		support = SplitSupport
	}
	for _, m := range frag.members {
		r := &asm.Reads[m]
		r.Support = support
		r.BreakendIndex = chosen
		r.InferredFragmentLength = fragLength
	}
}
