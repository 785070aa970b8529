package sv

import (
	"sort"

	"github.com/grailbio/base/log"
)

// FilterResult is the outcome of FilterAlignments.
type FilterResult struct {
	// Valid lists the breakend anchors in assembly sequence order.
	Valid []*AlignData
	// LowQual lists every other alignment, in assembly sequence order. They
	// contribute alternative mappings to adjacent breakends.
	LowQual []*AlignData
}

func sortBySequenceStart(alignments []*AlignData) {
	sort.SliceStable(alignments, func(i, j int) bool {
		return alignments[i].SequenceStart < alignments[j].SequenceStart
	})
}

// overlap returns the number of assembly bases shared by two alignments
// ordered by SequenceStart.
func overlap(prev, next *AlignData) int {
	return max(0, prev.SequenceEnd-next.SequenceStart+1)
}

func (a *AlignData) passesQuality(opts Opts) bool {
	return a.ModifiedMapQual >= opts.MinModMapQual
}

// FilterAlignments splits the normalized alignments of one assembly into
// breakend anchors and low-quality alignments. It sets AdjustedAlignment and
// ModifiedMapQual on every candidate and applies the short local variant and
// paralog rescues.
func FilterAlignments(alignments []*AlignData, fullSeq []byte, cfg *RegionConfig, opts Opts, stats *Stats) FilterResult {
	var candidates, lowQual []*AlignData
	for _, a := range alignments {
		if !a.Invalid && (a.MapQual > opts.MinMapQualNoAlts || a.HasAltTag()) {
			candidates = append(candidates, a)
		} else {
			lowQual = append(lowQual, a)
		}
	}
	sortBySequenceStart(candidates)

	for i, a := range candidates {
		inexactStart, inexactEnd := 0, 0
		if i > 0 {
			inexactStart = overlap(candidates[i-1], a)
		}
		if i+1 < len(candidates) {
			inexactEnd = overlap(a, candidates[i+1])
		}
		a.CalcAdjustedAlignment(fullSeq, inexactStart, inexactEnd, opts)
	}

	var kept []*AlignData
	for _, a := range candidates {
		if a.AdjustedAlignment < opts.MinAnchorLength || (!a.passesQuality(opts) && !a.HasAltTag()) {
			lowQual = append(lowQual, a)
			continue
		}
		kept = append(kept, a)
	}

	rescueWeakNextToStrong(kept, cfg, opts, stats)
	rescueWeakNextToWeak(kept, cfg, opts, stats)
	rescueParalogs(kept, opts, cfg, stats)

	var result FilterResult
	for _, a := range kept {
		if a.passesQuality(opts) || a.LinkedLowMapQual {
			result.Valid = append(result.Valid, a)
		} else {
			lowQual = append(lowQual, a)
		}
	}
	sortBySequenceStart(lowQual)
	result.LowQual = lowQual
	stats.ValidAlignments += len(result.Valid)
	stats.LowQualAlignments += len(result.LowQual)
	return result
}

// altPair is a candidate placement of two adjacent alignments.
type altPair struct {
	first, second AlternativeAlignment
	firstIdx      int
	secondIdx     int
	distance      int
}

// closestPair finds the pair of same-chromosome placements with the smallest
// distance not exceeding maxDistance. Ties keep the first pair found.
func closestPair(firsts, seconds []AlternativeAlignment, maxDistance int) (altPair, bool) {
	best := altPair{distance: -1}
	for i, x := range firsts {
		for j, y := range seconds {
			if x.Chromosome != y.Chromosome {
				continue
			}
			d := abs(x.Position - y.Position)
			if d > maxDistance {
				continue
			}
			if best.distance < 0 || d < best.distance {
				best = altPair{first: x, second: y, firstIdx: i, secondIdx: j, distance: d}
			}
		}
	}
	return best, best.distance >= 0
}

// linkAlternative records the placement chosen for a rescued alignment.
func (a *AlignData) linkAlternative(all []AlternativeAlignment, selectedIdx int) {
	a.LinkedLowMapQual = true
	selected := all[selectedIdx]
	a.SelectedAlt = &selected
	a.UnselectedAlts = nil
	for i, alt := range all {
		if i != selectedIdx {
			a.UnselectedAlts = append(a.UnselectedAlts, alt)
		}
	}
}

// boostedModMapQual gives a rescued alignment a quality above the aligner's
// scale that grows as the rescued pair gets closer.
func boostedModMapQual(distance int, opts Opts) float64 {
	maxDistance := float64(opts.ShortSVMaxDistance)
	return float64(opts.MaxMapQual) + (maxDistance-float64(distance))/maxDistance
}

// passing records which alignments pass the quality threshold before a
// rescue pass, so a rescue in the pass cannot make a neighbour look strong.
func passing(kept []*AlignData, opts Opts) []bool {
	pass := make([]bool, len(kept))
	for i, a := range kept {
		pass[i] = a.passesQuality(opts)
	}
	return pass
}

// placements lists where a can sit: its selected alternative once one is
// chosen, otherwise its own coordinates followed by any alternatives.
func (a *AlignData) placements(cfg *RegionConfig) []AlternativeAlignment {
	if a.SelectedAlt != nil {
		return []AlternativeAlignment{*a.SelectedAlt}
	}
	if all := a.AllAlignments(cfg); len(all) > 0 {
		return all
	}
	return []AlternativeAlignment{a.defaultAlternative()}
}

// rescueWeakNextToStrong joins a below-threshold alignment to an adjacent
// passing one when a placement of each lies close to the other.
func rescueWeakNextToStrong(kept []*AlignData, cfg *RegionConfig, opts Opts, stats *Stats) {
	pass := passing(kept, opts)
	for i := 0; i+1 < len(kept); i++ {
		if pass[i] == pass[i+1] {
			continue
		}
		weak, strong := kept[i], kept[i+1]
		if pass[i] {
			weak, strong = strong, weak
		}
		if weak.LinkedLowMapQual {
			continue
		}
		weakAlts, strongAlts := weak.AllAlignments(cfg), strong.placements(cfg)
		pair, ok := closestPair(weakAlts, strongAlts, opts.ShortSVMaxDistance)
		if !ok {
			continue
		}
		weak.linkAlternative(weakAlts, pair.firstIdx)
		weak.ModifiedMapQual = boostedModMapQual(pair.distance, opts)
		if strong.SelectedAlt == nil && len(strongAlts) > 1 {
			strong.linkAlternative(strongAlts, pair.secondIdx)
		}
		strong.LinkedLowMapQual = true
		stats.RescuedLinks++
		log.Debug.Printf("rescued %v next to %v at distance %d", weak, strong, pair.distance)
	}
}

// rescueWeakNextToWeak joins two adjacent below-threshold alignments when a
// pair of their placements lie close together.
func rescueWeakNextToWeak(kept []*AlignData, cfg *RegionConfig, opts Opts, stats *Stats) {
	pass := passing(kept, opts)
	for i := 0; i+1 < len(kept); i++ {
		a, b := kept[i], kept[i+1]
		if pass[i] || pass[i+1] || a.LinkedLowMapQual || b.LinkedLowMapQual {
			continue
		}
		aAlts, bAlts := a.AllAlignments(cfg), b.AllAlignments(cfg)
		pair, ok := closestPair(aAlts, bAlts, opts.ShortSVMaxDistance)
		if !ok {
			continue
		}
		a.linkAlternative(aAlts, pair.firstIdx)
		b.linkAlternative(bAlts, pair.secondIdx)
		boost := boostedModMapQual(pair.distance, opts)
		a.ModifiedMapQual = boost
		b.ModifiedMapQual = boost
		stats.RescuedLinks++
		log.Debug.Printf("rescued %v next to %v at distance %d", a, b, pair.distance)
	}
}

// rescueParalogs moves an alignment from a paralogous gene copy to the
// functional gene when the rest of the assembly maps to other chromosomes.
func rescueParalogs(kept []*AlignData, opts Opts, cfg *RegionConfig, stats *Stats) {
	if cfg == nil || len(kept) < 2 {
		return
	}
	for _, p := range cfg.Paralogs {
		for i, a := range kept {
			if !entryOverlaps(p.Source, a.Chromosome, a.RefStart, a.RefEnd) {
				continue
			}
			distinct := true
			for j, other := range kept {
				if j != i && other.breakendChromosome() == a.Chromosome {
					distinct = false
					break
				}
			}
			if !distinct {
				continue
			}
			all := a.AllAlignments(cfg)
			for k, alt := range all {
				if !entryOverlaps(p.Target, alt.Chromosome, alt.Position, alt.End()) {
					continue
				}
				a.linkAlternative(all, k)
				if a.ModifiedMapQual < opts.MinModMapQual {
					a.ModifiedMapQual = opts.MinModMapQual
				}
				stats.ParalogRescues++
				log.Debug.Printf("paralog %s: moved %v to %v", p.Name, a, alt)
				break
			}
		}
	}
}
