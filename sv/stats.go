package sv

import "fmt"

// Stats keeps track of various counters during breakend resolution.
type Stats struct {
	// Assemblies is the number of assemblies processed.
	Assemblies int
	// Alignments is the number of aligner hits, including those of requeried
	// clips.
	Alignments int
	// MalformedAlignments counts aligner hits that could not be normalized.
	MalformedAlignments int
	// RequeriedAlignments is the number of alignments added by soft-clip
	// requery.
	RequeriedAlignments int
	// ValidAlignments and LowQualAlignments are the filter outcomes.
	ValidAlignments   int
	LowQualAlignments int
	// RescuedLinks is the number of alignment pairs joined as a short local
	// variant despite low mapping quality.
	RescuedLinks int
	// ParalogRescues counts forced paralogous-region substitutions.
	ParalogRescues int

	// IndelBreakends, SglBreakends and ChainBreakends count breakends by
	// formation path.
	IndelBreakends int
	SglBreakends   int
	ChainBreakends int
	// FacingLinks is the number of facing breakend pairs.
	FacingLinks int
	// FailedBuilds counts assemblies whose breakend construction failed.
	FailedBuilds int
	// VetoedAssemblies counts assemblies discarded as weak single-read
	// extensions.
	VetoedAssemblies int

	// SplitFragments and DiscordantFragments count allocated fragments.
	SplitFragments      int
	DiscordantFragments int
	// IncompleteFragments counts allocated fragments without a usable length.
	IncompleteFragments int
	// SkippedShortFragments counts discordant-only fragments dropped because
	// their breakend is a short local variant.
	SkippedShortFragments int
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Assemblies += o.Assemblies
	s.Alignments += o.Alignments
	s.MalformedAlignments += o.MalformedAlignments
	s.RequeriedAlignments += o.RequeriedAlignments
	s.ValidAlignments += o.ValidAlignments
	s.LowQualAlignments += o.LowQualAlignments
	s.RescuedLinks += o.RescuedLinks
	s.ParalogRescues += o.ParalogRescues
	s.IndelBreakends += o.IndelBreakends
	s.SglBreakends += o.SglBreakends
	s.ChainBreakends += o.ChainBreakends
	s.FacingLinks += o.FacingLinks
	s.FailedBuilds += o.FailedBuilds
	s.VetoedAssemblies += o.VetoedAssemblies
	s.SplitFragments += o.SplitFragments
	s.DiscordantFragments += o.DiscordantFragments
	s.IncompleteFragments += o.IncompleteFragments
	s.SkippedShortFragments += o.SkippedShortFragments
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("assemblies:%d alignments:%d (malformed:%d requeried:%d valid:%d lowqual:%d rescued:%d paralog:%d) "+
		"breakends: indel:%d sgl:%d chain:%d facing:%d failed:%d vetoed:%d "+
		"fragments: split:%d discordant:%d incomplete:%d skipped:%d",
		s.Assemblies, s.Alignments, s.MalformedAlignments, s.RequeriedAlignments, s.ValidAlignments,
		s.LowQualAlignments, s.RescuedLinks, s.ParalogRescues,
		s.IndelBreakends, s.SglBreakends, s.ChainBreakends, s.FacingLinks, s.FailedBuilds, s.VetoedAssemblies,
		s.SplitFragments, s.DiscordantFragments, s.IncompleteFragments, s.SkippedShortFragments)
}
