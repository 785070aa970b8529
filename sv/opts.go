package sv

// SequencingTech identifies the sequencing technology that produced the
// support reads. It selects technology-dependent thresholds.
type SequencingTech int

const (
	// Illumina is short-read paired-end sequencing.
	Illumina SequencingTech = iota
	// SBX is sequencing-by-expansion; reads are longer and more variable in
	// length than Illumina reads.
	SBX
)

// Opts holds the tunables of the breakend resolution engine. Use DefaultOpts
// as the starting point.
type Opts struct {
	// MinMapQualNoAlts is the mapping quality an alignment without an
	// alternative-mapping tag must exceed to be considered at all.
	MinMapQualNoAlts int
	// MinModMapQual is the modified mapping quality an alignment needs to be
	// used as a breakend anchor on its own.
	MinModMapQual float64
	// MaxMapQual is the top of the aligner's mapping quality scale.
	MaxMapQual int
	// MinAnchorLength is the minimum adjusted alignment length of an anchor.
	MinAnchorLength int
	// ScoreFactor is added to the alignment score before computing the score
	// density of an alignment.
	ScoreFactor int
	// MinScoreDensity is the minimum (score+ScoreFactor)/length. Alignments
	// below it get a modified mapping quality of zero.
	MinScoreDensity float64
	// GapOpenPenalty is the aligner's gap open penalty. It is given back to the
	// score of an alignment whose indel is called as a variant.
	GapOpenPenalty int

	// IndelMinLength is the minimum length of a CIGAR indel that is called as a
	// pair of breakends.
	IndelMinLength int
	// IndelMinAnchorLength is the minimum number of aligned bases required on
	// each side of an indel. It is waived inside a phase chain of more than two
	// assemblies.
	IndelMinAnchorLength int
	// PhasedIndelLengthTolerance is the allowed difference between a CIGAR indel
	// and the indel expected by the phase link.
	PhasedIndelLengthTolerance int

	// MinSglClipLength is the unaligned length a single-ended breakend's
	// clip must exceed.
	MinSglClipLength int
	// MinLineSglClipLength replaces MinSglClipLength for clips that look
	// like the poly-A/T tail of a retrotransposon insertion.
	MinLineSglClipLength int
	// LineBaseFraction is the fraction of A or T bases at which a clipped
	// sequence is treated as a retrotransposon insertion.
	LineBaseFraction float64

	// ShortSVMaxDistance caps the distance between two low-mapping-quality
	// alignments that are rescued as a short local variant.
	ShortSVMaxDistance int
	// MaxFacingDistance is the longest templated insertion between two facing
	// breakends.
	MaxFacingDistance int
	// DeclaredFacingTolerance is the allowed position difference when matching
	// a facing link declared by the phasing stage to a breakend.
	DeclaredFacingTolerance int

	// RequeryMinClipLength is the minimum length of an uncovered soft clip that
	// is sent back to the aligner.
	RequeryMinClipLength int

	// MinVariantLength is the minimum reportable length of a DEL, DUP or INS.
	// Discordant-only support for shorter local variants is dropped.
	MinVariantLength int
	// MaxConcordantFragmentLength bounds the distance between a discordant read
	// and the breakend it supports.
	MaxConcordantFragmentLength int
	// MaxFragmentLength is the sanity ceiling for an inferred fragment length.
	MaxFragmentLength int

	// Tech selects the weak-extension veto thresholds.
	Tech SequencingTech
	// WeakExtensionOutlierFactor is the ratio between the longest read
	// extension and the median of the others above which the longest read is
	// an outlier.
	WeakExtensionOutlierFactor float64

	// NumSamples is the number of per-sample support slots of each breakend.
	NumSamples int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	MinMapQualNoAlts:            5,
	MinModMapQual:               10,
	MaxMapQual:                  60,
	MinAnchorLength:             50,
	ScoreFactor:                 15,
	MinScoreDensity:             0.85,
	GapOpenPenalty:              6,
	IndelMinLength:              10,
	IndelMinAnchorLength:        30,
	PhasedIndelLengthTolerance:  2,
	MinSglClipLength:            20,
	MinLineSglClipLength:        16,
	LineBaseFraction:            0.85,
	ShortSVMaxDistance:          50000,
	MaxFacingDistance:           1000,
	DeclaredFacingTolerance:     10,
	RequeryMinClipLength:        32,
	MinVariantLength:            32,
	MaxConcordantFragmentLength: 1000,
	MaxFragmentLength:           5000,
	Tech:                        Illumina,
	WeakExtensionOutlierFactor:  3,
	NumSamples:                  1,
}

// weakExtensionShortLength is the median extension length below which the
// non-outlier support reads are considered short.
func (o Opts) weakExtensionShortLength() int {
	if o.Tech == SBX {
		return 50
	}
	return 30
}
