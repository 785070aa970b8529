package sv

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/breakend/interval"
)

// RefGenomeVersion selects the chromosome naming and coordinates of the
// built-in region tables.
type RefGenomeVersion int

const (
	// V37 is GRCh37, with chromosomes named "1", "2", ...
	V37 RefGenomeVersion = iota
	// V38 is GRCh38, with chromosomes named "chr1", "chr2", ...
	V38
)

// ParseRefGenomeVersion parses "37", "38", "V37", "hg19", "hg38" and similar.
func ParseRefGenomeVersion(s string) (RefGenomeVersion, error) {
	switch strings.ToUpper(s) {
	case "37", "V37", "GRCH37", "HG19":
		return V37, nil
	case "38", "V38", "GRCH38", "HG38":
		return V38, nil
	}
	return V37, fmt.Errorf("unknown reference genome version %q", s)
}

func (v RefGenomeVersion) String() string {
	if v == V38 {
		return "V38"
	}
	return "V37"
}

// ChromosomeName converts a bare chromosome name ("1", "X") into this
// version's naming.
func (v RefGenomeVersion) ChromosomeName(name string) string {
	bare := strings.TrimPrefix(name, "chr")
	if v == V38 {
		return "chr" + bare
	}
	return bare
}

// ParalogRegion describes a gene region whose sequence is nearly identical to
// another region of the genome. Alignments in Source that have an
// alternative in Target are moved to Target.
type ParalogRegion struct {
	Name   string
	Source interval.Entry
	Target interval.Entry
}

// RegionConfig is the immutable region configuration shared by all workers.
type RegionConfig struct {
	Version RefGenomeVersion
	// MultiMapped lists regions where the aligner reports promiscuous
	// alternative mappings.
	MultiMapped *interval.RegionSet
	Paralogs    []ParalogRegion
}

// builtinMultiMapped lists promiscuously multi-mapped regions in 1-based
// "chrom:start-end" form, per reference version.
var builtinMultiMapped = map[RefGenomeVersion][]string{
	V37: {
		"1:121484000-142535434",
		"1:143274000-145230000",
		"9:38768000-71161000",
		"16:34000000-46500000",
		"21:9411000-11188000",
		"Y:10104000-13500000",
	},
	V38: {
		"chr1:121700000-125100000",
		"chr1:143184000-145680000",
		"chr9:40500000-65500000",
		"chr16:34200000-46400000",
		"chr21:5010000-12915000",
		"chrY:10316000-10544000",
	},
}

var builtinParalogs = map[RefGenomeVersion][]struct{ name, source, target string }{
	V37: {{"PTENP1", "9:33673504-33677499", "10:89623195-89728532"}},
	V38: {{"PTENP1", "chr9:33673502-33677497", "chr10:87863625-87971930"}},
}

// NewRegionConfig builds the built-in configuration for the given version.
func NewRegionConfig(version RefGenomeVersion) (*RegionConfig, error) {
	var entries []interval.Entry
	for _, r := range builtinMultiMapped[version] {
		e, err := interval.ParseRegionString(r)
		if err != nil {
			return nil, errors.E(err, "multi-mapped region", r)
		}
		entries = append(entries, e)
	}
	multiMapped, err := interval.NewRegionSetFromEntries(entries)
	if err != nil {
		return nil, err
	}
	cfg := &RegionConfig{Version: version, MultiMapped: multiMapped}
	for _, p := range builtinParalogs[version] {
		src, err := interval.ParseRegionString(p.source)
		if err != nil {
			return nil, errors.E(err, "paralog region", p.name)
		}
		dst, err := interval.ParseRegionString(p.target)
		if err != nil {
			return nil, errors.E(err, "paralog region", p.name)
		}
		cfg.Paralogs = append(cfg.Paralogs, ParalogRegion{Name: p.name, Source: src, Target: dst})
	}
	return cfg, nil
}

// LoadMultiMappedRegions replaces the multi-mapped region list with the
// contents of a BED file.
func (c *RegionConfig) LoadMultiMappedRegions(ctx context.Context, path string) error {
	s, err := interval.NewRegionSetFromPath(ctx, path, interval.Opts{})
	if err != nil {
		return errors.E(err, "load multi-mapped regions", path)
	}
	c.MultiMapped = s
	return nil
}

// InMultiMappedRegion checks if the 1-based range [start, end] on chrom
// intersects a multi-mapped region.
func (c *RegionConfig) InMultiMappedRegion(chrom string, start, end int) bool {
	if c == nil || c.MultiMapped == nil {
		return false
	}
	return c.MultiMapped.Overlaps(chrom, interval.PosType(start-1), interval.PosType(end))
}

func entryOverlaps(e interval.Entry, chrom string, start, end int) bool {
	return e.ChrName == chrom && int(e.Start0) < end && int(e.End) >= start
}
