package main

// bio-breakend turns assembled junction contigs into structural variant
// breakends.
//
// Each assembly from --assemblies is looked up in --alignments, a SAM or BAM
// file with the aligner output for the assembly sequences (and for any
// soft clips that should be requeried). Alignments are filtered, breakends are
// formed and the support reads from --reads are allocated to them.
//
// Example:
//
//    bio-breakend --assemblies=asm.tsv --reads=reads.tsv.gz --alignments=asm.bam \
//      --reference=hg38.fa --ref-genome-version=38 --breakend-output=breakends.tsv
//
// The --rio-output dump can be turned back into TSV without realigning:
//
//    bio-breakend --rio-input=results.rio --breakend-output=breakends.tsv

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/breakend/aligner"
	"github.com/grailbio/breakend/refgenome"
	"github.com/grailbio/breakend/sv"
	"github.com/grailbio/breakend/svio"
)

// Collection of options set via cmdline flags
type breakendFlags struct {
	assemblyPath     string
	readsPath        string
	alignmentPath    string
	referencePath    string
	refGenomeVersion string
	multiMappedPath  string
	breakendOutput   string
	alignmentOutput  string
	readOutput       string
	rioOutput        string
	rioInput         string
	threads          int
}

func parseTech(s string) (sv.SequencingTech, error) {
	switch strings.ToLower(s) {
	case "illumina":
		return sv.Illumina, nil
	case "sbx":
		return sv.SBX, nil
	}
	return sv.Illumina, fmt.Errorf("unknown sequencing technology %q", s)
}

func loadRegionConfig(ctx context.Context, flags breakendFlags) (*sv.RegionConfig, error) {
	version, err := sv.ParseRefGenomeVersion(flags.refGenomeVersion)
	if err != nil {
		return nil, err
	}
	cfg, err := sv.NewRegionConfig(version)
	if err != nil {
		return nil, err
	}
	if flags.multiMappedPath != "" {
		if err := cfg.LoadMultiMappedRegions(ctx, flags.multiMappedPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// resolve runs the whole pipeline and writes the outputs.
func resolve(ctx context.Context, flags breakendFlags, opts sv.Opts) (stats sv.Stats, err error) {
	if flags.assemblyPath == "" || flags.alignmentPath == "" {
		return stats, errors.E(errors.Invalid, "--assemblies and --alignments are required")
	}
	cfg, err := loadRegionConfig(ctx, flags)
	if err != nil {
		return stats, err
	}
	var ref sv.RefSource
	if flags.referencePath != "" {
		r, err := refgenome.Open(ctx, flags.referencePath)
		if err != nil {
			return stats, err
		}
		defer func() {
			if cerr := r.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
		}()
		ref = r
	} else {
		log.Printf("No reference genome: indel homology is disabled")
	}
	index, err := aligner.Load(ctx, flags.alignmentPath)
	if err != nil {
		return stats, err
	}
	assemblies, err := svio.LoadAssemblies(ctx, flags.assemblyPath, flags.readsPath)
	if err != nil {
		return stats, err
	}

	tsvOut, err := svio.NewTSVWriter(ctx, flags.breakendOutput, flags.alignmentOutput, flags.readOutput)
	if err != nil {
		return stats, err
	}
	sinks := svio.MultiSink{tsvOut}
	var rioOut *svio.ResultWriter
	if flags.rioOutput != "" {
		if rioOut, err = svio.NewResultWriter(ctx, flags.rioOutput, opts); err != nil {
			return stats, err
		}
		sinks = append(sinks, rioOut)
	}

	p := sv.NewProcessor(index, ref, cfg, opts)
	stats, err = sv.RunPool(ctx, assemblies, flags.threads, p.Process, sinks)
	once := errors.Once{}
	once.Set(err)
	once.Set(tsvOut.Close(ctx))
	if rioOut != nil {
		once.Set(rioOut.Close(ctx, stats))
	}
	log.Printf("Stats: %v", stats)
	return stats, once.Err()
}

// reemit converts a recordio dump back into TSV.
func reemit(ctx context.Context, flags breakendFlags) (sv.Stats, error) {
	r, err := svio.NewResultReader(ctx, flags.rioInput)
	if err != nil {
		return sv.Stats{}, err
	}
	tsvOut, err := svio.NewTSVWriter(ctx, flags.breakendOutput, flags.alignmentOutput, flags.readOutput)
	if err != nil {
		r.Close(ctx) // nolint: errcheck
		return sv.Stats{}, err
	}
	once := errors.Once{}
	n := 0
	for r.Scan() {
		once.Set(tsvOut.WriteResult(r.Get()))
		n++
	}
	once.Set(r.Close(ctx))
	once.Set(tsvOut.Close(ctx))
	log.Printf("Re-emitted %d results from %s", n, flags.rioInput)
	return r.Stats(), once.Err()
}

func usage() {
	fmt.Fprintln(os.Stderr, `
bio-breakend forms structural variant breakends from aligned assemblies.

Usage:
  bio-breakend --assemblies=<tsv> --alignments=<bam|sam> [flags]
  bio-breakend --rio-input=<rio> [flags]

Flags:`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	opts := sv.DefaultOpts
	flags := breakendFlags{}
	var tech string
	flag.StringVar(&flags.assemblyPath, "assemblies", "", "TSV file of assemblies.")
	flag.StringVar(&flags.readsPath, "reads", "", "TSV file of the reads supporting the assemblies.")
	flag.StringVar(&flags.alignmentPath, "alignments", "", `SAM or BAM file with the alignments of the assembly
sequences. Records are matched to assemblies by sequence.`)
	flag.StringVar(&flags.referencePath, "reference", "", "Reference FASTA, optionally gzipped or with a .fai index. Needed for indel homology.")
	flag.StringVar(&flags.refGenomeVersion, "ref-genome-version", "37", "Reference genome version, 37 or 38.")
	flag.StringVar(&flags.multiMappedPath, "multi-mapped-regions", "", "BED file replacing the built-in multi-mapped region list.")
	flag.StringVar(&flags.breakendOutput, "breakend-output", "./breakends.tsv", "TSV file to store breakends.")
	flag.StringVar(&flags.alignmentOutput, "alignment-output", "", "If set, TSV file to store all assembly alignments.")
	flag.StringVar(&flags.readOutput, "read-output", "", "If set, TSV file to store read support annotations.")
	flag.StringVar(&flags.rioOutput, "rio-output", "", "If set, recordio file to store all results.")
	flag.StringVar(&flags.rioInput, "rio-input", "", `If set, read results from this recordio file and only
write the TSV outputs.`)
	flag.IntVar(&flags.threads, "threads", runtime.NumCPU(), "Number of worker threads.")
	flag.StringVar(&tech, "tech", "illumina", "Sequencing technology, illumina or sbx.")
	flag.IntVar(&opts.NumSamples, "samples", sv.DefaultOpts.NumSamples, "Number of samples in the support reads.")
	flag.IntVar(&opts.MinMapQualNoAlts, "min-mapq", sv.DefaultOpts.MinMapQualNoAlts, "Minimum mapping quality of an alignment without alternative mappings.")
	flag.Float64Var(&opts.MinModMapQual, "min-mod-mapq", sv.DefaultOpts.MinModMapQual, "Minimum modified mapping quality of a breakend anchor.")
	flag.IntVar(&opts.MinAnchorLength, "min-anchor-length", sv.DefaultOpts.MinAnchorLength, "Minimum adjusted alignment length of a breakend anchor.")
	flag.IntVar(&opts.IndelMinLength, "min-indel-length", sv.DefaultOpts.IndelMinLength, "Minimum length of an alignment indel called as a variant.")
	flag.IntVar(&opts.MinSglClipLength, "min-sgl-clip-length", sv.DefaultOpts.MinSglClipLength, "Minimum unaligned length of a single breakend.")
	flag.IntVar(&opts.ShortSVMaxDistance, "short-sv-max-distance", sv.DefaultOpts.ShortSVMaxDistance,
		"Maximum distance between two low mapping quality alignments rescued as a short local variant.")
	flag.IntVar(&opts.MaxFacingDistance, "max-facing-distance", sv.DefaultOpts.MaxFacingDistance, "Maximum distance between facing breakends.")
	flag.IntVar(&opts.RequeryMinClipLength, "requery-min-clip-length", sv.DefaultOpts.RequeryMinClipLength, "Minimum length of a soft clip sent back to the aligner.")
	flag.IntVar(&opts.MinVariantLength, "min-variant-length", sv.DefaultOpts.MinVariantLength, "Minimum length of a reported local variant.")
	flag.IntVar(&opts.MaxConcordantFragmentLength, "max-concordant-fragment-length", sv.DefaultOpts.MaxConcordantFragmentLength,
		"Maximum distance between a discordant read and the breakend it supports.")
	flag.IntVar(&opts.MaxFragmentLength, "max-fragment-length", sv.DefaultOpts.MaxFragmentLength, "Maximum inferred fragment length.")

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	var err error
	if opts.Tech, err = parseTech(tech); err != nil {
		log.Fatalf("%v", err)
	}
	if flags.rioInput != "" {
		_, err = reemit(ctx, flags)
	} else {
		_, err = resolve(ctx, flags, opts)
	}
	if err != nil {
		log.Fatalf("bio-breakend: %v", err)
	}
	log.Printf("All done")
}
