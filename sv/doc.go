// Package sv resolves assembled junction contigs into structural variant
// breakends.
//
// An AssemblyAlignment carries one assembled sequence, the aligner hits for
// it and the reads that built it. Processor.Process runs the stages in order:
//
//   - normalization of aligner hits into AlignData, with soft clips that no
//     other alignment explains sent back to the Aligner;
//   - FilterAlignments, which drops redundant and low-quality alignments and
//     rescues low mapping quality alignments that have a nearby alternative
//     location;
//   - BuildBreakends, which forms breakends from an alignment indel, a long
//     soft clip (a single breakend) or adjacent alignments of a chain, with
//     junction homology from DetermineHomology or DetermineIndelHomology;
//   - VetoWeakExtension;
//   - AllocateFragments, which assigns every read fragment as split or
//     discordant support to at most one breakend.
//
// RunPool fans assemblies out over a fixed number of workers. Coordinates on
// AlignData and Breakend are 1-based; sequence indexes are 0-based.
package sv
