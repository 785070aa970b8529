package sv

import (
	"math/rand"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
)

// testSequence returns n pseudo-random bases.
func testSequence(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[r.Intn(4)]
	}
	return seq
}

// testHit builds an aligner hit for cigar placed at the 1-based reference
// position refPos. The query span follows the CIGAR clips, and the score is
// the number of aligned bases.
func testHit(chrom string, refPos int, cigar string, reverse bool, mapQual int) AlignmentHit {
	c, err := sam.ParseCigar([]byte(cigar))
	if err != nil {
		panic(err)
	}
	left, _ := cigarClips(c)
	hit := AlignmentHit{
		Chromosome: chrom,
		RefStart:   refPos - 1,
		RefEnd:     refPos - 1 + cigarRefLength(c) - 1,
		QueryStart: left,
		QueryEnd:   left + cigarQueryLength(c) - 1,
		MapQual:    mapQual,
		Score:      cigarAlignedBases(c),
		Cigar:      cigar,
	}
	if reverse {
		hit.Flags = sam.Reverse
	}
	return hit
}

func testAlignData(t *testing.T, hit AlignmentHit, fullSeq []byte) *AlignData {
	a, err := NewAlignData(hit)
	assert.NoError(t, err)
	a.SetFullSequenceData(fullSeq, len(fullSeq))
	assert.False(t, a.Invalid)
	return a
}

// testRef is an in-memory RefSource.
type testRef map[string]string

func (r testRef) Get(seqName string, start, end uint64) (string, error) {
	seq, ok := r[seqName]
	if !ok || end > uint64(len(seq)) || start > end {
		return "", errNoSuchRange
	}
	return seq[start:end], nil
}

type refError string

func (e refError) Error() string { return string(e) }

const errNoSuchRange = refError("no such range")

// testAssembly filters and builds the breakends of an assembly.
func testAssembly(t *testing.T, fullSeq []byte, ref RefSource, opts Opts, hits ...AlignmentHit) (*AssemblyAlignment, Stats) {
	asm := &AssemblyAlignment{ID: "asm", FullSequence: fullSeq}
	for _, hit := range hits {
		asm.Alignments = append(asm.Alignments, testAlignData(t, hit, fullSeq))
	}
	var stats Stats
	filtered := FilterAlignments(asm.Alignments, fullSeq, nil, opts, &stats)
	BuildBreakends(asm, filtered, ref, nil, opts, &stats)
	return asm, stats
}
