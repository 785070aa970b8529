package sv

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func testCigar(t *testing.T, s string) sam.Cigar {
	c, err := sam.ParseCigar([]byte(s))
	assert.NoError(t, err)
	return c
}

func TestCigarIndels(t *testing.T) {
	c := testCigar(t, "10S50M10D20M5I30M")
	expect.EQ(t, cigarIndels(c, 1001, 5), []cigarIndel{
		{OpIndex: 2, Insertion: false, Length: 10, RefBefore: 1050, QueryBefore: 59, LeftAligned: 50, RightAligned: 50},
		{OpIndex: 4, Insertion: true, Length: 5, RefBefore: 1080, QueryBefore: 79, LeftAligned: 70, RightAligned: 30},
	})
	indels := cigarIndels(c, 1001, 6)
	expect.EQ(t, len(indels), 1)
	expect.False(t, indels[0].Insertion)
	expect.EQ(t, len(cigarIndels(testCigar(t, "100M"), 1, 1)), 0)
}

func TestCigarLengths(t *testing.T) {
	c := testCigar(t, "5H10S50M10D20M5I30M3S")
	left, right := cigarClips(c)
	expect.EQ(t, left, 15)
	expect.EQ(t, right, 3)
	expect.EQ(t, cigarAlignedBases(c), 100)
	expect.EQ(t, cigarRefLength(c), 110)
	expect.EQ(t, cigarQueryLength(c), 105)
}

func TestMismatchArray(t *testing.T) {
	c := testCigar(t, "5M2I3M1D2M")
	expect.EQ(t, mismatchArray(c, "2A5^C0G1"),
		[]bool{false, false, true, false, false, true, true, false, false, false, true, false})
	// Too many reference bases.
	expect.Nil(t, mismatchArray(testCigar(t, "10M"), "50"))
	// A deletion in the tag where the CIGAR has a match.
	expect.Nil(t, mismatchArray(testCigar(t, "4M"), "2^A2"))
	expect.Nil(t, mismatchArray(testCigar(t, "4M"), "2*2"))
	expect.Nil(t, mismatchArray(testCigar(t, "4M"), ""))
}

func TestMarkRepeatRedundancy(t *testing.T) {
	expect.EQ(t, markRepeatRedundancy([]byte("AAAAAAC")),
		[]bool{false, true, true, true, true, true, false})
	expect.EQ(t, countMarked(markRepeatRedundancy([]byte("ACACACGT")), 0, 8), 4)
	expect.EQ(t, countMarked(markRepeatRedundancy([]byte("ACGTTGCA")), 0, 8), 0)
	// Four copies of a single base are not a repeat.
	expect.EQ(t, countMarked(markRepeatRedundancy([]byte("CAAAAC")), 0, 6), 0)
	expect.EQ(t, countMarked(markRepeatRedundancy([]byte("AAAAAAC")), 3, 100), 3)
}

func TestParseAltAlignments(t *testing.T) {
	alts := ParseAltAlignments("chr1,+1000,50M10D50M,20;chr2,-500,100M,0;bad;chr3,x1,10M,1;")
	assert.EQ(t, len(alts), 2)
	expect.EQ(t, alts[0], AlternativeAlignment{
		Chromosome: "chr1", Position: 1000, Orientation: Forward, Cigar: "50M10D50M", MapQual: 20, RefLength: 110,
	})
	expect.EQ(t, alts[0].End(), 1109)
	expect.EQ(t, alts[0].String(), "chr1,+1000,50M10D50M,20")
	expect.EQ(t, alts[1].Orientation, Reverse)
	expect.EQ(t, alts[1].String(), "chr2,-500,100M,0")
	expect.True(t, alts[1].Overlaps("chr2", 599, 700))
	expect.False(t, alts[1].Overlaps("chr2", 600, 700))
	expect.EQ(t, len(ParseAltAlignments("")), 0)
}
