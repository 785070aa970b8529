package sv

import (
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestHomologySymmetry(t *testing.T) {
	seq := testSequence(200, 7)
	for n := 1; n <= 30; n++ {
		left := &AlignData{SequenceStart: 0, SequenceEnd: 99}
		right := &AlignData{SequenceStart: 100 - n, SequenceEnd: 199}
		h := DetermineHomology(seq, left, right)
		assert.NotNil(t, h)
		expect.EQ(t, h.Length(), n)
		expect.EQ(t, h.Homology, string(seq[100-n:100]))
		expect.True(t, -h.ExactStart == n/2 || -h.ExactStart == (n+1)/2, "overlap %d: %v", n, h)
		expect.EQ(t, h.InexactEnd-h.InexactStart, n)
	}
	// No overlap.
	expect.Nil(t, DetermineHomology(seq, &AlignData{SequenceEnd: 99}, &AlignData{SequenceStart: 100, SequenceEnd: 199}))
}

func TestHomologyMismatchSplit(t *testing.T) {
	seq := testSequence(200, 8)
	hit := testHit("1", 1001, "100M100S", false, 60)
	hit.MismatchTag = "96A3"
	left := testAlignData(t, hit, seq)
	right := testAlignData(t, testHit("2", 5001, "90S110M", false, 60), seq)

	// The left alignment mismatches the 7th overlap base, so the exact
	// homology stops before it while the inexact homology spans the overlap.
	h := DetermineHomology(seq, left, right)
	assert.NotNil(t, h)
	expect.EQ(t, *h, HomologyData{
		Homology:     string(seq[90:96]),
		ExactStart:   -3,
		ExactEnd:     3,
		InexactStart: -3,
		InexactEnd:   7,
	})
	expect.True(t, h.IsSymmetrical())
}

func TestHomologyInvert(t *testing.T) {
	for _, h := range []HomologyData{
		{Homology: "ACG", ExactStart: -2, ExactEnd: 1, InexactStart: -4, InexactEnd: 3},
		{Homology: "", ExactStart: 0, ExactEnd: 0, InexactStart: 0, InexactEnd: 0},
		{Homology: "AAAATC", ExactStart: -3, ExactEnd: 3, InexactStart: -3, InexactEnd: 3},
	} {
		expect.EQ(t, h.Invert(true, true).Invert(true, true), h)
		expect.EQ(t, h.Invert(true, false).Invert(true, false), h)
	}
	h := HomologyData{Homology: "ACG", ExactStart: -2, ExactEnd: 1, InexactStart: -4, InexactEnd: 3}
	expect.EQ(t, h.Invert(true, true), HomologyData{
		Homology: "CGT", ExactStart: -1, ExactEnd: 2, InexactStart: -3, InexactEnd: 4,
	})
	expect.EQ(t, h.PositionAdjustment(Forward), -3)
	expect.EQ(t, h.PositionAdjustment(Reverse), 4)
	expect.False(t, h.IsSymmetrical())
}

func TestIndelHomology(t *testing.T) {
	ref := testRef{"1": "GGGGACGTACGACCCC", "2": "GGGGacgtACGACCCC"}

	// Deleted ACGT followed by ACGA shares ACG.
	h := DetermineIndelHomology(ref, "1", 4, false, 4, "")
	assert.NotNil(t, h)
	expect.EQ(t, *h, HomologyData{Homology: "ACG", ExactStart: -2, ExactEnd: 1, InexactStart: -2, InexactEnd: 1})
	// Soft-masked reference bases.
	h = DetermineIndelHomology(ref, "2", 4, false, 4, "")
	assert.NotNil(t, h)
	expect.EQ(t, h.Length(), 3)

	h = DetermineIndelHomology(ref, "1", 4, true, 4, "ACGG")
	assert.NotNil(t, h)
	expect.EQ(t, h.Homology, "ACG")

	expect.Nil(t, DetermineIndelHomology(ref, "1", 4, true, 4, "TTTT"))
	expect.Nil(t, DetermineIndelHomology(nil, "1", 4, false, 4, ""))
	expect.Nil(t, DetermineIndelHomology(ref, "3", 4, false, 4, ""))
	expect.Nil(t, DetermineIndelHomology(ref, "1", 12, false, 4, ""))
	expect.Nil(t, DetermineIndelHomology(ref, "1", 4, true, 4, "ACG"))

	h = determineDupHomology(ref, "1", 5, 8)
	assert.NotNil(t, h)
	expect.EQ(t, h.Homology, "ACG")
}
