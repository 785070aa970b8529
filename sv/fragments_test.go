package sv

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// testDeletion creates an assembly holding a deletion between two breakends.
func testDeletion(lowerPos, upperPos int) *AssemblyAlignment {
	asm := &AssemblyAlignment{ID: "asm"}
	lower := newBreakend("1", lowerPos, Forward, 2)
	upper := newBreakend("1", upperPos, Reverse, 2)
	asm.addBreakend(lower)
	asm.addBreakend(upper)
	asm.linkPair(lower, upper)
	return asm
}

func testRead(id string, flags sam.Flags, start, end int) SupportRead {
	return SupportRead{
		ID:             id,
		Flags:          flags | sam.Paired,
		Chromosome:     "1",
		UnclippedStart: start,
		UnclippedEnd:   end,
		FullIndexStart: -1,
		FullIndexEnd:   -1,
	}
}

func TestShortDeletionDiscordantSupportDropped(t *testing.T) {
	asm := testDeletion(1000, 1004)
	assert.EQ(t, asm.Breakends[0].Type, DEL)
	assert.EQ(t, asm.Breakends[0].SvLength(asm), 3)
	asm.Reads = []SupportRead{
		testRead("frag1", sam.Read1, 800, 899),
		testRead("frag1", sam.Read2|sam.Reverse, 1100, 1199),
	}
	var stats Stats
	AllocateFragments(asm, DefaultOpts, &stats)
	for _, b := range asm.Breakends {
		expect.EQ(t, b.Support, []SampleSupport{{}, {}})
		expect.EQ(t, b.ForwardReads+b.ReverseReads, 0)
		expect.EQ(t, b.FragLengthCount+b.IncompleteFragments, 0)
	}
	for _, r := range asm.Reads {
		expect.EQ(t, r.Support, NoSupport)
		expect.EQ(t, r.BreakendIndex, -1)
	}
	expect.EQ(t, stats.SkippedShortFragments, 1)

	// Split evidence keeps the fragment.
	asm.Reads[0].UnclippedStart, asm.Reads[0].UnclippedEnd = 950, 1049
	AllocateFragments(asm, DefaultOpts, &stats)
	split, discordant := asm.Breakends[0].TotalSupport()
	expect.EQ(t, split, 1)
	expect.EQ(t, discordant, 0)
}

func TestSplitPairSupport(t *testing.T) {
	asm := testDeletion(1000, 2001)
	r1 := testRead("frag1", sam.Read1, 950, 1049)
	r1.FullIndexStart, r1.FullIndexEnd = 0, 99
	r1.Sample = 1
	r2 := testRead("frag1", sam.Read2|sam.Reverse, 2100, 2199)
	r2.FullIndexStart, r2.FullIndexEnd = 150, 249
	r2.Sample = 1
	asm.Reads = []SupportRead{r1, r2, r1}

	var stats Stats
	AllocateFragments(asm, DefaultOpts, &stats)
	for _, b := range asm.Breakends {
		expect.EQ(t, b.Support, []SampleSupport{{}, {Split: 1}})
		expect.EQ(t, b.ForwardReads, 1)
		expect.EQ(t, b.ReverseReads, 0)
		expect.EQ(t, b.FragLengthTotal, 250)
		expect.EQ(t, b.AverageFragmentLength(), 250.0)
		expect.EQ(t, b.IncompleteFragments, 0)
	}
	// The repeated read shares its original's annotation.
	for _, r := range asm.Reads {
		expect.EQ(t, r.Support, SplitSupport)
		expect.EQ(t, r.BreakendIndex, 0)
		expect.EQ(t, r.InferredFragmentLength, 250)
	}
	expect.EQ(t, stats.SplitFragments, 1)
	expect.EQ(t, stats.DiscordantFragments, 0)
}

func TestDiscordantPairSupport(t *testing.T) {
	asm := testDeletion(1000, 2001)
	asm.Reads = []SupportRead{
		testRead("frag1", sam.Read1, 800, 899),
		testRead("frag1", sam.Read2|sam.Reverse, 2100, 2199),
		// Too far from any breakend.
		testRead("frag2", sam.Read1, 3000, 3099),
	}
	var stats Stats
	AllocateFragments(asm, DefaultOpts, &stats)
	for _, b := range asm.Breakends {
		expect.EQ(t, b.Support[0], SampleSupport{Discordant: 1})
		// Neither mate has an assembly span, so there is no fragment length.
		expect.EQ(t, b.IncompleteFragments, 1)
		expect.EQ(t, b.FragLengthCount, 0)
	}
	expect.EQ(t, asm.Reads[0].Support, DiscordantSupport)
	expect.EQ(t, asm.Reads[1].Support, DiscordantSupport)
	expect.EQ(t, asm.Reads[2].Support, NoSupport)
	expect.EQ(t, stats.DiscordantFragments, 1)
	expect.EQ(t, stats.IncompleteFragments, 1)
}

func TestSequenceSpanSupport(t *testing.T) {
	asm := &AssemblyAlignment{ID: "asm"}
	b := newBreakend("1", 1000, Forward, 1)
	b.Segments = []BreakendSegment{{SequenceIndex: 99, JunctionFollows: true, IndelSeqStart: -1, IndelSeqEnd: -1}}
	asm.addBreakend(b)
	b.Type = SGL

	// Misaligned read: the reference span misses the junction but the
	// assembly span crosses it.
	r := testRead("frag1", 0, 500, 599)
	r.Chromosome = "2"
	r.FullIndexStart, r.FullIndexEnd = 50, 149
	asm.Reads = []SupportRead{r}
	var stats Stats
	AllocateFragments(asm, DefaultOpts, &stats)
	expect.EQ(t, b.Support[0], SampleSupport{Split: 1})

	seg := BreakendSegment{IndelSeqStart: 49, IndelSeqEnd: 50}
	r.FullIndexStart, r.FullIndexEnd = 10, 60
	expect.True(t, readSpansSegment(&r, seg))
	r.FullIndexStart, r.FullIndexEnd = 10, 49
	expect.False(t, readSpansSegment(&r, seg))
	seg = BreakendSegment{SequenceIndex: 100, IndelSeqStart: -1}
	r.FullIndexStart, r.FullIndexEnd = 100, 149
	expect.False(t, readSpansSegment(&r, seg))
	r.FullIndexStart = 99
	expect.True(t, readSpansSegment(&r, seg))
}

func TestSoloFragmentLength(t *testing.T) {
	b := newBreakend("1", 1000, Forward, 1)
	asm := &AssemblyAlignment{ExpectedIndel: &ExpectedIndel{Deletion: true, Length: 100}}
	r := testRead("frag1", sam.Read1, 890, 990)
	r.InsertSize = 400

	// The mate lies across the deletion.
	l, ok := soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.True(t, ok)
	expect.EQ(t, l, 300)
	asm.ExpectedIndel.Deletion = false
	l, _ = soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.EQ(t, l, 500)

	// The read itself crosses the junction.
	r.UnclippedStart, r.UnclippedEnd, r.SoftClipRight = 1010, 1109, 20
	l, _ = soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.EQ(t, l, 420)

	asm.ExpectedIndel = nil
	l, ok = soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.True(t, ok)
	expect.EQ(t, l, 400)
	r.InsertSize = -6000
	_, ok = soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.False(t, ok)
	r.InsertSize = 0
	_, ok = soloFragmentLength(asm, &r, b, DefaultOpts)
	expect.False(t, ok)
}

func TestBreakendIndexClosest(t *testing.T) {
	var breakends []*Breakend
	for i, pos := range []int{1000, 1200, 1100, 1300, 5000} {
		orient := Forward
		if i%2 == 0 {
			orient = Reverse
		}
		b := newBreakend("1", pos, orient, 1)
		b.Index = i
		breakends = append(breakends, b)
	}
	x := newBreakendIndex(breakends)
	// Forward: 1200 (index 1) and 1300 (index 3).
	expect.EQ(t, x.closestDownstream("1", 899, Forward, 1000), 1)
	expect.EQ(t, x.closestDownstream("1", 1201, Forward, 1000), 3)
	expect.EQ(t, x.closestDownstream("1", 1201, Forward, 98), -1)
	expect.EQ(t, x.closestDownstream("1", 1201, Forward, 99), 3)
	expect.EQ(t, x.closestDownstream("2", 899, Forward, 1000), -1)
	// Reverse: 1000 (index 0), 1100 (index 2) and 5000 (index 4).
	expect.EQ(t, x.closestUpstream("1", 1500, Reverse, 1000), 2)
	expect.EQ(t, x.closestUpstream("1", 1099, Reverse, 1000), 0)
	expect.EQ(t, x.closestUpstream("1", 1099, Reverse, 98), -1)
	expect.EQ(t, x.closestUpstream("1", 1098, Reverse, 98), 0)
	expect.EQ(t, x.closestUpstream("1", 6000, Reverse, 1000), 4)
	expect.EQ(t, x.closestUpstream("1", 6000, Reverse, -1), -1)
}
