package aligner

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/breakend/sv"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 100000, nil, nil)
	chr5, _   = sam.NewReference("chr5", "", "", 100000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr5})
)

func testSequence(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[r.Intn(4)]
	}
	return seq
}

func newRecord(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags, cigar string, seq []byte, aux ...sam.Aux) *sam.Record {
	c, err := sam.ParseCigar([]byte(cigar))
	assert.NoError(t, err)
	r, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, c, seq, nil, aux)
	assert.NoError(t, err)
	r.Flags = flags
	return r
}

func newAux(t *testing.T, name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	assert.NoError(t, err)
	return aux
}

// testRecords returns the records of a split query along with the query.
func testRecords(t *testing.T) ([]*sam.Record, []byte) {
	seq := testSequence(200, 1)
	primary := newRecord(t, "asm1", chr1, 1000, 0, "100M100S", seq,
		newAux(t, "AS", 95), newAux(t, "NM", 1), newAux(t, "MD", "50A49"),
		newAux(t, "XA", "chr5,-7001,100M,2;"))
	supp := newRecord(t, "asm1", chr5, 5000, sam.Reverse|sam.Supplementary, "100M100H",
		sv.ReverseComplement(seq[100:]))
	secondary := newRecord(t, "asm1", chr5, 9000, sam.Secondary, "100M100S", seq)
	return []*sam.Record{primary, supp, secondary}, seq
}

func TestAlign(t *testing.T) {
	ctx := vcontext.Background()
	records, seq := testRecords(t)
	reverseSeq := testSequence(150, 2)
	records = append(records, newRecord(t, "asm2", chr1, 3000, sam.Reverse, "150M", sv.ReverseComplement(reverseSeq)))
	unmappedSeq := testSequence(80, 3)
	unmapped, err := sam.NewRecord("asm3", nil, nil, -1, -1, 0, 0, nil, unmappedSeq, nil, nil)
	assert.NoError(t, err)
	unmapped.Flags = sam.Unmapped
	records = append(records, unmapped)

	x, err := NewIndex(records)
	assert.NoError(t, err)
	expect.EQ(t, x.Len(), 3)

	hits, err := x.Align(ctx, seq)
	assert.NoError(t, err)
	assert.EQ(t, len(hits), 2)
	expect.EQ(t, hits[0], sv.AlignmentHit{
		Chromosome:    "chr1",
		RefStart:      1000,
		RefEnd:        1099,
		QueryStart:    0,
		QueryEnd:      99,
		MapQual:       60,
		Score:         95,
		Cigar:         "100M100S",
		NumMismatches: 1,
		AltTag:        "chr5,-7001,100M,2;",
		MismatchTag:   "50A49",
	})
	expect.EQ(t, hits[1].Chromosome, "chr5")
	expect.EQ(t, hits[1].RefStart, 5000)
	expect.EQ(t, hits[1].RefEnd, 5099)
	expect.EQ(t, hits[1].QueryStart, 0)
	expect.EQ(t, hits[1].QueryEnd, 99)
	expect.EQ(t, hits[1].Score, 100)
	expect.EQ(t, hits[1].Flags, sam.Reverse|sam.Supplementary)

	// Callers own the returned slice.
	hits[0].Chromosome = "changed"
	hits, err = x.Align(ctx, seq)
	assert.NoError(t, err)
	expect.EQ(t, hits[0].Chromosome, "chr1")

	hits, err = x.Align(ctx, reverseSeq)
	assert.NoError(t, err)
	assert.EQ(t, len(hits), 1)
	expect.EQ(t, hits[0].Flags, sam.Reverse)

	hits, err = x.Align(ctx, unmappedSeq)
	assert.NoError(t, err)
	expect.EQ(t, len(hits), 0)
	hits, err = x.Align(ctx, testSequence(100, 4))
	assert.NoError(t, err)
	expect.EQ(t, len(hits), 0)
}

func TestHitFromRecordClips(t *testing.T) {
	seq := testSequence(117, 5)
	r := newRecord(t, "q", chr1, 100, sam.Supplementary, "5H10S50M2I3D30M25S", seq)
	hit := HitFromRecord(r)
	expect.EQ(t, hit.QueryStart, 15)
	expect.EQ(t, hit.QueryEnd, 15+82-1)
	expect.EQ(t, hit.RefEnd, 100+83-1)
	expect.EQ(t, hit.Score, 80)
}

func TestNewIndexErrors(t *testing.T) {
	records, seq := testRecords(t)
	_, err := NewIndex(records[1:])
	expect.NotNil(t, err)
	_, err = NewIndex(append(records, newRecord(t, "asm1", chr1, 1000, 0, "100M100S", seq)))
	expect.NotNil(t, err)
	_, err = NewIndex([]*sam.Record{newRecord(t, "asm1", chr1, 1000, 0, "100M100H", seq[:100])})
	expect.NotNil(t, err)

	// A repeated sequence under another name keeps the first query.
	dup := newRecord(t, "asm9", chr5, 2000, 0, "200M", seq)
	x, err := NewIndex(append(records, dup))
	assert.NoError(t, err)
	expect.EQ(t, x.Len(), 1)
	hits, err := x.Align(vcontext.Background(), seq)
	assert.NoError(t, err)
	expect.EQ(t, hits[0].Chromosome, "chr1")
}

func TestLoad(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	records, seq := testRecords(t)

	samPath := filepath.Join(tempDir, "asm.sam")
	f, err := os.Create(samPath)
	assert.NoError(t, err)
	sw, err := sam.NewWriter(f, header, sam.FlagDecimal)
	assert.NoError(t, err)
	for _, r := range records {
		assert.NoError(t, sw.Write(r))
	}
	assert.NoError(t, f.Close())

	bamPath := filepath.Join(tempDir, "asm.bam")
	f, err = os.Create(bamPath)
	assert.NoError(t, err)
	bw, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)
	for _, r := range records {
		assert.NoError(t, bw.Write(r))
	}
	assert.NoError(t, bw.Close())
	assert.NoError(t, f.Close())

	for _, path := range []string{samPath, bamPath} {
		x, err := Load(ctx, path)
		assert.NoError(t, err, path)
		hits, err := x.Align(ctx, seq)
		assert.NoError(t, err, path)
		assert.EQ(t, len(hits), 2, path)
		expect.EQ(t, hits[0].Score, 95, path)
		expect.EQ(t, hits[0].NumMismatches, 1, path)
		expect.EQ(t, hits[0].MismatchTag, "50A49", path)
		expect.EQ(t, hits[1].Cigar, "100M100H", path)
	}
	_, err = Load(ctx, filepath.Join(tempDir, "missing.bam"))
	expect.NotNil(t, err)
}
