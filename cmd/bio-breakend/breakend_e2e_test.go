package main

import (
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/breakend/sv"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func randomBases(r *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[r.Intn(4)]
	}
	return seq
}

type testInputs struct {
	dir                           string
	assemblies, reads, alignments string
	reference                     string
	deletionSeq, translocationSeq []byte
}

// writeTestInputs creates a reference with chromosomes 1 and 2, and three
// assemblies: a 200-base deletion on 1, a 1:2 translocation and one with no
// alignments.
func writeTestInputs(t *testing.T, dir string) testInputs {
	r := rand.New(rand.NewSource(1))
	chr1, chr2 := randomBases(r, 3000), randomBases(r, 3000)
	// No homology at the deletion junction.
	chr1[1099], chr1[1100], chr1[1299], chr1[1300] = 'T', 'A', 'G', 'C'

	in := testInputs{
		dir:        dir,
		assemblies: filepath.Join(dir, "assemblies.tsv"),
		reads:      filepath.Join(dir, "reads.tsv"),
		alignments: filepath.Join(dir, "alignments.sam"),
		reference:  filepath.Join(dir, "ref.fa"),
	}
	in.deletionSeq = append(append([]byte{}, chr1[1000:1100]...), chr1[1300:1400]...)
	in.translocationSeq = append(append([]byte{}, chr1[500:600]...), chr2[2000:2100]...)

	fa := ">1\n" + string(chr1) + "\n>2\n" + string(chr2) + "\n"
	assert.NoError(t, ioutil.WriteFile(in.reference, []byte(fa), 0644))

	asm := "assembly\tsequence\tlinked\tphase_chain_length\texpected_indel\tsub_assemblies\tdeclared_facing\n" +
		"asm1\t" + string(in.deletionSeq) + "\tfalse\t1\t.\t.\t.\n" +
		"asm2\t" + string(in.translocationSeq) + "\tfalse\t1\t.\t.\t.\n" +
		"asm3\t" + string(randomBases(r, 150)) + "\tfalse\t1\t.\t.\t.\n"
	assert.NoError(t, ioutil.WriteFile(in.assemblies, []byte(asm), 0644))

	reads := "assembly\tread\tsample\tflags\tchrom\tunclipped_start\tunclipped_end\tsoft_clip_left\tsoft_clip_right\tinsert_size\tfull_index_start\tfull_index_end\textension\n" +
		"asm2\tfrag1\t0\t65\t1\t550\t649\t0\t50\t0\t50\t149\t0\n" +
		"asm1\tfrag2\t0\t65\t1\t1051\t1150\t0\t0\t0\t50\t149\t0\n"
	assert.NoError(t, ioutil.WriteFile(in.reads, []byte(reads), 0644))

	ref1, err := sam.NewReference("1", "", "", len(chr1), nil, nil)
	assert.NoError(t, err)
	ref2, err := sam.NewReference("2", "", "", len(chr2), nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref1, ref2})
	assert.NoError(t, err)
	record := func(name string, ref *sam.Reference, pos int, flags sam.Flags, cigar string, seq []byte) *sam.Record {
		c, err := sam.ParseCigar([]byte(cigar))
		assert.NoError(t, err)
		rec, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, c, seq, nil, nil)
		assert.NoError(t, err)
		rec.Flags = flags
		return rec
	}
	f, err := os.Create(in.alignments)
	assert.NoError(t, err)
	w, err := sam.NewWriter(f, header, sam.FlagDecimal)
	assert.NoError(t, err)
	for _, rec := range []*sam.Record{
		record("asm1", ref1, 1000, 0, "100M200D100M", in.deletionSeq),
		record("asm2", ref1, 500, 0, "100M100S", in.translocationSeq),
		record("asm2", ref2, 2000, sam.Supplementary, "100H100M", in.translocationSeq[100:]),
	} {
		assert.NoError(t, w.Write(rec))
	}
	assert.NoError(t, f.Close())
	return in
}

func readRows(t *testing.T, path string) (string, []string) {
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	rows := lines[1:]
	sort.Strings(rows)
	return lines[0], rows
}

func TestResolveE2E(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := writeTestInputs(t, tempDir)

	flags := breakendFlags{
		assemblyPath:     in.assemblies,
		readsPath:        in.reads,
		alignmentPath:    in.alignments,
		referencePath:    in.reference,
		refGenomeVersion: "37",
		breakendOutput:   filepath.Join(tempDir, "breakends.tsv"),
		alignmentOutput:  filepath.Join(tempDir, "alignments.tsv"),
		readOutput:       filepath.Join(tempDir, "reads.out.tsv"),
		rioOutput:        filepath.Join(tempDir, "results.rio"),
		threads:          2,
	}
	stats, err := resolve(ctx, flags, sv.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, stats.Assemblies, 3)
	expect.EQ(t, stats.IndelBreakends, 2)
	expect.EQ(t, stats.ChainBreakends, 2)
	expect.EQ(t, stats.SplitFragments, 2)

	_, rows := readRows(t, flags.breakendOutput)
	assert.EQ(t, len(rows), 4)
	prefixes := []string{
		"asm1\t0\t1\t1100\t1\tDEL\t200\t1\t",
		"asm1\t1\t1\t1301\t-1\tDEL\t200\t0\t",
		"asm2\t0\t1\t600\t1\tBND\t0\t1\t",
		"asm2\t1\t2\t2001\t-1\tBND\t0\t0\t",
	}
	for i, row := range rows {
		expect.True(t, strings.HasPrefix(row, prefixes[i]), "row %d: %s", i, row)
	}
	_, rows = readRows(t, flags.alignmentOutput)
	expect.EQ(t, len(rows), 3)
	_, rows = readRows(t, flags.readOutput)
	expect.EQ(t, rows, []string{
		"asm1\tfrag2\t0\tSPLIT\t0\t0",
		"asm2\tfrag1\t0\tSPLIT\t0\t0",
	})

	// Re-emit the recordio dump.
	reflags := breakendFlags{
		rioInput:       flags.rioOutput,
		breakendOutput: filepath.Join(tempDir, "breakends2.tsv"),
	}
	restats, err := reemit(ctx, reflags)
	assert.NoError(t, err)
	expect.EQ(t, restats, stats)
	header1, rows1 := readRows(t, flags.breakendOutput)
	header2, rows2 := readRows(t, reflags.breakendOutput)
	expect.EQ(t, header2, header1)
	expect.EQ(t, rows2, rows1)
}

func TestResolveWithoutReference(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := writeTestInputs(t, tempDir)

	flags := breakendFlags{
		assemblyPath:     in.assemblies,
		alignmentPath:    in.alignments,
		refGenomeVersion: "37",
		breakendOutput:   filepath.Join(tempDir, "breakends.tsv"),
		threads:          1,
	}
	stats, err := resolve(ctx, flags, sv.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, stats.IndelBreakends, 2)
	expect.EQ(t, stats.SplitFragments, 0)
	_, rows := readRows(t, flags.breakendOutput)
	expect.EQ(t, len(rows), 4)
}

func TestResolveErrors(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := writeTestInputs(t, tempDir)

	good := breakendFlags{
		assemblyPath:     in.assemblies,
		alignmentPath:    in.alignments,
		refGenomeVersion: "37",
		breakendOutput:   filepath.Join(tempDir, "breakends.tsv"),
		threads:          1,
	}
	for i, mutate := range []func(*breakendFlags){
		func(f *breakendFlags) { f.assemblyPath = "" },
		func(f *breakendFlags) { f.refGenomeVersion = "36" },
		func(f *breakendFlags) { f.alignmentPath = filepath.Join(tempDir, "missing.bam") },
		func(f *breakendFlags) { f.referencePath = filepath.Join(tempDir, "missing.fa") },
		func(f *breakendFlags) { f.multiMappedPath = filepath.Join(tempDir, "missing.bed") },
	} {
		flags := good
		mutate(&flags)
		_, err := resolve(ctx, flags, sv.DefaultOpts)
		expect.NotNil(t, err, "case %d", i)
	}
	_, err := reemit(ctx, breakendFlags{rioInput: filepath.Join(tempDir, "missing.rio")})
	expect.NotNil(t, err)

	tech, err := parseTech("SBX")
	assert.NoError(t, err)
	expect.EQ(t, tech, sv.SBX)
	_, err = parseTech("nanopore")
	expect.NotNil(t, err)
}
