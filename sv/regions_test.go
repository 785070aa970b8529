package sv

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestParseRefGenomeVersion(t *testing.T) {
	for _, test := range []struct {
		s    string
		want RefGenomeVersion
	}{
		{"37", V37},
		{"hg19", V37},
		{"GRCh37", V37},
		{"38", V38},
		{"hg38", V38},
		{"v38", V38},
	} {
		v, err := ParseRefGenomeVersion(test.s)
		assert.NoError(t, err, test.s)
		expect.EQ(t, v, test.want, test.s)
	}
	_, err := ParseRefGenomeVersion("hg18")
	expect.NotNil(t, err)

	expect.EQ(t, V37.ChromosomeName("chr1"), "1")
	expect.EQ(t, V37.ChromosomeName("X"), "X")
	expect.EQ(t, V38.ChromosomeName("1"), "chr1")
	expect.EQ(t, V38.ChromosomeName("chrX"), "chrX")
	expect.EQ(t, V38.String(), "V38")
}

func TestBuiltinRegions(t *testing.T) {
	for _, v := range []RefGenomeVersion{V37, V38} {
		cfg, err := NewRegionConfig(v)
		assert.NoError(t, err)
		expect.EQ(t, cfg.Version, v)
		expect.EQ(t, cfg.MultiMapped.Len(), 6)
		assert.EQ(t, len(cfg.Paralogs), 1)
		expect.EQ(t, cfg.Paralogs[0].Name, "PTENP1")
		expect.EQ(t, cfg.Paralogs[0].Target.ChrName, v.ChromosomeName("10"))
	}

	cfg, err := NewRegionConfig(V37)
	assert.NoError(t, err)
	expect.True(t, cfg.InMultiMappedRegion("1", 121484001, 121484100))
	expect.True(t, cfg.InMultiMappedRegion("1", 121483900, 121484000))
	expect.False(t, cfg.InMultiMappedRegion("1", 121483000, 121483999))
	expect.False(t, cfg.InMultiMappedRegion("1", 1000, 2000))
	expect.False(t, cfg.InMultiMappedRegion("chr1", 121484001, 121484100))

	var nilCfg *RegionConfig
	expect.False(t, nilCfg.InMultiMappedRegion("1", 121484001, 121484100))
}

func TestLoadMultiMappedRegions(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "multimapped.bed")
	bed := strings.Join([]string{
		"chr2\t999\t2000",
		"chr5\t100\t200",
		"",
	}, "\n")
	assert.NoError(t, ioutil.WriteFile(path, []byte(bed), 0644))

	cfg, err := NewRegionConfig(V38)
	assert.NoError(t, err)
	assert.NoError(t, cfg.LoadMultiMappedRegions(vcontext.Background(), path))
	expect.True(t, cfg.InMultiMappedRegion("chr2", 1000, 1000))
	expect.False(t, cfg.InMultiMappedRegion("chr2", 990, 999))
	expect.True(t, cfg.InMultiMappedRegion("chr5", 150, 300))
	// The built-in list is replaced.
	expect.False(t, cfg.InMultiMappedRegion("chr1", 121700001, 121700100))

	expect.NotNil(t, cfg.LoadMultiMappedRegions(vcontext.Background(), filepath.Join(tempDir, "missing.bed")))
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Assemblies: 2, Alignments: 5, ChainBreakends: 2, SplitFragments: 1}
	b := Stats{Assemblies: 1, Alignments: 1, SglBreakends: 1, SkippedShortFragments: 3}
	expect.EQ(t, a.Merge(b), Stats{
		Assemblies:            3,
		Alignments:            6,
		SglBreakends:          1,
		ChainBreakends:        2,
		SplitFragments:        1,
		SkippedShortFragments: 3,
	})
	expect.EQ(t, a.Merge(Stats{}), a)
	expect.True(t, strings.HasPrefix(a.String(), "assemblies:2 alignments:5 "))
}
