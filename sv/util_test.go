package sv

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestReverseComplement(t *testing.T) {
	expect.EQ(t, reverseComplement("ACGTTN"), "NAACGT")
	expect.EQ(t, reverseComplement("acgG"), "Ccgt")
	expect.EQ(t, reverseComplement(""), "")
	for _, s := range []string{"ACGTRYKM", "aaccNNgt"} {
		expect.EQ(t, reverseComplement(reverseComplement(s)), s)
	}
}

func TestCompareLocations(t *testing.T) {
	expect.True(t, compareLocations("chr2", 100, "chr10", 1) < 0)
	expect.True(t, compareLocations("X", 1, "22", 100) > 0)
	expect.True(t, compareLocations("1", 100, "1", 200) < 0)
	expect.EQ(t, compareLocations("1", 100, "1", 100), 0)
	expect.True(t, compareLocations("MT", 5, "GL000220.1", 1) < 0)
}
