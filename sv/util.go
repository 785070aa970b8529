package sv

import (
	"strconv"
	"strings"

	gunsafe "github.com/grailbio/base/unsafe"
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// revComp8Table maps A/C/G/T to their complement, preserving case. Every
// other byte maps to itself, so complementing twice restores any input.
var revComp8Table [256]byte

func init() {
	for i := range revComp8Table {
		revComp8Table[i] = byte(i)
	}
	for _, p := range [][2]byte{{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'}} {
		revComp8Table[p[0]] = p[1]
		revComp8Table[p[0]+'a'-'A'] = p[1] + 'a' - 'A'
	}
}

// ReverseComplement returns the reverse complement of src in a new slice.
func ReverseComplement(src []byte) []byte {
	dst := make([]byte, len(src))
	for i, j := 0, len(src)-1; j >= 0; i, j = i+1, j-1 {
		dst[i] = revComp8Table[src[j]]
	}
	return dst
}

// reverseComplement computes a reverse complement of the given DNA string.
func reverseComplement(seq string) string {
	return gunsafe.BytesToString(ReverseComplement(gunsafe.StringToBytes(seq)))
}

// reverseComplementOf reverse-complements seq into a new string.
func reverseComplementOf(seq []byte) string {
	return gunsafe.BytesToString(ReverseComplement(seq))
}

// chromosomeRank orders chromosome names numerically, with X, Y and MT after
// the autosomes and everything else after those.
func chromosomeRank(name string) int {
	n := strings.TrimPrefix(name, "chr")
	switch n {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	if v, err := strconv.Atoi(n); err == nil && v > 0 {
		return v
	}
	return 100
}

// compareLocations orders two genomic locations by chromosome rank, then
// name, then position.
func compareLocations(chr1 string, pos1 int, chr2 string, pos2 int) int {
	if chr1 != chr2 {
		r1, r2 := chromosomeRank(chr1), chromosomeRank(chr2)
		if r1 != r2 {
			return r1 - r2
		}
		if chr1 < chr2 {
			return -1
		}
		return 1
	}
	return pos1 - pos2
}
