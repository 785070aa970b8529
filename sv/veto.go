package sv

import (
	"sort"

	"github.com/grailbio/base/log"
)

// median returns the median of sorted values.
func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// isWeakExtension checks if the assembly's extension past its junction rests
// on one long read among otherwise short extensions.
func isWeakExtension(asm *AssemblyAlignment, opts Opts) bool {
	if asm.Linked || len(asm.SubAssemblies) > 1 {
		return false
	}
	var lengths []int
	for i := range asm.Reads {
		if l := asm.Reads[i].ExtensionLength; l > 0 {
			lengths = append(lengths, l)
		}
	}
	if len(lengths) < 2 {
		return false
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))
	rest := lengths[1:]
	sort.Ints(rest)
	med := median(rest)
	return float64(lengths[0]) > opts.WeakExtensionOutlierFactor*med && med <= float64(opts.weakExtensionShortLength())
}

// VetoWeakExtension discards the breakends of a single unlinked assembly
// whose extension is supported by one outlier read. It returns true if the
// assembly was vetoed.
func VetoWeakExtension(asm *AssemblyAlignment, opts Opts, stats *Stats) bool {
	if len(asm.Breakends) == 0 || !isWeakExtension(asm, opts) {
		return false
	}
	log.Debug.Printf("assembly %s: vetoed as a weak single-read extension", asm.ID)
	asm.Breakends = nil
	asm.Vetoed = true
	stats.VetoedAssemblies++
	return true
}
