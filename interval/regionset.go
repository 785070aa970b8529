package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// PosType is RegionSet's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// Opts defines behavior of this package's BED-loading function(s).
type Opts struct {
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
	// Name is the optional fourth BED column.
	Name string
}

// RegionSet is a union of genomic intervals. For each chromosome, the
// (0-based) start of interval #k is stored in element [2k] of a sorted
// endpoint array and its end in element [2k+1]. A RegionSet is immutable once
// built and safe for concurrent queries.
type RegionSet struct {
	nameMap map[string][]PosType
	// names maps a named interval to its entry, for regions that are looked up
	// by name rather than by position.
	names map[string]Entry
}

// endpointIndex returns the number of endpoints in a that are <= x. An odd
// count means x lies inside an interval.
func endpointIndex(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x })
}

// Contains checks whether the 0-based position pos on chrName lies within
// the set.
func (s *RegionSet) Contains(chrName string, pos PosType) bool {
	intervals := s.nameMap[chrName]
	if intervals == nil {
		return false
	}
	return endpointIndex(intervals, pos)&1 == 1
}

// Overlaps checks whether the 0-based half-open range [start, end) on chrName
// intersects the set.
func (s *RegionSet) Overlaps(chrName string, start, end PosType) bool {
	intervals := s.nameMap[chrName]
	if intervals == nil || end <= start {
		return false
	}
	idx := endpointIndex(intervals, start)
	if idx&1 == 1 {
		return true
	}
	// start lies in a gap; the next interval must begin before end.
	return idx < len(intervals) && intervals[idx] < end
}

// Lookup returns the named interval registered under name.
func (s *RegionSet) Lookup(name string) (Entry, bool) {
	e, ok := s.names[name]
	return e, ok
}

// Len returns the number of disjoint intervals in the set.
func (s *RegionSet) Len() int {
	n := 0
	for _, intervals := range s.nameMap {
		n += len(intervals) / 2
	}
	return n
}

// Chromosomes lists the chromosomes with at least one interval, sorted.
func (s *RegionSet) Chromosomes() []string {
	names := make([]string, 0, len(s.nameMap))
	for name := range s.nameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegionSetFromEntries builds a RegionSet from entries in any order,
// merging touching and overlapping intervals and dropping empty ones.
func NewRegionSetFromEntries(entries []Entry) (*RegionSet, error) {
	byChr := map[string][]Entry{}
	s := &RegionSet{nameMap: map[string][]PosType{}, names: map[string]Entry{}}
	for _, e := range entries {
		if e.Start0 < 0 {
			return nil, fmt.Errorf("interval.NewRegionSetFromEntries: negative start coordinate in %+v", e)
		}
		if e.End < e.Start0 || e.End >= posTypeMax {
			return nil, fmt.Errorf("interval.NewRegionSetFromEntries: invalid coordinate pair [%d, %d)", e.Start0, e.End)
		}
		if e.Name != "" {
			s.names[e.Name] = e
		}
		if e.End == e.Start0 {
			continue
		}
		byChr[e.ChrName] = append(byChr[e.ChrName], e)
	}
	for chr, es := range byChr {
		sort.Slice(es, func(i, j int) bool { return es[i].Start0 < es[j].Start0 })
		merged := []PosType{es[0].Start0, es[0].End}
		for _, e := range es[1:] {
			last := len(merged) - 1
			switch {
			case e.Start0 > merged[last]:
				merged = append(merged, e.Start0, e.End)
			case e.End > merged[last]:
				merged[last] = e.End
			}
		}
		s.nameMap[chr] = merged
	}
	return s, nil
}

// parseBEDLine parses one whitespace-delimited BED line. ok is false for
// blank, comment, track and browser lines.
func parseBEDLine(line []byte, startSubtract int) (e Entry, ok bool, err error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return e, false, nil
	}
	if first := gunsafe.BytesToString(fields[0]); strings.HasPrefix(first, "#") || first == "track" || first == "browser" {
		return e, false, nil
	}
	if len(fields) < 3 {
		return e, false, fmt.Errorf("expected at least 3 columns, got %d", len(fields))
	}
	var coords [2]int
	for i := range coords {
		if coords[i], err = strconv.Atoi(gunsafe.BytesToString(fields[i+1])); err != nil {
			return e, false, err
		}
	}
	start, end := coords[0]-startSubtract, coords[1]
	if start < 0 || end < start || end >= posTypeMax {
		return e, false, fmt.Errorf("invalid coordinate pair [%d, %d)", start, end)
	}
	e = Entry{ChrName: string(fields[0]), Start0: PosType(start), End: PosType(end)}
	if len(fields) > 3 {
		e.Name = string(fields[3])
	}
	return e, true, nil
}

// NewRegionSet loads intervals from a BED stream. Lines starting with "#",
// "track" or "browser" are skipped. The optional fourth column names the
// interval.
func NewRegionSet(reader io.Reader, opts Opts) (*RegionSet, error) {
	startSubtract := 0
	if opts.OneBasedInput {
		startSubtract = 1
	}
	var entries []Entry
	scanner := bufio.NewScanner(reader)
	for lineno := 1; scanner.Scan(); lineno++ {
		e, ok, err := parseBEDLine(scanner.Bytes(), startSubtract)
		if err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.NewRegionSet: line %d", lineno), err.Error())
		}
		if ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s, err := NewRegionSetFromEntries(entries)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("interval: loaded %d interval(s) on %d chromosome(s)", s.Len(), len(s.nameMap))
	return s, nil
}

// NewRegionSetFromPath is a wrapper for NewRegionSet that takes a path
// instead of an io.Reader. Gzipped files are decompressed.
func NewRegionSetFromPath(ctx context.Context, path string, opts Opts) (s *RegionSet, err error) {
	infile, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, "gzip", path)
		}
	}
	return NewRegionSet(reader, opts)
}

// ParseRegionString parses "chrom", "chrom:pos" or "chrom:start-end", with
// 1-based inclusive positions, into a 0-based half-open Entry. A bare
// chromosome covers the whole coordinate range.
func ParseRegionString(region string) (Entry, error) {
	parts := strings.SplitN(region, ":", 2)
	e := Entry{ChrName: parts[0]}
	if e.ChrName == "" {
		return e, fmt.Errorf("interval.ParseRegionString: no chromosome in %q", region)
	}
	if len(parts) == 1 {
		e.End = posTypeMax - 1
		return e, nil
	}
	bounds := strings.SplitN(parts[1], "-", 2)
	first, err := strconv.Atoi(bounds[0])
	if err != nil {
		return e, errors.E(err, "interval.ParseRegionString", region)
	}
	last := first
	if len(bounds) == 2 {
		if last, err = strconv.Atoi(bounds[1]); err != nil {
			return e, errors.E(err, "interval.ParseRegionString", region)
		}
	}
	if first <= 0 || last < first || last >= posTypeMax {
		return e, fmt.Errorf("interval.ParseRegionString: bad range in %q", region)
	}
	e.Start0, e.End = PosType(first-1), PosType(last)
	return e, nil
}
