package sv

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// mdEvent is one reference base described by an MD tag.
type mdEvent uint8

const (
	mdMatch mdEvent = iota
	mdMismatch
	mdDeleted
)

// parseMDTag expands an MD tag into one event per reference base. It returns
// false if the tag is malformed.
func parseMDTag(md string) ([]mdEvent, bool) {
	var (
		events  []mdEvent
		num     = 0
		inDel   = false
		sawBase = false
	)
	for i := 0; i < len(md); i++ {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			num = num*10 + int(c-'0')
			inDel = false
			sawBase = true
		case c == '^':
			for ; num > 0; num-- {
				events = append(events, mdMatch)
			}
			inDel = true
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			for ; num > 0; num-- {
				events = append(events, mdMatch)
			}
			if inDel {
				events = append(events, mdDeleted)
			} else {
				events = append(events, mdMismatch)
			}
		default:
			return nil, false
		}
	}
	if !sawBase {
		return nil, false
	}
	for ; num > 0; num-- {
		events = append(events, mdMatch)
	}
	return events, true
}

// mismatchArray combines the CIGAR and the MD tag of an alignment into one
// flag per aligned query base, true where the base does not match the
// reference. Inserted bases count as mismatches. The array runs in CIGAR
// order; callers reverse it for reverse-strand alignments. It returns nil if
// the tag is absent or inconsistent with the CIGAR.
func mismatchArray(cigar sam.Cigar, md string) []bool {
	if md == "" {
		return nil
	}
	events, ok := parseMDTag(md)
	if !ok {
		log.Debug.Printf("malformed mismatch tag %q", md)
		return nil
	}
	var (
		result []bool
		ei     int
	)
	for _, op := range cigar {
		t := op.Type()
		switch {
		case isAligned(t):
			for k := 0; k < op.Len(); k++ {
				if ei >= len(events) || events[ei] == mdDeleted {
					return nil
				}
				result = append(result, events[ei] == mdMismatch)
				ei++
			}
		case t == sam.CigarInsertion:
			for k := 0; k < op.Len(); k++ {
				result = append(result, true)
			}
		case t == sam.CigarDeletion:
			for k := 0; k < op.Len(); k++ {
				if ei >= len(events) || events[ei] != mdDeleted {
					return nil
				}
				ei++
			}
		}
	}
	if ei != len(events) {
		return nil
	}
	return result
}

func reverseBools(v []bool) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
