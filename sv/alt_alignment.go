package sv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// AlternativeAlignment is a secondary candidate mapping of an ambiguous
// alignment.
type AlternativeAlignment struct {
	Chromosome string
	// Position is the 1-based leftmost reference position.
	Position    int
	Orientation Orientation
	Cigar       string
	MapQual     int
	// RefLength is the number of reference bases covered by Cigar.
	RefLength int
}

// End is the 1-based reference position of the last aligned base.
func (a AlternativeAlignment) End() int {
	if a.RefLength == 0 {
		return a.Position
	}
	return a.Position + a.RefLength - 1
}

// Overlaps checks if the alternative covers any of [start, end] on chrom.
func (a AlternativeAlignment) Overlaps(chrom string, start, end int) bool {
	return a.Chromosome == chrom && a.Position <= end && a.End() >= start
}

// String renders the alternative in the tag format accepted by
// ParseAltAlignments.
func (a AlternativeAlignment) String() string {
	return fmt.Sprintf("%s,%s%d,%s,%d", a.Chromosome, a.Orientation.strandChar(), a.Position, a.Cigar, a.MapQual)
}

// ParseAltAlignments parses an alternative-mapping tag of the form
// "chrom,±pos,cigar,mapqual;...". Malformed entries are skipped.
func ParseAltAlignments(tag string) []AlternativeAlignment {
	var alts []AlternativeAlignment
	for _, item := range strings.Split(tag, ";") {
		if item == "" {
			continue
		}
		alt, err := parseAltAlignment(item)
		if err != nil {
			log.Debug.Printf("skipping alternative alignment %q: %v", item, err)
			continue
		}
		alts = append(alts, alt)
	}
	return alts
}

func parseAltAlignment(item string) (AlternativeAlignment, error) {
	fields := strings.Split(item, ",")
	if len(fields) != 4 {
		return AlternativeAlignment{}, fmt.Errorf("expect 4 fields, found %d", len(fields))
	}
	pos := fields[1]
	if len(pos) < 2 || (pos[0] != '+' && pos[0] != '-') {
		return AlternativeAlignment{}, fmt.Errorf("malformed position %q", pos)
	}
	alt := AlternativeAlignment{Chromosome: fields[0], Cigar: fields[2], Orientation: Forward}
	if pos[0] == '-' {
		alt.Orientation = Reverse
	}
	var err error
	if alt.Position, err = strconv.Atoi(pos[1:]); err != nil {
		return AlternativeAlignment{}, err
	}
	if alt.MapQual, err = strconv.Atoi(fields[3]); err != nil {
		return AlternativeAlignment{}, err
	}
	cigar, err := sam.ParseCigar([]byte(alt.Cigar))
	if err != nil {
		return AlternativeAlignment{}, err
	}
	alt.RefLength = cigarRefLength(cigar)
	return alt, nil
}
