// Package aligner serves assembly alignments computed ahead of time by an
// external aligner such as BWA-MEM. The aligner output is a SAM or BAM file
// holding one primary record per query plus its supplementary records;
// queries are looked up by sequence, so requeried soft clips resolve as long
// as they were aligned under their own query names.
package aligner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/breakend/sv"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

var (
	asTag = sam.NewTag("AS")
	nmTag = sam.NewTag("NM")
	xaTag = sam.NewTag("XA")
	mdTag = sam.NewTag("MD")
)

type query struct {
	name string
	seq  string
	hits []sv.AlignmentHit
}

// Index maps query sequences to their alignments. It implements sv.Aligner
// and is safe for concurrent use once built.
type Index struct {
	queries map[uint64][]*query
	n       int
}

var _ sv.Aligner = (*Index)(nil)

// NewIndex groups records by query name. Each group must contain exactly one
// primary record, whose sequence, reverse-complemented if it aligned to the
// reverse strand, is the query.
func NewIndex(records []*sam.Record) (*Index, error) {
	var (
		order  []string
		groups = map[string][]*sam.Record{}
	)
	for _, r := range records {
		if _, ok := groups[r.Name]; !ok {
			order = append(order, r.Name)
		}
		groups[r.Name] = append(groups[r.Name], r)
	}
	x := &Index{queries: map[uint64][]*query{}}
	for _, name := range order {
		q, err := newQuery(name, groups[name])
		if err != nil {
			return nil, err
		}
		x.add(q)
	}
	return x, nil
}

func newQuery(name string, records []*sam.Record) (*query, error) {
	q := &query{name: name}
	var primary *sam.Record
	for _, r := range records {
		if r.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			continue
		}
		if primary != nil {
			return nil, errors.E(errors.Invalid, "multiple primary records for query", name)
		}
		primary = r
	}
	if primary == nil {
		return nil, errors.E(errors.Invalid, "no primary record for query", name)
	}
	for _, op := range primary.Cigar {
		if op.Type() == sam.CigarHardClipped {
			return nil, errors.E(errors.Invalid, "primary record is hard clipped", name)
		}
	}
	seq := primary.Seq.Expand()
	if primary.Flags&sam.Reverse != 0 && primary.Flags&sam.Unmapped == 0 {
		seq = sv.ReverseComplement(seq)
	}
	q.seq = string(seq)
	for _, r := range records {
		if r.Flags&(sam.Unmapped|sam.Secondary) != 0 {
			continue
		}
		q.hits = append(q.hits, HitFromRecord(r))
	}
	return q, nil
}

func (x *Index) add(q *query) {
	key := farm.Fingerprint64(gunsafe.StringToBytes(q.seq))
	for _, other := range x.queries[key] {
		if other.seq == q.seq {
			log.Printf("aligner: query %s repeats the sequence of %s, ignored", q.name, other.name)
			return
		}
	}
	x.queries[key] = append(x.queries[key], q)
	x.n++
}

// Len returns the number of distinct query sequences.
func (x *Index) Len() int { return x.n }

// Align returns the alignments recorded for seq. A sequence that was never
// aligned has no hits.
func (x *Index) Align(ctx context.Context, seq []byte) ([]sv.AlignmentHit, error) {
	for _, q := range x.queries[farm.Fingerprint64(seq)] {
		if q.seq == gunsafe.BytesToString(seq) {
			hits := make([]sv.AlignmentHit, len(q.hits))
			copy(hits, q.hits)
			return hits, nil
		}
	}
	log.Debug.Printf("aligner: no alignments for %d-base query", len(seq))
	return nil, nil
}

// HitFromRecord converts a mapped record. The query span counts leading
// clips, hard or soft, in CIGAR order.
func HitFromRecord(r *sam.Record) sv.AlignmentHit {
	hit := sv.AlignmentHit{
		Chromosome: r.Ref.Name(),
		RefStart:   r.Pos,
		RefEnd:     r.End() - 1,
		MapQual:    int(r.MapQ),
		Flags:      r.Flags,
		Cigar:      r.Cigar.String(),
	}
	var leading, aligned, matched int
	for i, op := range r.Cigar {
		switch op.Type() {
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			if aligned == 0 && i == leading {
				leading++
				hit.QueryStart += op.Len()
			}
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			aligned += op.Len()
			matched += op.Len()
		case sam.CigarInsertion:
			aligned += op.Len()
		}
	}
	hit.QueryEnd = hit.QueryStart + aligned - 1
	hit.Score = matched
	if v, ok := auxInt(r, asTag); ok {
		hit.Score = v
	}
	if v, ok := auxInt(r, nmTag); ok {
		hit.NumMismatches = v
	}
	hit.AltTag, _ = auxString(r, xaTag)
	hit.MismatchTag, _ = auxString(r, mdTag)
	return hit
}

func auxInt(r *sam.Record, tag sam.Tag) (int, bool) {
	aux := r.AuxFields.Get(tag)
	if aux == nil {
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	}
	return 0, false
}

func auxString(r *sam.Record, tag sam.Tag) (string, bool) {
	aux := r.AuxFields.Get(tag)
	if aux == nil {
		return "", false
	}
	s, ok := aux.Value().(string)
	return s, ok
}

type recordReader interface {
	Read() (*sam.Record, error)
}

// Load reads the records of a SAM or BAM file and indexes them.
func Load(ctx context.Context, path string) (_ *Index, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var rr recordReader
	if strings.HasSuffix(path, ".bam") {
		br, err := bam.NewReader(in.Reader(ctx), 1)
		if err != nil {
			return nil, errors.E(err, "bam header", path)
		}
		defer br.Close() // nolint: errcheck
		rr = br
	} else {
		if rr, err = sam.NewReader(in.Reader(ctx)); err != nil {
			return nil, errors.E(err, "sam header", path)
		}
	}
	var records []*sam.Record
	for {
		r, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("read record %d", len(records)), path)
		}
		records = append(records, r)
	}
	x, err := NewIndex(records)
	if err != nil {
		return nil, errors.E(err, path)
	}
	log.Printf("aligner: indexed %d queries from %d records in %s", x.Len(), len(records), path)
	return x, nil
}
