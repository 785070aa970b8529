// Package refgenome provides random access to reference genome sequences
// stored in FASTA files. A FASTA file holds named sequences that may be
// wrapped across lines:
//
// >chr7
// ACGTAC
// GAGGAC
// >chr8
// ACGT
//
// The sequence name is the text between '>' and the first space. Sequences
// are either loaded into memory or read on demand through a samtools faidx
// index (http://www.htslib.org/doc/faidx.html).
package refgenome

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// Fasta represents a set of named reference sequences.
type Fasta interface {
	// Get returns the bases of the named sequence in the 0-based half-open
	// range [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the named sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the sequence names in file order.
	SeqNames() []string
}

// Reference is a Fasta opened from a path. Lookups of a sequence missing
// under its own name retry with the "chr" prefix toggled, so GRCh37-style
// and GRCh38-style names both resolve.
type Reference struct {
	Fasta
	names map[string]bool
	in    file.File
}

// Open opens the FASTA file at path. If path+".fai" exists the sequences are
// read on demand through the index. Otherwise the file, optionally gzipped,
// is loaded into memory.
func Open(ctx context.Context, path string) (*Reference, error) {
	ref := &Reference{}
	if idx, err := file.Open(ctx, path+".fai"); err == nil {
		entries, err := ReadIndex(idx.Reader(ctx))
		if cerr := idx.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return nil, errors.E(err, "read index", path+".fai")
		}
		if ref.in, err = file.Open(ctx, path); err != nil {
			return nil, errors.E(err, "open", path)
		}
		ref.Fasta = newIndexed(ref.in.Reader(ctx), entries)
		log.Printf("refgenome: opened %s with %d indexed sequences", path, len(entries))
	} else {
		in, err := file.Open(ctx, path)
		if err != nil {
			return nil, errors.E(err, "open", path)
		}
		defer in.Close(ctx) // nolint: errcheck
		var r io.Reader = in.Reader(ctx)
		if fileio.DetermineType(path) == fileio.Gzip {
			if r, err = gzip.NewReader(r); err != nil {
				return nil, errors.E(err, "gzip", path)
			}
		}
		if ref.Fasta, err = New(r); err != nil {
			return nil, errors.E(err, "load", path)
		}
		log.Printf("refgenome: loaded %s into memory", path)
	}
	ref.names = make(map[string]bool)
	for _, name := range ref.SeqNames() {
		ref.names[name] = true
	}
	return ref, nil
}

func (r *Reference) resolve(seqName string) string {
	if r.names[seqName] {
		return seqName
	}
	alias := "chr" + seqName
	if strings.HasPrefix(seqName, "chr") {
		alias = seqName[3:]
	}
	if r.names[alias] {
		return alias
	}
	return seqName
}

// Get implements Fasta.Get, resolving chromosome name aliases.
func (r *Reference) Get(seqName string, start, end uint64) (string, error) {
	return r.Fasta.Get(r.resolve(seqName), start, end)
}

// Len implements Fasta.Len, resolving chromosome name aliases.
func (r *Reference) Len(seqName string) (uint64, error) {
	return r.Fasta.Len(r.resolve(seqName))
}

// Close releases the underlying file, if any.
func (r *Reference) Close(ctx context.Context) error {
	if r.in == nil {
		return nil
	}
	return r.in.Close(ctx)
}
