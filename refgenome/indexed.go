package refgenome

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
)

// IndexEntry is one line of a faidx index.
type IndexEntry struct {
	Name string
	// Length is the number of bases.
	Length int64
	// Offset is the byte offset of the first base.
	Offset int64
	// LineBases and LineWidth are the bases and bytes per full line.
	LineBases int64
	LineWidth int64
}

// ReadIndex parses a faidx index.
func ReadIndex(r io.Reader) ([]IndexEntry, error) {
	tr := tsv.NewReader(r)
	var entries []IndexEntry
	for {
		var e IndexEntry
		if err := tr.Read(&e); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(err, "parse index")
		}
		if e.Length < 0 || e.LineBases <= 0 || e.LineWidth < e.LineBases {
			return nil, errors.E(errors.Invalid, "invalid index entry", e.Name)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type indexedFasta struct {
	entries  map[string]IndexEntry
	seqNames []string

	mu  sync.Mutex
	r   io.ReadSeeker
	buf []byte
}

// NewIndexed creates a Fasta that reads bases on demand from fa using the
// faidx index read from index.
func NewIndexed(fa io.ReadSeeker, index io.Reader) (Fasta, error) {
	entries, err := ReadIndex(index)
	if err != nil {
		return nil, err
	}
	return newIndexed(fa, entries), nil
}

func newIndexed(fa io.ReadSeeker, entries []IndexEntry) *indexedFasta {
	f := &indexedFasta{entries: make(map[string]IndexEntry, len(entries)), r: fa}
	for _, e := range entries {
		f.entries[e.Name] = e
		f.seqNames = append(f.seqNames, e.Name)
	}
	return f
}

// fileOffset maps a 0-based base position to its byte offset.
func (e IndexEntry) fileOffset(pos int64) int64 {
	return e.Offset + pos/e.LineBases*e.LineWidth + pos%e.LineBases
}

func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return "", errors.E(errors.NotExist, "sequence not found in index", seqName)
	}
	if end <= start {
		return "", errors.E(errors.Invalid, fmt.Sprintf("invalid range %s:[%d, %d)", seqName, start, end))
	}
	if end > uint64(e.Length) {
		return "", errors.E(errors.Invalid, fmt.Sprintf("end %d is past the end of sequence %s (length %d)", end, seqName, e.Length))
	}
	from, to := e.fileOffset(int64(start)), e.fileOffset(int64(end-1))+1

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.r.Seek(from, io.SeekStart); err != nil {
		return "", errors.E(err, fmt.Sprintf("seek %s:%d", seqName, start))
	}
	n := int(to - from)
	if cap(f.buf) < n {
		f.buf = make([]byte, n)
	}
	raw := f.buf[:n]
	if _, err := io.ReadFull(f.r, raw); err != nil {
		return "", errors.E(err, fmt.Sprintf("read %s:[%d, %d)", seqName, start, end))
	}
	bases := make([]byte, 0, end-start)
	for _, c := range raw {
		if c != '\n' && c != '\r' {
			bases = append(bases, c)
		}
	}
	if uint64(len(bases)) != end-start {
		return "", errors.E(errors.Invalid, "index does not match FASTA data", seqName)
	}
	return gunsafe.BytesToString(bases), nil
}

func (f *indexedFasta) Len(seqName string) (uint64, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return 0, errors.E(errors.NotExist, "sequence not found in index", seqName)
	}
	return uint64(e.Length), nil
}

func (f *indexedFasta) SeqNames() []string { return f.seqNames }

// GenerateIndex writes the faidx index of the FASTA data in in to out.
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w       = tsv.NewWriter(out)
		r       = newLineReader(in)
		cur     *IndexEntry
		entries int
	)
	emit := func() error {
		if cur == nil {
			return nil
		}
		entries++
		w.WriteString(cur.Name)
		w.WriteInt64(cur.Length)
		w.WriteInt64(cur.Offset)
		w.WriteInt64(cur.LineBases)
		w.WriteInt64(cur.LineWidth)
		return w.EndLine()
	}
	for {
		line, width, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if err := emit(); err != nil {
				return err
			}
			cur = &IndexEntry{Name: seqName(line), Offset: r.off}
		case cur == nil:
			return errors.E(errors.Invalid, "malformed FASTA: bases before the first header")
		default:
			if cur.LineWidth == 0 {
				cur.LineBases, cur.LineWidth = int64(len(line)), int64(width)
			}
			cur.Length += int64(len(line))
		}
	}
	if err := emit(); err != nil {
		return err
	}
	if entries == 0 {
		return errors.E(errors.Invalid, "empty FASTA data")
	}
	return w.Flush()
}
