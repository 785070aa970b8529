package refgenome

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

type memoryFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads all sequences from r into memory.
func New(r io.Reader) (Fasta, error) {
	f := &memoryFasta{seqs: make(map[string]string)}
	var (
		lr      = newLineReader(r)
		name    string
		started bool
		seq     bytes.Buffer
	)
	flush := func() error {
		if !started {
			if seq.Len() > 0 {
				return errors.New("malformed FASTA: bases before the first header")
			}
			return nil
		}
		if _, ok := f.seqs[name]; ok {
			return errors.Errorf("malformed FASTA: duplicate sequence %s", name)
		}
		f.seqs[name] = seq.String()
		f.seqNames = append(f.seqNames, name)
		seq.Reset()
		return nil
	}
	for {
		line, _, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "couldn't read FASTA data")
		}
		if len(line) > 0 && line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name, started = seqName(line), true
		} else {
			seq.Write(line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(f.seqNames) == 0 {
		return nil, errors.New("empty FASTA data")
	}
	return f, nil
}

// seqName extracts the sequence name from a header line.
func seqName(header []byte) string {
	header = header[1:]
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		header = header[:i]
	}
	return string(header)
}

func (f *memoryFasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("invalid range [%d, %d)", start, end)
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("end %d is past the end of sequence %s (length %d)", end, seqName, len(s))
	}
	return s[start:end], nil
}

func (f *memoryFasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

func (f *memoryFasta) SeqNames() []string { return f.seqNames }
