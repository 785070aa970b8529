package svio

// ResultWriter dumps per-assembly results into a recordio file so that the
// output stage can be rerun without aligning again. ResultReader reads them
// back.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/breakend/sv"
)

const (
	// <fileVersionHeader, fileVersion> is stored in the recordio header.
	fileVersionHeader = "breakendversion"
	fileVersion       = "BREAKEND_V1"
)

// resultTrailer is stored in the trailer of the recordio file.
type resultTrailer struct {
	Opts  sv.Opts
	Stats sv.Stats
}

// ResultWriter appends gob-encoded Results to a zstd-compressed recordio
// stream. Write may be called concurrently.
type ResultWriter struct {
	mu   sync.Mutex
	out  file.File
	w    recordio.Writer
	opts sv.Opts
	n    int
}

var _ sv.Sink = (*ResultWriter)(nil)

// NewResultWriter creates path.
func NewResultWriter(ctx context.Context, path string, opts sv.Opts) (*ResultWriter, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	w := newResultWriter(out.Writer(ctx), opts)
	w.out = out
	return w, nil
}

func newResultWriter(out io.Writer, opts sv.Opts) *ResultWriter {
	recordiozstd.Init()
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(fileVersionHeader, fileVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	return &ResultWriter{w: w, opts: opts}
}

// Write implements sv.Sink.
func (w *ResultWriter) Write(asm *sv.AssemblyAlignment) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(NewResult(asm)); err != nil {
		return errors.E(err, "encode result", asm.ID)
	}
	w.mu.Lock()
	w.w.Append(buf.Bytes())
	w.n++
	w.mu.Unlock()
	return nil
}

// Close writes the trailer, holding the options and the final stats, and
// closes the file. It must be called exactly once, after all Writes.
func (w *ResultWriter) Close(ctx context.Context, stats sv.Stats) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(resultTrailer{Opts: w.opts, Stats: stats}); err != nil {
		return errors.E(err, "encode trailer")
	}
	w.w.SetTrailer(buf.Bytes())
	once := errors.Once{}
	once.Set(w.w.Finish())
	if w.out != nil {
		once.Set(w.out.Close(ctx))
	}
	return once.Err()
}

// ResultReader reads a file created by ResultWriter.
type ResultReader struct {
	in      file.File
	sc      recordio.Scanner
	trailer resultTrailer
	res     Result
	err     error
}

// NewResultReader opens path and reads its trailer.
func NewResultReader(ctx context.Context, path string) (*ResultReader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	r, err := newResultReader(in.Reader(ctx))
	if err != nil {
		in.Close(ctx) // nolint: errcheck
		return nil, errors.E(err, path)
	}
	r.in = in
	return r, nil
}

func newResultReader(in io.ReadSeeker) (*ResultReader, error) {
	recordiozstd.Init()
	sc := recordio.NewScanner(in, recordio.ScannerOpts{})
	if err := sc.Err(); err != nil {
		return nil, err
	}
	found := false
	for _, kv := range sc.Header() {
		if kv.Key != fileVersionHeader {
			continue
		}
		if v, ok := kv.Value.(string); !ok || v != fileVersion {
			return nil, fmt.Errorf("result file version mismatch: got %v, want %s", kv.Value, fileVersion)
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%s not found in result file header", fileVersionHeader)
	}
	r := &ResultReader{sc: sc}
	if err := gob.NewDecoder(bytes.NewReader(sc.Trailer())).Decode(&r.trailer); err != nil {
		return nil, errors.E(err, "decode trailer")
	}
	return r, nil
}

// Opts returns the options the results were produced with.
func (r *ResultReader) Opts() sv.Opts { return r.trailer.Opts }

// Stats returns the stats of the run that produced the results.
func (r *ResultReader) Stats() sv.Stats { return r.trailer.Stats }

// Scan reads the next result.
func (r *ResultReader) Scan() bool {
	if r.err != nil || !r.sc.Scan() {
		return false
	}
	r.res = Result{}
	if err := gob.NewDecoder(bytes.NewReader(r.sc.Get().([]byte))).Decode(&r.res); err != nil {
		r.err = errors.E(err, "decode result")
		return false
	}
	return true
}

// Get yields the current result.
//
// REQUIRES: Last Scan call returned true.
func (r *ResultReader) Get() Result { return r.res }

// Close reports any scan error and closes the file.
func (r *ResultReader) Close(ctx context.Context) error {
	once := errors.Once{}
	once.Set(r.err)
	once.Set(r.sc.Err())
	if r.in != nil {
		once.Set(r.in.Close(ctx))
	}
	return once.Err()
}
