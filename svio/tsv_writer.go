package svio

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/breakend/sv"
)

const (
	breakendHeader = "assembly\tindex\tchrom\tpos\torient\ttype\tsv_length\tpartner\tinserted\thomology\t" +
		"exact_start\texact_end\tinexact_start\tinexact_end\tqual\tsplit\tdiscordant\tforward_reads\treverse_reads\t" +
		"avg_frag_length\tincomplete_frags\tfacing\talt_alignments"
	alignmentHeader = "assembly\tchrom\tref_start\tref_end\torient\tseq_start\tseq_end\tmapq\tmod_mapq\tscore\t" +
		"cigar\trequeried\tstatus\tselected_alt"
	readHeader = "assembly\tread\tsample\tsupport\tbreakend\tfrag_length"
)

// TSVWriter writes assembly results as TSV. Breakends of valid assemblies
// go to one file; alignments and read annotations of every assembly
// optionally go to two more. Write may be called concurrently.
type TSVWriter struct {
	mu         sync.Mutex
	files      []file.File
	breakends  *tsv.Writer
	alignments *tsv.Writer
	reads      *tsv.Writer
	nWritten   int
}

var _ sv.Sink = (*TSVWriter)(nil)

// NewTSVWriter creates the output files. alignmentPath and readPath may be
// empty.
func NewTSVWriter(ctx context.Context, breakendPath, alignmentPath, readPath string) (*TSVWriter, error) {
	var (
		files   []file.File
		writers [3]io.Writer
	)
	for i, path := range []string{breakendPath, alignmentPath, readPath} {
		if path == "" {
			continue
		}
		out, err := file.Create(ctx, path)
		if err != nil {
			for _, f := range files {
				f.Discard(ctx)
			}
			return nil, errors.E(err, "create", path)
		}
		files = append(files, out)
		writers[i] = out.Writer(ctx)
	}
	w, err := newTSVWriter(writers[0], writers[1], writers[2])
	if err != nil {
		return nil, err
	}
	w.files = files
	return w, nil
}

// newTSVWriter writes the header rows. Nil writers are skipped.
func newTSVWriter(breakends, alignments, reads io.Writer) (*TSVWriter, error) {
	w := &TSVWriter{}
	for _, out := range []struct {
		dst    io.Writer
		header string
		tw     **tsv.Writer
	}{
		{breakends, breakendHeader, &w.breakends},
		{alignments, alignmentHeader, &w.alignments},
		{reads, readHeader, &w.reads},
	} {
		if out.dst == nil {
			continue
		}
		*out.tw = tsv.NewWriter(out.dst)
		(*out.tw).WriteString(out.header)
		if err := (*out.tw).EndLine(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return "."
	}
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, ",")
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

func writeBreakend(w *tsv.Writer, r *BreakendRecord) error {
	w.WriteString(r.Assembly)
	w.WriteInt64(int64(r.Index))
	w.WriteString(r.Chromosome)
	w.WriteInt64(int64(r.Position))
	w.WriteInt64(int64(r.Orientation))
	w.WriteString(r.Type)
	w.WriteInt64(int64(r.SvLength))
	w.WriteInt64(int64(r.Partner))
	w.WriteString(orDot(r.InsertedBases))
	w.WriteString(orDot(r.Homology))
	w.WriteInt64(int64(r.ExactStart))
	w.WriteInt64(int64(r.ExactEnd))
	w.WriteInt64(int64(r.InexactStart))
	w.WriteInt64(int64(r.InexactEnd))
	w.WriteFloat64(r.Qual, 'f', 2)
	w.WriteString(joinInts(r.Split))
	w.WriteString(joinInts(r.Discordant))
	w.WriteInt64(int64(r.ForwardReads))
	w.WriteInt64(int64(r.ReverseReads))
	w.WriteFloat64(r.AvgFragmentLength, 'f', 1)
	w.WriteInt64(int64(r.IncompleteFragments))
	w.WriteString(joinInts(r.Facing))
	w.WriteString(orDot(strings.Join(r.AltAlignments, ";")))
	return w.EndLine()
}

func writeAlignment(w *tsv.Writer, r *AlignmentRecord) error {
	w.WriteString(r.Assembly)
	w.WriteString(r.Chromosome)
	w.WriteInt64(int64(r.RefStart))
	w.WriteInt64(int64(r.RefEnd))
	w.WriteInt64(int64(r.Orientation))
	w.WriteInt64(int64(r.SequenceStart))
	w.WriteInt64(int64(r.SequenceEnd))
	w.WriteInt64(int64(r.MapQual))
	w.WriteFloat64(r.ModifiedMapQual, 'f', 2)
	w.WriteInt64(int64(r.Score))
	w.WriteString(r.Cigar)
	w.WriteString(strconv.FormatBool(r.Requeried))
	w.WriteString(string(r.Status))
	w.WriteString(orDot(r.SelectedAlt))
	return w.EndLine()
}

func writeRead(w *tsv.Writer, r *ReadRecord) error {
	w.WriteString(r.Assembly)
	w.WriteString(r.Read)
	w.WriteInt64(int64(r.Sample))
	w.WriteString(r.Support)
	w.WriteInt64(int64(r.Breakend))
	w.WriteInt64(int64(r.FragmentLength))
	return w.EndLine()
}

// Write implements sv.Sink.
func (w *TSVWriter) Write(asm *sv.AssemblyAlignment) error {
	return w.WriteResult(NewResult(asm))
}

// WriteResult writes an already flattened result, such as one read back by
// ResultReader.
func (w *TSVWriter) WriteResult(res Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.breakends != nil && res.Valid {
		for i := range res.Breakends {
			if err := writeBreakend(w.breakends, &res.Breakends[i]); err != nil {
				return err
			}
		}
	}
	if w.alignments != nil {
		for i := range res.Alignments {
			if err := writeAlignment(w.alignments, &res.Alignments[i]); err != nil {
				return err
			}
		}
	}
	if w.reads != nil {
		for i := range res.Reads {
			if err := writeRead(w.reads, &res.Reads[i]); err != nil {
				return err
			}
		}
	}
	w.nWritten++
	return nil
}

// Flush flushes all outputs.
func (w *TSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	once := errors.Once{}
	for _, tw := range []*tsv.Writer{w.breakends, w.alignments, w.reads} {
		if tw != nil {
			once.Set(tw.Flush())
		}
	}
	return once.Err()
}

// Close flushes and closes the output files.
func (w *TSVWriter) Close(ctx context.Context) error {
	once := errors.Once{}
	once.Set(w.Flush())
	for _, f := range w.files {
		once.Set(f.Close(ctx))
	}
	log.Printf("svio: wrote TSV results of %d assemblies", w.nWritten)
	return once.Err()
}

// MultiSink fans each assembly out to every sink, stopping at the first
// error.
type MultiSink []sv.Sink

// Write implements sv.Sink.
func (m MultiSink) Write(asm *sv.AssemblyAlignment) error {
	for _, s := range m {
		if err := s.Write(asm); err != nil {
			return err
		}
	}
	return nil
}
