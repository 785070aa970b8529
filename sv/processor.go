package sv

import (
	"context"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Aligner maps a sequence to its candidate alignments. Implementations must
// be safe for concurrent use.
type Aligner interface {
	Align(ctx context.Context, seq []byte) ([]AlignmentHit, error)
}

// Processor runs one assembly through alignment, filtering, breakend
// formation and support allocation. A Processor is immutable and may be
// shared by workers.
type Processor struct {
	aligner Aligner
	ref     RefSource
	cfg     *RegionConfig
	opts    Opts
}

// NewProcessor creates a Processor. ref may be nil, in which case indel
// homology is not computed.
func NewProcessor(aligner Aligner, ref RefSource, cfg *RegionConfig, opts Opts) *Processor {
	return &Processor{aligner: aligner, ref: ref, cfg: cfg, opts: opts}
}

// Process fills asm's alignments, breakends and read annotations. Problems
// specific to the assembly are logged and leave it without breakends; only
// aligner failures are returned.
func (p *Processor) Process(ctx context.Context, asm *AssemblyAlignment, stats *Stats) error {
	stats.Assemblies++
	hits, err := p.aligner.Align(ctx, asm.FullSequence)
	if err != nil {
		return errors.E(err, "align assembly", asm.ID)
	}
	asm.Alignments = p.normalize(asm, hits, 0, 0, stats)
	requeried, err := p.requery(ctx, asm, stats)
	if err != nil {
		return err
	}
	asm.Alignments = append(asm.Alignments, requeried...)

	filtered := FilterAlignments(asm.Alignments, asm.FullSequence, p.cfg, p.opts, stats)
	BuildBreakends(asm, filtered, p.ref, p.cfg, p.opts, stats)
	VetoWeakExtension(asm, p.opts, stats)
	AllocateFragments(asm, p.opts, stats)
	log.Debug.Printf("assembly %s: %d alignments, %d valid, %d breakends",
		asm.ID, len(asm.Alignments), len(filtered.Valid), len(asm.Breakends))
	return nil
}

// normalize converts aligner hits of the subsequence starting at offset into
// assembly alignments. queryLength of zero means the full sequence was
// aligned. Malformed hits are logged and dropped.
func (p *Processor) normalize(asm *AssemblyAlignment, hits []AlignmentHit, offset, queryLength int, stats *Stats) []*AlignData {
	var out []*AlignData
	for _, hit := range hits {
		stats.Alignments++
		var (
			a   *AlignData
			err error
		)
		if queryLength > 0 {
			a, err = newRequeriedAlignData(hit, offset, queryLength)
		} else {
			a, err = NewAlignData(hit)
		}
		if err != nil {
			log.Error.Printf("assembly %s: %v", asm.ID, err)
			stats.MalformedAlignments++
			continue
		}
		a.SetFullSequenceData(asm.FullSequence, asm.FullLength())
		if a.Invalid {
			stats.MalformedAlignments++
			continue
		}
		out = append(out, a)
	}
	return out
}

// clipWindow is a 0-based inclusive span of the assembly.
type clipWindow struct {
	start, end int
}

// uncoveredClips returns the long clips of the alignments that no other
// alignment covers for at least half their length.
func uncoveredClips(alignments []*AlignData, fullLen, minLength int) []clipWindow {
	covered := func(w clipWindow, self *AlignData) bool {
		n := 0
		for i := w.start; i <= w.end; i++ {
			for _, o := range alignments {
				if o != self && o.SequenceStart <= i && i <= o.SequenceEnd {
					n++
					break
				}
			}
		}
		return 2*n >= w.end-w.start+1
	}
	var (
		windows []clipWindow
		seen    = map[clipWindow]bool{}
	)
	for _, a := range alignments {
		for _, w := range []clipWindow{{0, a.SequenceStart - 1}, {a.SequenceEnd + 1, fullLen - 1}} {
			if w.end-w.start+1 < minLength || seen[w] || covered(w, a) {
				continue
			}
			seen[w] = true
			windows = append(windows, w)
		}
	}
	return windows
}

// requery aligns the uncovered long soft clips of the assembly's alignments
// on their own.
func (p *Processor) requery(ctx context.Context, asm *AssemblyAlignment, stats *Stats) ([]*AlignData, error) {
	var out []*AlignData
	for _, w := range uncoveredClips(asm.Alignments, asm.FullLength(), p.opts.RequeryMinClipLength) {
		hits, err := p.aligner.Align(ctx, asm.FullSequence[w.start:w.end+1])
		if err != nil {
			return nil, errors.E(err, "requery assembly", asm.ID)
		}
		alignments := p.normalize(asm, hits, w.start, w.end-w.start+1, stats)
		stats.RequeriedAlignments += len(alignments)
		out = append(out, alignments...)
	}
	return out, nil
}

// ProcessFunc processes one assembly, accumulating counters into stats.
type ProcessFunc func(ctx context.Context, asm *AssemblyAlignment, stats *Stats) error

// Sink receives processed assemblies. Write is called concurrently.
type Sink interface {
	Write(asm *AssemblyAlignment) error
}

// RunPool processes assemblies with min(threads, len(assemblies)) workers
// pulling from a shared queue, then hands each result to sink. Assemblies
// reach sink in completion order. The first error stops all workers and is
// returned along with the merged stats.
func RunPool(ctx context.Context, assemblies []*AssemblyAlignment, threads int, process ProcessFunc, sink Sink) (Stats, error) {
	if len(assemblies) == 0 {
		return Stats{}, nil
	}
	if threads < 1 {
		threads = 1
	}
	if threads > len(assemblies) {
		threads = len(assemblies)
	}
	queue := make(chan *AssemblyAlignment, len(assemblies))
	for _, asm := range assemblies {
		queue <- asm
	}
	close(queue)

	var (
		mu    sync.Mutex
		total Stats
		once  errors.Once
	)
	once.Set(traverse.Each(threads, func(worker int) error {
		var stats Stats
		defer func() {
			mu.Lock()
			total = total.Merge(stats)
			mu.Unlock()
		}()
		for asm := range queue {
			if once.Err() != nil {
				return nil
			}
			if err := ctx.Err(); err != nil {
				once.Set(err)
				return err
			}
			if err := process(ctx, asm, &stats); err != nil {
				once.Set(err)
				return err
			}
			if sink == nil {
				continue
			}
			if err := sink.Write(asm); err != nil {
				once.Set(err)
				return err
			}
		}
		log.Debug.Printf("worker %d: %v", worker, stats)
		return nil
	}))
	return total, once.Err()
}
