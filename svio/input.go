package svio

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/breakend/sv"
	"github.com/grailbio/hts/sam"
)

// assemblyRow is one line of the assembly TSV. List-valued columns use ";"
// between items and "," within an item; "." or an empty cell means none.
type assemblyRow struct {
	ID               string `tsv:"assembly"`
	Sequence         string `tsv:"sequence"`
	Linked           string `tsv:"linked"`
	PhaseChainLength int    `tsv:"phase_chain_length"`
	// ExpectedIndel is "DEL:<length>" or "INS:<length>".
	ExpectedIndel string `tsv:"expected_indel"`
	// SubAssemblies items are "id,chrom,pos,orient".
	SubAssemblies string `tsv:"sub_assemblies"`
	// DeclaredFacing items are "chrom,pos,orient,chrom,pos,orient".
	DeclaredFacing string `tsv:"declared_facing"`
}

// readRow is one line of the support read TSV.
type readRow struct {
	Assembly       string `tsv:"assembly"`
	ID             string `tsv:"read"`
	Sample         int    `tsv:"sample"`
	Flags          int    `tsv:"flags"`
	Chromosome     string `tsv:"chrom"`
	UnclippedStart int    `tsv:"unclipped_start"`
	UnclippedEnd   int    `tsv:"unclipped_end"`
	SoftClipLeft   int    `tsv:"soft_clip_left"`
	SoftClipRight  int    `tsv:"soft_clip_right"`
	InsertSize     int    `tsv:"insert_size"`
	FullIndexStart int    `tsv:"full_index_start"`
	FullIndexEnd   int    `tsv:"full_index_end"`
	Extension      int    `tsv:"extension"`
}

func newTSVReader(r io.Reader) *tsv.Reader {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	return tr
}

func listItems(cell string) []string {
	if cell == "" || cell == "." {
		return nil
	}
	return strings.Split(cell, ";")
}

func parseOrientation(s string) (sv.Orientation, error) {
	switch s {
	case "1", "+1", "+":
		return sv.Forward, nil
	case "-1", "-":
		return sv.Reverse, nil
	}
	return 0, fmt.Errorf("bad orientation %q", s)
}

// parseLocation parses "chrom,pos,orient" fields.
func parseLocation(fields []string) (chrom string, pos int, orient sv.Orientation, err error) {
	chrom = fields[0]
	if pos, err = strconv.Atoi(fields[1]); err != nil {
		return
	}
	orient, err = parseOrientation(fields[2])
	return
}

func parseExpectedIndel(cell string) (*sv.ExpectedIndel, error) {
	if cell == "" || cell == "." {
		return nil, nil
	}
	parts := strings.Split(cell, ":")
	if len(parts) != 2 || (parts[0] != "DEL" && parts[0] != "INS") {
		return nil, fmt.Errorf("bad expected indel %q", cell)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("bad expected indel length %q", cell)
	}
	return &sv.ExpectedIndel{Deletion: parts[0] == "DEL", Length: n}, nil
}

func (row *assemblyRow) assembly() (*sv.AssemblyAlignment, error) {
	if row.ID == "" || row.Sequence == "" {
		return nil, errors.E(errors.Invalid, "assembly without ID or sequence")
	}
	asm := &sv.AssemblyAlignment{
		ID:               row.ID,
		FullSequence:     []byte(strings.ToUpper(row.Sequence)),
		PhaseChainLength: row.PhaseChainLength,
	}
	var err error
	if row.Linked != "" && row.Linked != "." {
		if asm.Linked, err = strconv.ParseBool(row.Linked); err != nil {
			return nil, errors.E(err, "linked", row.ID)
		}
	}
	if asm.ExpectedIndel, err = parseExpectedIndel(row.ExpectedIndel); err != nil {
		return nil, errors.E(err, row.ID)
	}
	for _, item := range listItems(row.SubAssemblies) {
		fields := strings.Split(item, ",")
		if len(fields) != 4 {
			return nil, errors.E(errors.Invalid, "bad sub-assembly", row.ID, item)
		}
		sub := sv.SubAssembly{ID: fields[0]}
		if sub.Chromosome, sub.Position, sub.Orientation, err = parseLocation(fields[1:]); err != nil {
			return nil, errors.E(err, "sub-assembly", row.ID, item)
		}
		asm.SubAssemblies = append(asm.SubAssemblies, sub)
	}
	for _, item := range listItems(row.DeclaredFacing) {
		fields := strings.Split(item, ",")
		if len(fields) != 6 {
			return nil, errors.E(errors.Invalid, "bad declared facing link", row.ID, item)
		}
		var f sv.DeclaredFacing
		if f.ChromosomeA, f.PositionA, f.OrientationA, err = parseLocation(fields[:3]); err != nil {
			return nil, errors.E(err, "declared facing link", row.ID, item)
		}
		if f.ChromosomeB, f.PositionB, f.OrientationB, err = parseLocation(fields[3:]); err != nil {
			return nil, errors.E(err, "declared facing link", row.ID, item)
		}
		asm.DeclaredFacing = append(asm.DeclaredFacing, f)
	}
	return asm, nil
}

// ReadAssemblies parses an assembly TSV. Assembly IDs must be unique.
func ReadAssemblies(r io.Reader) ([]*sv.AssemblyAlignment, error) {
	tr := newTSVReader(r)
	var (
		assemblies []*sv.AssemblyAlignment
		seen       = map[string]bool{}
	)
	for {
		var row assemblyRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		asm, err := row.assembly()
		if err != nil {
			return nil, err
		}
		if seen[asm.ID] {
			return nil, errors.E(errors.Invalid, "duplicate assembly", asm.ID)
		}
		seen[asm.ID] = true
		assemblies = append(assemblies, asm)
	}
	return assemblies, nil
}

// ReadSupportReads parses a support read TSV and appends each read to its
// assembly.
func ReadSupportReads(r io.Reader, assemblies []*sv.AssemblyAlignment) error {
	byID := make(map[string]*sv.AssemblyAlignment, len(assemblies))
	for _, asm := range assemblies {
		byID[asm.ID] = asm
	}
	tr := newTSVReader(r)
	n := 0
	for {
		var row readRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		asm, ok := byID[row.Assembly]
		if !ok {
			return errors.E(errors.NotExist, "support read for unknown assembly", row.Assembly, row.ID)
		}
		asm.Reads = append(asm.Reads, sv.SupportRead{
			ID:              row.ID,
			Sample:          row.Sample,
			Flags:           sam.Flags(row.Flags),
			Chromosome:      row.Chromosome,
			UnclippedStart:  row.UnclippedStart,
			UnclippedEnd:    row.UnclippedEnd,
			SoftClipLeft:    row.SoftClipLeft,
			SoftClipRight:   row.SoftClipRight,
			InsertSize:      row.InsertSize,
			FullIndexStart:  row.FullIndexStart,
			FullIndexEnd:    row.FullIndexEnd,
			ExtensionLength: row.Extension,
			BreakendIndex:   -1,
		})
		n++
	}
	log.Debug.Printf("svio: read %d support reads", n)
	return nil
}

// openInput opens path, decompressing by file extension.
func openInput(ctx context.Context, path string) (file.File, io.Reader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "open", path)
	}
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	return in, r, nil
}

// LoadAssemblies reads the assemblies at assemblyPath and, if readsPath is
// not empty, their support reads.
func LoadAssemblies(ctx context.Context, assemblyPath, readsPath string) (assemblies []*sv.AssemblyAlignment, err error) {
	in, r, err := openInput(ctx, assemblyPath)
	if err != nil {
		return nil, err
	}
	assemblies, err = ReadAssemblies(r)
	once := errors.Once{}
	once.Set(err)
	once.Set(in.Close(ctx))
	if err := once.Err(); err != nil {
		return nil, errors.E(err, assemblyPath)
	}
	if readsPath != "" {
		if in, r, err = openInput(ctx, readsPath); err != nil {
			return nil, err
		}
		once := errors.Once{}
		once.Set(ReadSupportReads(r, assemblies))
		once.Set(in.Close(ctx))
		if err := once.Err(); err != nil {
			return nil, errors.E(err, readsPath)
		}
	}
	log.Printf("svio: loaded %d assemblies from %s", len(assemblies), assemblyPath)
	return assemblies, nil
}
