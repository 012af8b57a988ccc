package ortho

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/mingzhi/gomath/stat/desc"
)

// Markers used in amino acid alignments.
const (
	GapByte       = '-'
	AmbiguousByte = 'X'
)

// GroupExt is the file extension of ortholog group files.
const GroupExt = ".fas"

// Sequences are written on a single line each, so line-oriented tools
// downstream see one record per header/sequence pair.
const fastaLineWidth = 1 << 20

// Record is one amino acid sequence in an ortholog group.
type Record struct {
	Header Header
	Seq    []byte
}

// Residues returns the number of non-gap positions.
func (r Record) Residues() int {
	n := 0
	for _, b := range r.Seq {
		if b != GapByte {
			n++
		}
	}
	return n
}

// Group is the set of sequence records sharing one ortholog group id.
// The id is carried by the file name; the records repeat it in their
// headers until the header simplification stage.
type Group struct {
	ID      string
	Records []Record
}

// GroupID derives the group id from a file name or path.
func GroupID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadGroup loads an ortholog group from a FASTA file with
// pipe-delimited headers.
func ReadGroup(path string) (*Group, error) {
	return readGroup(path, ParseHeader)
}

// ReadSafeGroup loads a group whose headers use the tool-safe delimiter.
func ReadSafeGroup(path string) (*Group, error) {
	return readGroup(path, ParseSafeHeader)
}

func readGroup(path string, parse func(string) (Header, error)) (*Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g := &Group{ID: GroupID(path)}
	r := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.Protein))
	sc := seqio.NewScanner(r)
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		h, err := parse(s.Name())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		g.Records = append(g.Records, Record{Header: h, Seq: alphabet.LettersToBytes(s.Seq)})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("read %s: %v", path, err)
	}

	return g, nil
}

// Write stores the group as FASTA with pipe-delimited headers.
func (g *Group) Write(path string) error {
	return g.write(path, Header.String)
}

// WriteSafe stores the group with the tool-safe delimiter.
func (g *Group) WriteSafe(path string) error {
	return g.write(path, Header.Safe)
}

// WriteShort stores the group with simplified headers: no group field,
// tool-safe delimiter.
func (g *Group) WriteShort(path string) error {
	return g.write(path, Header.Short)
}

func (g *Group) write(path string, render func(Header) string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := fasta.NewWriter(f, fastaLineWidth)
	for _, rec := range g.Records {
		s := linear.NewSeq(render(rec.Header), alphabet.BytesToLetters(rec.Seq), alphabet.Protein)
		if _, err := w.Write(s); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %v", path, err)
		}
	}

	return f.Close()
}

// Taxa returns the sorted distinct taxon codes present in the group.
func (g *Group) Taxa() []string {
	set := make(map[string]bool)
	for _, rec := range g.Records {
		set[rec.Header.Taxon] = true
	}
	taxa := make([]string, 0, len(set))
	for t := range set {
		taxa = append(taxa, t)
	}
	sort.Strings(taxa)
	return taxa
}

// Occupancy is the number of distinct taxa with at least one surviving
// sequence. It is recomputed fresh at every minimum-taxa checkpoint.
func (g *Group) Occupancy() int {
	set := make(map[string]bool)
	for _, rec := range g.Records {
		set[rec.Header.Taxon] = true
	}
	return len(set)
}

// AlignedLen returns the common sequence length of an aligned group.
// A ragged group is an error.
func (g *Group) AlignedLen() (int, error) {
	if len(g.Records) == 0 {
		return 0, nil
	}
	n := len(g.Records[0].Seq)
	for _, rec := range g.Records[1:] {
		if len(rec.Seq) != n {
			return 0, fmt.Errorf("group %s: ragged alignment: %s has %d columns, want %d",
				g.ID, rec.Header, len(rec.Seq), n)
		}
	}
	return n, nil
}

// MeanResidues returns the mean non-gap count per record.
func (g *Group) MeanResidues() float64 {
	m := desc.NewMean()
	for _, rec := range g.Records {
		m.Increment(float64(rec.Residues()))
	}
	if m.GetN() == 0 {
		return 0
	}
	return m.GetResult()
}
