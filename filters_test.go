package ortho

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// makeGroup builds a group from taxon codes and sequences, one record
// per pair.
func makeGroup(t *testing.T, taxa []string, seqs []string) *Group {
	t.Helper()
	if len(taxa) != len(seqs) {
		t.Fatal("taxa and seqs length mismatch")
	}
	g := &Group{ID: "0001"}
	for i := range taxa {
		g.Records = append(g.Records, Record{
			Header: Header{Group: "0001", Taxon: taxa[i], Annotation: fmt.Sprintf("c%d", i)},
			Seq:    []byte(seqs[i]),
		})
	}
	return g
}

func TestFilterShort(t *testing.T) {
	g := makeGroup(t,
		[]string{"AAAA", "BBBB", "CCCC"},
		[]string{
			strings.Repeat("M", 49),
			strings.Repeat("M", 50),
			strings.Repeat("M", 40) + strings.Repeat("-", 20), // 40 residues despite 60 columns
		})

	removed := FilterShort(g, 50)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, rec := range g.Records {
		if rec.Residues() < 50 {
			t.Errorf("record %s survived with %d residues", rec.Header, rec.Residues())
		}
	}
	if len(g.Records) != 1 || g.Records[0].Header.Taxon != "BBBB" {
		t.Errorf("surviving records = %v", g.Records)
	}
}

func TestFilterShortCanEmptyGroup(t *testing.T) {
	g := makeGroup(t, []string{"AAAA"}, []string{"MKV"})
	FilterShort(g, 50)
	if len(g.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(g.Records))
	}
	if g.Occupancy() != 0 {
		t.Errorf("occupancy = %d, want 0", g.Occupancy())
	}
}

func TestDedup(t *testing.T) {
	g := makeGroup(t,
		[]string{"AAAA", "AAAA", "AAAA", "BBBB"},
		[]string{"MKVLV", "MKVLV", "MKVLA", "MKVLV"})

	removed := Dedup(g)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	// Same taxon with a different sequence stays; same sequence under
	// a different taxon stays.
	if len(g.Records) != 3 {
		t.Errorf("records = %d, want 3", len(g.Records))
	}
	if g.Records[0].Header.Annotation != "c0" {
		t.Errorf("representative = %s, want first seen", g.Records[0].Header)
	}
}

func TestTrimLeadingAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{
			name: "X within window",
			seq:  "MKVLX" + strings.Repeat("A", 40),
			want: strings.Repeat("A", 40),
		},
		{
			name: "last X within window wins",
			seq:  "XMKXVL" + strings.Repeat("A", 40),
			want: "VL" + strings.Repeat("A", 40),
		},
		{
			name: "X at residue 20 untouched",
			seq:  strings.Repeat("A", 20) + "X" + strings.Repeat("A", 30),
			want: strings.Repeat("A", 20) + "X" + strings.Repeat("A", 30),
		},
		{
			name: "X at residue 19 trimmed",
			seq:  strings.Repeat("A", 19) + "X" + strings.Repeat("A", 30),
			want: strings.Repeat("A", 30),
		},
		{
			name: "no X",
			seq:  strings.Repeat("A", 40),
			want: strings.Repeat("A", 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := makeGroup(t, []string{"AAAA"}, []string{tt.seq})
			TrimLeadingAmbiguity(g, 20)
			if got := string(g.Records[0].Seq); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimTrailingAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{
			name: "X within window",
			seq:  strings.Repeat("A", 40) + "XVL",
			want: strings.Repeat("A", 40),
		},
		{
			name: "X at residue 20 from end untouched",
			seq:  strings.Repeat("A", 30) + "X" + strings.Repeat("A", 20),
			want: strings.Repeat("A", 30) + "X" + strings.Repeat("A", 20),
		},
		{
			name: "X at residue 19 from end trimmed",
			seq:  strings.Repeat("A", 30) + "X" + strings.Repeat("A", 19),
			want: strings.Repeat("A", 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := makeGroup(t, []string{"AAAA"}, []string{tt.seq})
			TrimTrailingAmbiguity(g, 20)
			if got := string(g.Records[0].Seq); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskStrayFragments(t *testing.T) {
	gaps := func(n int) string { return strings.Repeat("-", n) }

	tests := []struct {
		name string
		seq  string
		want string
	}{
		{
			name: "stranded fragment becomes gaps",
			seq:  gaps(10) + "AB" + gaps(10),
			want: gaps(22),
		},
		{
			name: "run of 20 masked",
			seq:  gaps(10) + strings.Repeat("A", 20) + gaps(10),
			want: gaps(40),
		},
		{
			name: "run of 21 untouched",
			seq:  gaps(10) + strings.Repeat("A", 21) + gaps(10),
			want: gaps(10) + strings.Repeat("A", 21) + gaps(10),
		},
		{
			name: "nine gap flank untouched",
			seq:  gaps(9) + "AB" + gaps(10),
			want: gaps(9) + "AB" + gaps(10),
		},
		{
			name: "sequence start is not a flank",
			seq:  "AB" + gaps(10) + strings.Repeat("A", 30),
			want: "AB" + gaps(10) + strings.Repeat("A", 30),
		},
		{
			name: "sequence end is not a flank",
			seq:  strings.Repeat("A", 30) + gaps(10) + "AB",
			want: strings.Repeat("A", 30) + gaps(10) + "AB",
		},
		{
			name: "ambiguity marker keeps its run",
			seq:  gaps(10) + "AXA" + gaps(10),
			want: gaps(10) + "AXA" + gaps(10),
		},
		{
			name: "lone ambiguity marker untouched",
			seq:  gaps(10) + "X" + gaps(10),
			want: gaps(10) + "X" + gaps(10),
		},
		{
			name: "replaced run extends left flank of the next",
			seq:  gaps(10) + "AB" + gaps(10) + "CD" + gaps(10),
			want: gaps(34),
		},
		{
			name: "long run resets flank",
			seq:  gaps(10) + strings.Repeat("A", 30) + gaps(5) + "CD" + gaps(10),
			want: gaps(10) + strings.Repeat("A", 30) + gaps(5) + "CD" + gaps(10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := makeGroup(t, []string{"AAAA"}, []string{tt.seq})
			MaskStrayFragments(g, 20, 10)
			got := string(g.Records[0].Seq)
			if got != tt.want {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
			if len(got) != len(tt.seq) {
				t.Errorf("length changed: %d -> %d", len(tt.seq), len(got))
			}
		})
	}
}

func TestRemoveSparseColumns(t *testing.T) {
	// Column support: col 0 has 5 residues, col 1 has 4, col 2 none.
	seqs := []string{
		"MA-", "MA-", "MA-", "MA-", "M--",
	}
	g := makeGroup(t, []string{"T1", "T2", "T3", "T4", "T5"}, seqs)

	removed, err := RemoveSparseColumns(g, 4)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, rec := range g.Records {
		if len(rec.Seq) != 1 {
			t.Errorf("record %s has %d columns, want 1", rec.Header, len(rec.Seq))
		}
	}

	// Idempotent: a second pass removes nothing.
	removed, err = RemoveSparseColumns(g, 4)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("second pass removed %d columns", removed)
	}
}

func TestRemoveSparseColumnsSmallGroup(t *testing.T) {
	// Four sequences can never support a column above the default
	// cutoff; the whole alignment vanishes.
	g := makeGroup(t, []string{"T1", "T2", "T3", "T4"},
		[]string{"MKV", "MKV", "MKV", "MKV"})
	removed, err := RemoveSparseColumns(g, 4)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	for _, rec := range g.Records {
		if len(rec.Seq) != 0 {
			t.Errorf("record %s not emptied", rec.Header)
		}
	}
}

func TestRemoveSparseColumnsRagged(t *testing.T) {
	g := makeGroup(t, []string{"T1", "T2"}, []string{"MKV", "MK"})
	if _, err := RemoveSparseColumns(g, 4); err == nil {
		t.Fatal("expected error for ragged alignment")
	}
}

func TestFilterDivergent(t *testing.T) {
	g := makeGroup(t, []string{"T1", "T2", "T3"},
		[]string{"MKVLV", "MKVLA", "MKVAA"})

	similarity := map[string]float64{
		g.Records[0].Header.Safe(): 75, // boundary is inclusive
		g.Records[1].Header.Safe(): 70,
		// T3 missing from the report.
	}
	removed := FilterDivergent(g, similarity, 75)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if len(g.Records) != 1 || g.Records[0].Header.Taxon != "T1" {
		t.Errorf("surviving records = %v", g.Records)
	}
}

func TestMeanResidues(t *testing.T) {
	g := makeGroup(t, []string{"T1", "T2"}, []string{"MKVL----", "MK------"})
	if got := g.MeanResidues(); got != 3 {
		t.Errorf("MeanResidues = %v, want 3", got)
	}
	empty := &Group{ID: "0002"}
	if got := empty.MeanResidues(); got != 0 {
		t.Errorf("empty MeanResidues = %v, want 0", got)
	}
}

func TestOccupancy(t *testing.T) {
	g := makeGroup(t, []string{"T1", "T1", "T2"}, []string{"MKV", "MKA", "MKV"})
	if got := g.Occupancy(); got != 2 {
		t.Errorf("Occupancy = %d, want 2", got)
	}
	if got := g.Taxa(); len(got) != 2 || got[0] != "T1" || got[1] != "T2" {
		t.Errorf("Taxa = %v", got)
	}
}

func TestAlignedLen(t *testing.T) {
	g := makeGroup(t, []string{"T1", "T2"}, []string{"MKV-", "MKVA"})
	n, err := g.AlignedLen()
	if err != nil || n != 4 {
		t.Errorf("AlignedLen = %d, %v", n, err)
	}
	g.Records[1].Seq = bytes.Repeat([]byte{'A'}, 5)
	if _, err := g.AlignedLen(); err == nil {
		t.Error("expected error for ragged group")
	}
}
