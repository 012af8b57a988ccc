package ortho

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGroupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0007.fas")

	g := makeGroup(t, []string{"LGIG", "CGIG"}, []string{"MKVLVAAX", "MKVLVAA-"})
	g.ID = "0007"
	for i := range g.Records {
		g.Records[i].Header.Group = "0007"
	}

	if err := g.Write(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadGroup(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "0007" {
		t.Errorf("ID = %q", got.ID)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	for i, rec := range got.Records {
		if rec.Header != g.Records[i].Header {
			t.Errorf("header %d = %+v, want %+v", i, rec.Header, g.Records[i].Header)
		}
		if string(rec.Seq) != string(g.Records[i].Seq) {
			t.Errorf("seq %d = %q, want %q", i, rec.Seq, g.Records[i].Seq)
		}
	}
}

func TestGroupWriteSingleLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.fas")

	g := makeGroup(t, []string{"LGIG"}, []string{strings.Repeat("M", 500)})
	if err := g.Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one sequence line", len(lines))
	}
	if !strings.HasPrefix(lines[0], ">") || len(lines[1]) != 500 {
		t.Errorf("unexpected layout: %q / %d residues", lines[0], len(lines[1]))
	}
}

func TestGroupSafeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0002.fas")

	g := makeGroup(t, []string{"LGIG"}, []string{"MKVLV"})
	if err := g.WriteSafe(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), Delim) {
		t.Errorf("safe serialization still contains %q: %s", Delim, data)
	}

	got, err := ReadSafeGroup(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Records[0].Header != g.Records[0].Header {
		t.Errorf("header = %+v, want %+v", got.Records[0].Header, g.Records[0].Header)
	}
}

func TestReadGroupMalformedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0003.fas")
	if err := os.WriteFile(path, []byte(">badheader\nMKVLV\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadGroup(path); err == nil {
		t.Fatal("expected malformed header error")
	}
}

func TestGroupID(t *testing.T) {
	tests := []struct{ path, want string }{
		{"0001.fas", "0001"},
		{"/work/dir/0042.fas", "0042"},
		{"0042", "0042"},
	}
	for _, tt := range tests {
		if got := GroupID(tt.path); got != tt.want {
			t.Errorf("GroupID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
