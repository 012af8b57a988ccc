package ortho

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Mafft aligns the FASTA records on stdin, writing the alignment to
// stdout. The trailing "-" makes mafft read from stdin.
func Mafft(stdin io.Reader, stdout, stderr io.Writer, options ...string) error {
	args := append([]string{}, options...)
	args = append(args, "-")
	cmd := exec.Command("mafft", args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Align runs the group through an aligner and replaces each record's
// sequence with its aligned version, matched back by header.
func Align(g *Group, alignFunc ToolFunc, options ...string) error {
	if len(g.Records) == 0 {
		return nil
	}

	stdin := new(bytes.Buffer)
	for _, rec := range g.Records {
		fmt.Fprintf(stdin, ">%s\n", rec.Header)
		stdin.Write(rec.Seq)
		stdin.WriteByte('\n')
	}

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	if err := alignFunc(stdin, stdout, stderr, options...); err != nil {
		return &ToolError{Tool: "aligner", Stderr: stderr.String(), Err: err}
	}

	aligned := make(map[string][]byte)
	r := fasta.NewReader(stdout, linear.NewSeq("", nil, alphabet.Protein))
	sc := seqio.NewScanner(r)
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		aligned[s.Name()] = alphabet.LettersToBytes(s.Seq)
	}
	if err := sc.Error(); err != nil {
		return &ToolError{Tool: "aligner", Err: err}
	}

	for i := range g.Records {
		seq, found := aligned[g.Records[i].Header.String()]
		if !found {
			return &ToolError{
				Tool: "aligner",
				Err:  fmt.Errorf("no aligned output for %s", g.Records[i].Header),
			}
		}
		g.Records[i].Seq = seq
	}
	return nil
}
