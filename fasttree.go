package ortho

import (
	"bytes"
	"io"
	"os"
	"os/exec"
)

// FastTree estimates an approximate maximum likelihood tree from the
// alignment on stdin, writing newick to stdout.
func FastTree(stdin io.Reader, stdout, stderr io.Writer, options ...string) error {
	cmd := exec.Command("FastTree", options...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// BuildTreeFile runs a tree builder on the alignment file at alnPath
// and writes the tree to treePath. The alignment is streamed as-is, so
// the simplified post-pipeline headers pass through untouched.
func BuildTreeFile(alnPath, treePath string, treeFunc ToolFunc, options ...string) error {
	in, err := os.Open(alnPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(treePath)
	if err != nil {
		return err
	}

	stderr := new(bytes.Buffer)
	if err := treeFunc(in, out, stderr, options...); err != nil {
		out.Close()
		os.Remove(treePath)
		return &ToolError{Tool: "tree builder", Stderr: stderr.String(), Err: err}
	}
	return out.Close()
}
