package ortho

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ToolFunc runs an external stream filter: FASTA records in on stdin,
// result out on stdout. Production implementations shell out to the
// real binaries; tests substitute deterministic fakes.
type ToolFunc func(stdin io.Reader, stdout, stderr io.Writer, options ...string) error

// ToolError reports an external program that exited non-zero or failed
// to produce its expected output. It halts the pipeline run: silent
// corruption is worse than stopping.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
}

// run executes a prepared command, capturing stderr into a ToolError.
func run(cmd *exec.Cmd) error {
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{
			Tool:   cmd.Args[0],
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return nil
}
