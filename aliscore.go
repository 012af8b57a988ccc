package ortho

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// MaskFunc detects and removes unreliable alignment columns from the
// named file inside dir, rewriting the file in place. It returns the
// 1-based indices of the columns that were cut, for the masking
// diagnostics archive.
type MaskFunc func(dir, name string) ([]int, error)

// NewAliscoreMask returns a MaskFunc backed by the Aliscore and ALICUT
// perl scripts. Aliscore writes a List file of unreliable columns next
// to the alignment; ALICUT then cuts those columns, producing an
// ALICUT_ prefixed copy that replaces the input.
func NewAliscoreMask(aliscore, alicut string) MaskFunc {
	return func(dir, name string) ([]int, error) {
		detect := exec.Command("perl", aliscore, "-N", "-r", "200000000", "-i", name)
		detect.Dir = dir
		if err := run(detect); err != nil {
			return nil, err
		}

		cols, err := ReadColumnList(filepath.Join(dir, name+"_List_random.txt"))
		if err != nil {
			return nil, err
		}

		cut := exec.Command("perl", alicut, "-s")
		cut.Dir = dir
		if err := run(cut); err != nil {
			return nil, err
		}
		if err := os.Rename(filepath.Join(dir, "ALICUT_"+name), filepath.Join(dir, name)); err != nil {
			return nil, &ToolError{Tool: "ALICUT", Err: fmt.Errorf("missing output: %v", err)}
		}
		return cols, nil
	}
}

// ReadColumnList parses an Aliscore List file: whitespace-separated
// 1-based column numbers.
func ReadColumnList(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ToolError{Tool: "Aliscore", Err: fmt.Errorf("missing column list: %v", err)}
	}

	fields := strings.Fields(string(data))
	cols := make([]int, 0, len(fields))
	for _, f := range fields {
		c, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("column list %s: %v", path, err)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// WriteColumnList stores cut column indices in Aliscore List format.
func WriteColumnList(path string, cols []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(f, " ")
		}
		fmt.Fprintf(f, "%d", c)
	}
	fmt.Fprintln(f)
	return f.Close()
}
