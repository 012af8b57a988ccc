package ortho

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// AlignReport is one infoalign row: a sequence name and its percent
// change relative to the alignment consensus.
type AlignReport struct {
	Name   string
	Change float64
}

// Similarity is the percent agreement with the consensus.
func (r AlignReport) Similarity() float64 {
	return 100 - r.Change
}

// ReportFunc produces per-sequence alignment quality rows for the
// alignment file at path.
type ReportFunc func(path string) ([]AlignReport, error)

// Infoalign runs EMBOSS infoalign on the alignment, reporting only the
// name and change percentage of each sequence.
func Infoalign(path string) ([]AlignReport, error) {
	temp, err := ioutil.TempFile(os.TempDir(), "infoalign")
	if err != nil {
		return nil, err
	}
	temp.Close()
	defer os.Remove(temp.Name())

	cmd := exec.Command("infoalign",
		"-sequence", path,
		"-outfile", temp.Name(),
		"-nousa", "-only", "-name", "-change")
	if err := run(cmd); err != nil {
		return nil, err
	}

	return ParseInfoalign(temp.Name())
}

// ParseInfoalign reads an infoalign outfile produced with
// -nousa -only -name -change: one "name change" row per sequence,
// comment lines starting with #.
func ParseInfoalign(path string) ([]AlignReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ToolError{Tool: "infoalign", Err: fmt.Errorf("missing report: %v", err)}
	}
	defer f.Close()

	var reports []AlignReport
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("infoalign report %s: short row %q", path, line)
		}
		change, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("infoalign report %s: %v", path, err)
		}
		reports = append(reports, AlignReport{Name: fields[0], Change: change})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
