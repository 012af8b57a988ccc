package ortho

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Tie-break policies for paralog pruning. Redundant keeps all
// candidate sequences per taxon so a downstream tool can pick the best;
// Unique keeps the longest.
const (
	PruneRedundant = "r"
	PruneUnique    = "u"
)

// OverlapFunc removes sequences that fail to pairwise-overlap every
// other sequence in the alignment file at path, rewriting it in place.
type OverlapFunc func(path string) error

// NewAlignmentCompare returns an OverlapFunc backed by the
// AlignmentCompare class shipped with PhyloTreePruner.
func NewAlignmentCompare(install string) OverlapFunc {
	return func(path string) error {
		return run(exec.Command("java", "-cp", install, "AlignmentCompare", path))
	}
}

// FilterOverlap applies the overlap filter until no further sequences
// are removed, so the fixed point holds even for implementations that
// only sweep once.
func FilterOverlap(path string, overlap OverlapFunc) (removed int, err error) {
	for {
		before, err := CountRecords(path)
		if err != nil {
			return removed, err
		}
		if before == 0 {
			return removed, nil
		}
		if err := overlap(path); err != nil {
			return removed, err
		}
		after, err := CountRecords(path)
		if err != nil {
			return removed, err
		}
		removed += before - after
		if after >= before {
			return removed, nil
		}
	}
}

// CountRecords counts the FASTA records in a file without parsing
// headers, so it works on any delimiter form.
func CountRecords(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if bytes.HasPrefix(line, []byte{'>'}) {
			n++
		}
	}
	return n, nil
}

// PruneFunc runs paralog pruning for one group: given the tree and the
// alignment it writes the pruned alignment and returns its path.
type PruneFunc func(treePath, alnPath string) (string, error)

// NewPhyloTreePruner returns a PruneFunc shelling out to the
// PhyloTreePruner distribution at install. The tool appends
// "_pruned.fa" to the alignment name.
func NewPhyloTreePruner(install string, minTaxa int, bootstrap float64, mode string) PruneFunc {
	return func(treePath, alnPath string) (string, error) {
		cmd := exec.Command("java", "-cp", install, "PhyloTreePruner",
			treePath,
			strconv.Itoa(minTaxa),
			alnPath,
			strconv.FormatFloat(bootstrap, 'f', -1, 64),
			mode)
		if err := run(cmd); err != nil {
			return "", err
		}
		out := alnPath + "_pruned.fa"
		if _, err := os.Stat(out); err != nil {
			return "", &ToolError{Tool: "PhyloTreePruner", Err: fmt.Errorf("missing output %s: %v", out, err)}
		}
		return out, nil
	}
}
