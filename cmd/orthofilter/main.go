// orthofilter filters and trims HaMStR ortholog group sequence sets
// into alignments suitable for phylogenomic tree inference. It wraps
// MAFFT, Aliscore, ALICUT, EMBOSS infoalign, FastTree and
// PhyloTreePruner; its own work is file bookkeeping, filtering and
// invocation order.
package main

import (
	"log"
	"os"

	"github.com/rakyll/command"
)

var (
	INFO  *log.Logger
	WARN  *log.Logger
	ERROR *log.Logger
)

func main() {
	INFO = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WARN = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ERROR = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	command.On("run", "run the full filtering pipeline", &cmdRun{}, []string{})
	command.On("backup", "archive the input group files", &cmdBackup{}, []string{})
	command.On("clean", "length filter, first taxa checkpoint, dedup and terminal trims", &cmdClean{}, []string{})
	command.On("align", "align each group and archive raw alignments", &cmdAlign{}, []string{})
	command.On("mask", "remove unreliable alignment columns", &cmdMask{}, []string{})
	command.On("divergence", "drop sequences too divergent from the consensus", &cmdDivergence{}, []string{})
	command.On("polish", "stray fragment cleanup, sparse columns, length checkpoint", &cmdPolish{}, []string{})
	command.On("overlap", "pairwise overlap filter and second taxa checkpoint", &cmdOverlap{}, []string{})
	command.On("simplify", "simplify headers and archive pre-tree snapshot", &cmdSimplify{}, []string{})
	command.On("tree", "build one tree per group", &cmdTree{}, []string{})
	command.On("prune", "prune paralogs into the final alignments", &cmdPrune{}, []string{})
	command.On("taxa", "list distinct taxon codes across groups", &cmdTaxa{}, []string{})
	command.ParseAndRun()
}
