// alnstat reports per-group statistics for a directory of ortholog
// group alignments: sequence count, taxon occupancy, alignment width
// and mean residues per sequence, plus an overall summary.
package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	ortho "github.com/kmkocot/Lophotrochozoa-phylogenomics-scripts-06-2015"
	"github.com/mingzhi/gomath/stat/desc/meanvar"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/cheggaaa/pb.v1"
)

// ShowProgress show progress.
var ShowProgress bool

// Stat is one output row.
type Stat struct {
	ID      string
	NumSeq  int
	NumTaxa int
	AlnLen  int
	MeanRes float64
}

func main() {
	app := kingpin.New("alnstat", "Report ortholog group alignment statistics")
	app.Version("v0.1")
	dirArg := app.Arg("dir", "directory of group files").Required().String()
	outFlag := app.Flag("out", "output file (default stdout)").Default("").String()
	ncpuFlag := app.Flag("ncpu", "number of CPUs").Default("0").Int()
	progressFlag := app.Flag("progress", "show progress").Default("false").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	ncpu := *ncpuFlag
	if ncpu == 0 {
		ncpu = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(ncpu)
	ShowProgress = *progressFlag

	names := listGroups(*dirArg)
	if len(names) == 0 {
		log.Fatalf("no %s files in %s\n", ortho.GroupExt, *dirArg)
	}

	jobs := make(chan string)
	go func() {
		for _, name := range names {
			jobs <- name
		}
		close(jobs)
	}()

	results := make(chan Stat)
	done := make(chan bool)
	for i := 0; i < ncpu; i++ {
		go func() {
			for name := range jobs {
				g, err := ortho.ReadGroup(filepath.Join(*dirArg, name))
				if err != nil {
					log.Fatalln(err)
				}
				alnLen, err := g.AlignedLen()
				if err != nil {
					log.Fatalln(err)
				}
				results <- Stat{
					ID:      g.ID,
					NumSeq:  len(g.Records),
					NumTaxa: g.Occupancy(),
					AlnLen:  alnLen,
					MeanRes: g.MeanResidues(),
				}
			}
			done <- true
		}()
	}

	go func() {
		for i := 0; i < ncpu; i++ {
			<-done
		}
		close(results)
	}()

	stats := collect(results, len(names))
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	write(stats, *outFlag)
}

func listGroups(dir string) (names []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalln(err)
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ortho.GroupExt {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return
}

// collect drains the result channel, showing progress if asked.
func collect(results chan Stat, numJob int) (stats []Stat) {
	var pbar *pb.ProgressBar
	if ShowProgress {
		pbar = pb.StartNew(numJob)
		defer pbar.Finish()
	}

	for s := range results {
		stats = append(stats, s)
		if ShowProgress {
			pbar.Increment()
		}
	}
	return
}

// write prints one row per group and a summary of occupancy and mean
// length across groups.
func write(stats []Stat, filename string) {
	w := os.Stdout
	if filename != "" {
		f, err := os.Create(filename)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		w = f
	}

	occupancy := meanvar.New()
	length := meanvar.New()
	fmt.Fprintln(w, "group\tseqs\ttaxa\tcolumns\tmean_residues")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\n", s.ID, s.NumSeq, s.NumTaxa, s.AlnLen, s.MeanRes)
		occupancy.Increment(float64(s.NumTaxa))
		length.Increment(s.MeanRes)
	}
	fmt.Fprintf(w, "# %d groups, occupancy %.1f +/- %.1f, mean residues %.1f +/- %.1f\n",
		len(stats),
		occupancy.Mean.GetResult(), math.Sqrt(occupancy.Var.GetResult()),
		length.Mean.GetResult(), math.Sqrt(length.Var.GetResult()))
}
