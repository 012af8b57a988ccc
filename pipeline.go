package ortho

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gopkg.in/cheggaaa/pb.v1"
)

var (
	Info = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime)
)

// Archival checkpoints and rejection buckets, as subdirectories of the
// working directory. A group moved into a bucket is never re-examined.
const (
	DirBackupInput      = "backup_input"
	DirBackupAligned    = "backup_aligned"
	DirAliscoreLists    = "aliscore_lists"
	DirInfoalignReports = "infoalign_reports"
	DirBackupPretree    = "backup_pretree"
	DirTrees            = "trees"
	DirPruned           = "pruned"
	DirManifests        = "manifests"

	BucketFewTaxa1 = "few_taxa_1"
	BucketShortAln = "short_alignment"
	BucketFewTaxa2 = "few_taxa_2"
)

// TaxaListFile names the diagnostic listing of distinct taxon codes.
const TaxaListFile = "taxa_list.txt"

// Options hold the configurable thresholds and tool settings.
type Options struct {
	MinSeqLen     int     // minimum residues per sequence.
	MinTaxa       int     // minimum taxon occupancy per group.
	MinAlnLen     int     // minimum mean residues per sequence, post masking.
	MinColSupport int     // columns with at most this many residues are dropped.
	MinSimilarity float64 // minimum percent similarity to the consensus.
	TrimWindow    int     // terminal window scanned for ambiguity markers.
	MaxStrayRun   int     // longest residue run treated as a stray fragment.
	MinFlankGaps  int     // shortest gap run counting as a flank.

	MafftOpts    []string
	FastTreeOpts []string

	AliscoreScript string
	AlicutScript   string
	PrunerInstall  string
	Bootstrap      float64
	PruneMode      string

	NumCPU int
}

// DefaultOptions returns the reference thresholds.
func DefaultOptions() Options {
	return Options{
		MinSeqLen:      50,
		MinTaxa:        50,
		MinAlnLen:      50,
		MinColSupport:  4,
		MinSimilarity:  75,
		TrimWindow:     20,
		MaxStrayRun:    20,
		MinFlankGaps:   10,
		MafftOpts:      []string{"--localpair", "--maxiterate", "1000", "--anysymbol", "--quiet"},
		FastTreeOpts:   []string{"-slow", "-gamma"},
		AliscoreScript: "Aliscore.02.2.pl",
		AlicutScript:   "ALICUT_V2.3.pl",
		Bootstrap:      0.7,
		PruneMode:      PruneRedundant,
		NumCPU:         runtime.NumCPU(),
	}
}

// Pipeline drives the fixed stage sequence over a working directory of
// ortholog group files. Stages run strictly in order; within a stage,
// group files are independent and processed on a worker pool.
type Pipeline struct {
	WorkDir string
	Opt     Options

	Aligner       ToolFunc
	TreeBuilder   ToolFunc
	Masker        MaskFunc
	Reporter      ReportFunc
	OverlapFilter OverlapFunc
	Pruner        PruneFunc

	ShowProgress bool
}

// New returns a pipeline wired to the production tools.
func New(workDir string, opt Options) *Pipeline {
	return &Pipeline{
		WorkDir:       workDir,
		Opt:           opt,
		Aligner:       Mafft,
		TreeBuilder:   FastTree,
		Masker:        NewAliscoreMask(opt.AliscoreScript, opt.AlicutScript),
		Reporter:      Infoalign,
		OverlapFilter: NewAlignmentCompare(opt.PrunerInstall),
		Pruner:        NewPhyloTreePruner(opt.PrunerInstall, opt.MinTaxa, opt.Bootstrap, opt.PruneMode),
	}
}

// EmptyGroupError reports a group that lost all sequences or taxa at a
// filtering stage. It is logged and the group rejected forward; the
// run continues.
type EmptyGroupError struct {
	ID    string
	Stage string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("group %s: no surviving sequences after %s", e.ID, e.Stage)
}

// Manifest records the groups a stage rejected and why.
type Manifest struct {
	Stage    string            `json:"stage"`
	Rejected map[string]string `json:"rejected"`
}

// Run executes the full stage sequence in order.
func (p *Pipeline) Run() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"backup", p.Backup},
		{"clean", p.Clean},
		{"align", p.Align},
		{"mask", p.Mask},
		{"divergence", p.Divergence},
		{"polish", p.Polish},
		{"overlap", p.Overlap},
		{"simplify", p.Simplify},
		{"tree", p.Trees},
		{"prune", p.Prune},
	}
	for _, s := range steps {
		Info.Printf("stage %s\n", s.name)
		if err := s.fn(); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
	}
	return nil
}

// Backup copies every input group file into backup_input before any
// mutation.
func (p *Pipeline) Backup() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	dir := filepath.Join(p.WorkDir, DirBackupInput)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	Info.Printf("backing up %d groups\n", len(names))
	return p.each(names, func(name string) error {
		return copyFile(filepath.Join(p.WorkDir, name), filepath.Join(dir, name))
	})
}

// Clean runs the pre-alignment stages: the minimum-length filter, the
// first minimum-taxa checkpoint, the taxon listing, duplicate collapse
// and the terminal ambiguity trims.
func (p *Pipeline) Clean() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	// A group emptied by the length filter stays as an empty file; it
	// is caught at the taxa checkpoint right after.
	err = p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		if n := FilterShort(g, p.Opt.MinSeqLen); n > 0 {
			Info.Printf("%s: dropped %d short sequences\n", name, n)
		}
		return g.Write(path)
	})
	if err != nil {
		return err
	}

	if err := p.minTaxa("min_taxa_1", BucketFewTaxa1); err != nil {
		return err
	}
	if err := p.ListTaxa(); err != nil {
		return err
	}

	names, err = p.groups()
	if err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		Dedup(g)
		TrimLeadingAmbiguity(g, p.Opt.TrimWindow)
		TrimTrailingAmbiguity(g, p.Opt.TrimWindow)
		return g.Write(path)
	})
}

// ListTaxa writes the distinct taxon codes observed across all
// surviving groups. Diagnostic only, no file mutation.
func (p *Pipeline) ListTaxa() error {
	names, err := p.groups()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	set := make(map[string]bool)
	err = p.each(names, func(name string) error {
		g, err := ReadGroup(filepath.Join(p.WorkDir, name))
		if err != nil {
			return err
		}
		mu.Lock()
		for _, t := range g.Taxa() {
			set[t] = true
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	taxa := make([]string, 0, len(set))
	for t := range set {
		taxa = append(taxa, t)
	}
	sort.Strings(taxa)

	f, err := os.Create(filepath.Join(p.WorkDir, TaxaListFile))
	if err != nil {
		return err
	}
	for _, t := range taxa {
		fmt.Fprintln(f, t)
	}
	Info.Printf("%d distinct taxa across %d groups\n", len(taxa), len(names))
	return f.Close()
}

// Align runs the aligner over every group and archives the raw
// alignments. Serialization is single-line, which also covers the
// post-alignment line normalization.
func (p *Pipeline) Align() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	archive := filepath.Join(p.WorkDir, DirBackupAligned)
	if err := os.MkdirAll(archive, 0755); err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		if len(g.Records) == 0 {
			Warn.Printf("align: %s is empty, skipping\n", name)
			return nil
		}
		if err := Align(g, p.Aligner, p.Opt.MafftOpts...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := g.Write(path); err != nil {
			return err
		}
		return copyFile(path, filepath.Join(archive, name))
	})
}

// Mask rewrites each group with the tool-safe delimiter, runs the
// unreliable-column detector and cutter over it in a scratch
// directory, restores the pipe delimiter and archives the column
// lists.
func (p *Pipeline) Mask() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	listDir := filepath.Join(p.WorkDir, DirAliscoreLists)
	if err := os.MkdirAll(listDir, 0755); err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		if len(g.Records) == 0 {
			Warn.Printf("mask: %s is empty, skipping\n", name)
			return nil
		}

		scratch, err := ioutil.TempDir("", "aliscore")
		if err != nil {
			return err
		}
		defer os.RemoveAll(scratch)

		if err := g.WriteSafe(filepath.Join(scratch, name)); err != nil {
			return err
		}
		cols, err := p.Masker(scratch, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		masked, err := ReadSafeGroup(filepath.Join(scratch, name))
		if err != nil {
			return err
		}
		masked.ID = g.ID
		if err := masked.Write(path); err != nil {
			return err
		}
		return WriteColumnList(filepath.Join(listDir, name+"_List.txt"), cols)
	})
}

// Divergence drops records scoring below the similarity cutoff
// (inclusive retention) and archives the per-sequence reports.
func (p *Pipeline) Divergence() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	reportDir := filepath.Join(p.WorkDir, DirInfoalignReports)
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		if len(g.Records) == 0 {
			return nil
		}

		scratch, err := ioutil.TempDir("", "infoalign")
		if err != nil {
			return err
		}
		defer os.RemoveAll(scratch)

		safePath := filepath.Join(scratch, name)
		if err := g.WriteSafe(safePath); err != nil {
			return err
		}
		rows, err := p.Reporter(safePath)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := writeReports(filepath.Join(reportDir, name+".infoalign"), rows); err != nil {
			return err
		}

		similarity := make(map[string]float64, len(rows))
		for _, row := range rows {
			similarity[row.Name] = row.Similarity()
		}
		FilterDivergent(g, similarity, p.Opt.MinSimilarity)
		if len(g.Records) == 0 {
			Warn.Println(&EmptyGroupError{ID: g.ID, Stage: "divergence"})
		}
		return g.Write(path)
	})
}

// Polish runs the post-masking text stages: stray-fragment cleanup,
// sparse-column removal and the minimum mean-length checkpoint.
func (p *Pipeline) Polish() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	err = p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		MaskStrayFragments(g, p.Opt.MaxStrayRun, p.Opt.MinFlankGaps)
		if _, err := RemoveSparseColumns(g, p.Opt.MinColSupport); err != nil {
			return err
		}
		return g.Write(path)
	})
	if err != nil {
		return err
	}

	return p.checkpoint("min_aln_len", BucketShortAln, func(g *Group) (string, bool) {
		mean := g.MeanResidues()
		if mean < float64(p.Opt.MinAlnLen) {
			return fmt.Sprintf("mean length %.1f, need %d", mean, p.Opt.MinAlnLen), true
		}
		return "", false
	})
}

// Overlap applies the pairwise-overlap filter to a fixed point, then
// re-evaluates taxon occupancy: everything since the first checkpoint
// may have reduced it.
func (p *Pipeline) Overlap() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	err = p.each(names, func(name string) error {
		removed, err := FilterOverlap(filepath.Join(p.WorkDir, name), p.OverlapFilter)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if removed > 0 {
			Info.Printf("%s: overlap filter removed %d sequences\n", name, removed)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return p.minTaxa("min_taxa_2", BucketFewTaxa2)
}

// Simplify strips the group prefix from headers (identity is carried by
// the file name now), switches to the tool-safe delimiter for tree
// building and archives the result.
func (p *Pipeline) Simplify() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	archive := filepath.Join(p.WorkDir, DirBackupPretree)
	if err := os.MkdirAll(archive, 0755); err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		path := filepath.Join(p.WorkDir, name)
		g, err := ReadGroup(path)
		if err != nil {
			return err
		}
		if err := g.WriteShort(path); err != nil {
			return err
		}
		return copyFile(path, filepath.Join(archive, name))
	})
}

// Trees builds one maximum likelihood tree per group.
func (p *Pipeline) Trees() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	treeDir := filepath.Join(p.WorkDir, DirTrees)
	if err := os.MkdirAll(treeDir, 0755); err != nil {
		return err
	}
	return p.each(names, func(name string) error {
		treePath := filepath.Join(treeDir, GroupID(name)+".tre")
		if err := BuildTreeFile(filepath.Join(p.WorkDir, name), treePath, p.TreeBuilder, p.Opt.FastTreeOpts...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// Prune runs paralog pruning per group, collecting the final pruned
// alignments.
func (p *Pipeline) Prune() error {
	names, err := p.groups()
	if err != nil {
		return err
	}
	prunedDir := filepath.Join(p.WorkDir, DirPruned)
	if err := os.MkdirAll(prunedDir, 0755); err != nil {
		return err
	}
	treeDir := filepath.Join(p.WorkDir, DirTrees)
	return p.each(names, func(name string) error {
		treePath := filepath.Join(treeDir, GroupID(name)+".tre")
		out, err := p.Pruner(treePath, filepath.Join(p.WorkDir, name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return os.Rename(out, filepath.Join(prunedDir, name))
	})
}

// minTaxa is the shared minimum-taxa checkpoint, invoked at both
// passes with different bucket names.
func (p *Pipeline) minTaxa(stage, bucket string) error {
	return p.checkpoint(stage, bucket, func(g *Group) (string, bool) {
		if occ := g.Occupancy(); occ < p.Opt.MinTaxa {
			return fmt.Sprintf("%d taxa, need %d", occ, p.Opt.MinTaxa), true
		}
		return "", false
	})
}

// checkpoint evaluates every group against reject, moves failing
// groups into the named bucket and writes the stage manifest.
func (p *Pipeline) checkpoint(stage, bucket string, reject func(*Group) (string, bool)) error {
	names, err := p.groups()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	rejected := make(map[string]string)
	err = p.each(names, func(name string) error {
		g, err := ReadGroup(filepath.Join(p.WorkDir, name))
		if err != nil {
			return err
		}
		if reason, bad := reject(g); bad {
			mu.Lock()
			rejected[name] = reason
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}

	bucketDir := filepath.Join(p.WorkDir, bucket)
	if err := os.MkdirAll(bucketDir, 0755); err != nil {
		return err
	}

	m := Manifest{Stage: stage, Rejected: make(map[string]string)}
	for name, reason := range rejected {
		if err := os.Rename(filepath.Join(p.WorkDir, name), filepath.Join(bucketDir, name)); err != nil {
			return err
		}
		m.Rejected[GroupID(name)] = reason
		Warn.Printf("%s: rejected %s: %s\n", stage, name, reason)
	}
	Info.Printf("%s: rejected %d of %d groups\n", stage, len(m.Rejected), len(names))
	return p.saveManifest(m)
}

// groups reads the working directory listing fresh; each stage calls
// this at its own start.
func (p *Pipeline) groups() ([]string, error) {
	entries, err := os.ReadDir(p.WorkDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), GroupExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// each runs fn over the named group files on a worker pool of
// Opt.NumCPU goroutines. The first error wins; remaining jobs still
// drain so the pool shuts down cleanly.
func (p *Pipeline) each(names []string, fn func(name string) error) error {
	ncpu := p.Opt.NumCPU
	if ncpu < 1 {
		ncpu = runtime.NumCPU()
	}

	jobs := make(chan string)
	go func() {
		for _, name := range names {
			jobs <- name
		}
		close(jobs)
	}()

	results := make(chan error)
	for i := 0; i < ncpu; i++ {
		go func() {
			for name := range jobs {
				results <- fn(name)
			}
		}()
	}

	var pbar *pb.ProgressBar
	if p.ShowProgress {
		pbar = pb.StartNew(len(names))
	}

	var firstErr error
	for i := 0; i < len(names); i++ {
		if err := <-results; err != nil && firstErr == nil {
			firstErr = err
		}
		if pbar != nil {
			pbar.Increment()
		}
	}
	if pbar != nil {
		pbar.Finish()
	}
	return firstErr
}

func (p *Pipeline) saveManifest(m Manifest) error {
	dir := filepath.Join(p.WorkDir, DirManifests)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, m.Stage+".json"))
	if err != nil {
		return err
	}
	ec := json.NewEncoder(f)
	if err := ec.Encode(m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReports(path string, rows []AlignReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Fprintf(f, "%s\t%.2f\n", r.Name, r.Change)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
