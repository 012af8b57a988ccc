package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"

	ortho "github.com/kmkocot/Lophotrochozoa-phylogenomics-scripts-06-2015"
	"github.com/spf13/viper"
)

// Config to read flags and the workspace configure file.
type cmdConfig struct {
	workspace *string // directory of ortholog group files.
	config    *string // configure file name.
	ncpu      *int    // number of CPUs for using.
	progress  *bool   // show progress bars.

	opt ortho.Options
}

func (cmd *cmdConfig) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.workspace = fs.String("w", "", "workspace containing the ortholog group files.")
	cmd.config = fs.String("c", "config.yaml", "configure file in YAML format.")
	cmd.ncpu = fs.Int("ncpu", runtime.NumCPU(), "number of CPUs for using.")
	cmd.progress = fs.Bool("progress", false, "show progress bars.")
	return fs
}

// ParseConfig reads the workspace configure file and fills the
// pipeline options. Missing file means defaults.
func (cmd *cmdConfig) ParseConfig() {
	opt := ortho.DefaultOptions()

	configPath := filepath.Join(*cmd.workspace, *cmd.config)
	if _, err := os.Stat(configPath); err == nil {
		v := viper.New()
		v.SetConfigFile(configPath)
		setDefaults(v, opt)
		if err := v.ReadInConfig(); err != nil {
			ERROR.Fatalln(err)
		}

		opt.MinSeqLen = v.GetInt("filter.min_seq_len")
		opt.MinTaxa = v.GetInt("filter.min_taxa")
		opt.MinAlnLen = v.GetInt("filter.min_aln_len")
		opt.MinColSupport = v.GetInt("filter.min_col_support")
		opt.MinSimilarity = v.GetFloat64("filter.min_similarity")
		opt.TrimWindow = v.GetInt("filter.trim_window")
		opt.MaxStrayRun = v.GetInt("filter.max_stray_run")
		opt.MinFlankGaps = v.GetInt("filter.min_flank_gaps")
		opt.MafftOpts = v.GetStringSlice("tools.mafft_opts")
		opt.FastTreeOpts = v.GetStringSlice("tools.fasttree_opts")
		opt.AliscoreScript = v.GetString("tools.aliscore")
		opt.AlicutScript = v.GetString("tools.alicut")
		opt.PrunerInstall = v.GetString("tools.pruner_install")
		opt.Bootstrap = v.GetFloat64("pruner.bootstrap")
		opt.PruneMode = v.GetString("pruner.mode")
	} else {
		WARN.Printf("no %s, using default thresholds\n", configPath)
	}

	if opt.PruneMode != ortho.PruneRedundant && opt.PruneMode != ortho.PruneUnique {
		ERROR.Fatalf("pruner.mode must be %q or %q, got %q\n",
			ortho.PruneRedundant, ortho.PruneUnique, opt.PruneMode)
	}

	opt.NumCPU = *cmd.ncpu
	runtime.GOMAXPROCS(*cmd.ncpu)
	registerLogger()
	cmd.opt = opt
}

func setDefaults(v *viper.Viper, opt ortho.Options) {
	v.SetDefault("filter.min_seq_len", opt.MinSeqLen)
	v.SetDefault("filter.min_taxa", opt.MinTaxa)
	v.SetDefault("filter.min_aln_len", opt.MinAlnLen)
	v.SetDefault("filter.min_col_support", opt.MinColSupport)
	v.SetDefault("filter.min_similarity", opt.MinSimilarity)
	v.SetDefault("filter.trim_window", opt.TrimWindow)
	v.SetDefault("filter.max_stray_run", opt.MaxStrayRun)
	v.SetDefault("filter.min_flank_gaps", opt.MinFlankGaps)
	v.SetDefault("tools.mafft_opts", opt.MafftOpts)
	v.SetDefault("tools.fasttree_opts", opt.FastTreeOpts)
	v.SetDefault("tools.aliscore", opt.AliscoreScript)
	v.SetDefault("tools.alicut", opt.AlicutScript)
	v.SetDefault("tools.pruner_install", opt.PrunerInstall)
	v.SetDefault("pruner.bootstrap", opt.Bootstrap)
	v.SetDefault("pruner.mode", opt.PruneMode)
}

// pipeline builds a production pipeline from the parsed options.
func (cmd *cmdConfig) pipeline() *ortho.Pipeline {
	p := ortho.New(*cmd.workspace, cmd.opt)
	p.ShowProgress = *cmd.progress
	return p
}
