package main

// One command per pipeline phase, so a run interrupted by a tool
// failure can be resumed at the phase that broke. Each embeds
// cmdConfig for the shared flags and configure file.

type cmdRun struct {
	cmdConfig
}

func (cmd *cmdRun) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Run(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdBackup struct {
	cmdConfig
}

func (cmd *cmdBackup) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Backup(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdClean struct {
	cmdConfig
}

func (cmd *cmdClean) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Clean(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdAlign struct {
	cmdConfig
}

func (cmd *cmdAlign) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Align(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdMask struct {
	cmdConfig
}

func (cmd *cmdMask) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Mask(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdDivergence struct {
	cmdConfig
}

func (cmd *cmdDivergence) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Divergence(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdPolish struct {
	cmdConfig
}

func (cmd *cmdPolish) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Polish(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdOverlap struct {
	cmdConfig
}

func (cmd *cmdOverlap) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Overlap(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdSimplify struct {
	cmdConfig
}

func (cmd *cmdSimplify) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Simplify(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdTree struct {
	cmdConfig
}

func (cmd *cmdTree) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Trees(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdPrune struct {
	cmdConfig
}

func (cmd *cmdPrune) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().Prune(); err != nil {
		ERROR.Fatalln(err)
	}
}

type cmdTaxa struct {
	cmdConfig
}

func (cmd *cmdTaxa) Run(args []string) {
	cmd.ParseConfig()
	if err := cmd.pipeline().ListTaxa(); err != nil {
		ERROR.Fatalln(err)
	}
}
