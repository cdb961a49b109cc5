package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkfz-unite/unite-analysis-kmeier/cohort"
	"github.com/dkfz-unite/unite-analysis-kmeier/pipeline"
)

var (
	flagInput     string
	flagConfLevel float64
	flagPlot      bool
	flagVerbose   bool
)

var runCmd = &cobra.Command{
	Use:   "run <root> <vital|progress>",
	Short: "Run one survival analysis over the table in <root>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogging(flagVerbose)

		root := args[0]
		at, err := cohort.ParseAnalysisType(args[1])
		if err != nil {
			return err
		}

		cfg, err := pipeline.LoadConfig(root)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("input") {
			cfg.Input = flagInput
		}
		if cmd.Flags().Changed("conf-level") {
			cfg.ConfLevel = flagConfLevel
		}
		if cmd.Flags().Changed("plot") {
			cfg.Plot = flagPlot
		}

		return pipeline.Run(root, at, cfg)
	},
	SilenceUsage: true,
}

func init() {
	runCmd.Flags().StringVar(&flagInput, "input", "input.tsv", "name of the input table inside <root>")
	runCmd.Flags().Float64Var(&flagConfLevel, "conf-level", 0.95, "coverage probability of the confidence bands")
	runCmd.Flags().BoolVar(&flagPlot, "plot", false, "write a survival<label>.png step plot per group")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
