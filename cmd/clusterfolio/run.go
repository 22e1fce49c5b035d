package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aristath/clusterfolio/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		stages  string
		all     bool
		retrain bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run pipeline stages",
		Long: `Run pipeline stages in order:
  1 ingest        load prices, clean them and split train/test
  2 features      compute per-asset metrics on the training window
  3 segmentation  cluster assets into segments
  4 portfolio     select per-profile portfolios and backtest them
  5 reports       write consolidated tables, metadata and charts`,
		Example: `  clusterfolio run --all
  clusterfolio run --stages 2-4
  clusterfolio run --retrain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := stages
			switch {
			case all:
				expr = "all"
			case retrain:
				expr = "retrain"
			case expr == "":
				return fmt.Errorf("one of --stages, --all or --retrain is required")
			}
			list, err := pipeline.ParseStages(expr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := a.pipeline()
			if err := p.Run(ctx, list); err != nil {
				return err
			}
			printf(cmd, "run %s completed: %d stage(s)\n", p.RunID(), len(list))
			return nil
		},
	}
	cmd.Flags().StringVarP(&stages, "stages", "s", "", `Stages to run: "1,2,3", "2-4", names, "all" or "retrain"`)
	cmd.Flags().BoolVar(&all, "all", false, "Run every stage")
	cmd.Flags().BoolVar(&retrain, "retrain", false, "Run stages 2-5 on the existing ingested prices")
	cmd.MarkFlagsMutuallyExclusive("stages", "all", "retrain")
	return cmd
}
