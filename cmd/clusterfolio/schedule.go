package main

import (
	"os/signal"
	"syscall"

	"github.com/aristath/clusterfolio/internal/pipeline"
	"github.com/aristath/clusterfolio/internal/scheduler"
	"github.com/spf13/cobra"
)

func newScheduleCmd(a *app) *cobra.Command {
	var (
		cronSpec string
		stages   string
		now      bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Rerun the retrain stages on a cron schedule until interrupted",
		Example: `  clusterfolio schedule --cron "0 6 * * 1"
  clusterfolio schedule --cron "@daily" --stages 1-5 --now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cronSpec == "" {
				cronSpec = a.cfg.Schedule.Cron
			}
			list, err := pipeline.ParseStages(stages)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(ctx, a.log)
			job := scheduler.NewRetrainJob(a.pipeline(), list)
			if err := sched.AddJob(cronSpec, job); err != nil {
				return err
			}
			if now {
				if err := sched.RunNow(job); err != nil {
					a.log.Error().Err(err).Msg("Initial run failed")
				}
			}

			sched.Start()
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression; defaults to schedule.cron from settings")
	cmd.Flags().StringVar(&stages, "stages", "retrain", "Stages to run on every tick")
	cmd.Flags().BoolVar(&now, "now", false, "Run once immediately before waiting for the schedule")
	return cmd
}
