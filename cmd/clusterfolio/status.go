package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aristath/clusterfolio/internal/pipeline"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which stage outputs exist and how old they are",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := a.pipeline().Status(time.Now())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STAGE\tNAME\tSTATE\tLAST RUN")
			for _, st := range statuses {
				lastRun := "-"
				if !st.LastRun.IsZero() {
					lastRun = st.LastRun.Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Stage, st.Name, stateLabel(st), lastRun)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if load, err := pipeline.SystemLoad(200 * time.Millisecond); err == nil {
				printf(cmd, "\nsystem cpu: %.1f%%\n", load)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func stateLabel(st pipeline.StageStatus) string {
	switch {
	case !st.Complete:
		missing := 0
		for _, f := range st.Files {
			if !f.Exists {
				missing++
			}
		}
		return fmt.Sprintf("missing %d/%d", missing, len(st.Files))
	case st.Stale:
		return "stale"
	}
	return "ok"
}
