package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/drydock-sh/drydock/internal/core/config"
	"github.com/drydock-sh/drydock/internal/shell/store"
)

func newReleasesCmd(flags *rootFlags) *cobra.Command {
	var (
		limit     int
		releaseID string
	)

	cmd := &cobra.Command{
		Use:   "releases [target]",
		Short: "List past deploy runs from the local history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			st, err := store.NewSQLiteStore(cfg.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer st.Close()

			if releaseID != "" {
				return printOutcomes(cmd, st, releaseID)
			}

			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			runs, err := st.ListRuns(cmd.Context(), target, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RELEASE\tPROJECT\tSTARTED\tDURATION\tRESULT")
			for _, r := range runs {
				result := "ok"
				if !r.Clean {
					result = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.ReleaseID, r.Project,
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
					result)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&releaseID, "release", "", "show per-server outcomes for one release id")
	return cmd
}

func printOutcomes(cmd *cobra.Command, st store.Store, releaseID string) error {
	outcomes, err := st.ListOutcomes(cmd.Context(), releaseID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no outcomes recorded for release %s\n", releaseID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tTARGET\tSERVER\tSTATE\tDURATION\tERROR")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Kind, o.Target, o.Server, o.State,
			(time.Duration(o.DurationMS) * time.Millisecond).Round(time.Millisecond),
			o.Error)
	}
	return w.Flush()
}
