package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show run progress, or list all runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := artifact.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if len(args) == 1 {
			st, err := status.ForRun(ctx, store, args[0])
			if err != nil {
				return err
			}
			fmt.Print(st.Format())
			return nil
		}

		runs, err := status.ListRuns(ctx, store)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			fmt.Println("Run 'vitrine run <order-id>' to start one.")
			return nil
		}

		for _, st := range runs {
			progress := "complete"
			if st.NextStage != -1 {
				progress = fmt.Sprintf("next: %s", orchestrator.Stage(st.NextStage).String())
			}
			slug := st.Slug
			if slug == "" {
				slug = "-"
			}
			fmt.Printf("%s  %-24s %-20s [%s]\n",
				st.StartedAt.Format(time.RFC3339), st.RunID, slug, progress)
		}
		return nil
	},
}
