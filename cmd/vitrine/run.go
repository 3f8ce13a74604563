package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/publish"
	"github.com/vitrine-studio/vitrine/internal/session"
)

var (
	runFrom string
	runTo   string
	runSeed int64
)

var runCmd = &cobra.Command{
	Use:   "run <order-id>",
	Short: "Run the generation pipeline for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		from, ok := orchestrator.ParseStage(runFrom)
		if !ok {
			return fmt.Errorf("unknown stage %q", runFrom)
		}
		to, ok := orchestrator.ParseStage(runTo)
		if !ok {
			return fmt.Errorf("unknown stage %q", runTo)
		}

		if cfg.Storage.Bucket == "" && to == orchestrator.StagePublish {
			fmt.Println("No storage bucket configured; stopping after coding.")
			to = orchestrator.StageCoding
		}

		ctx := cmd.Context()
		store, err := artifact.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		pipe, err := buildPipeline(ctx, cfg, store, log, runSeed)
		if err != nil {
			return err
		}

		run := session.New()
		if err := run.Set("cli", session.KeyOrderID, args[0]); err != nil {
			return err
		}
		if err := store.CreateRun(ctx, artifact.Run{
			ID: run.RunID(), StartedAt: run.Started(),
		}); err != nil {
			return err
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range pipe.Progress() {
				fmt.Println(orchestrator.FormatProgress(ev))
			}
		}()

		_, runErr := pipe.RunPipeline(ctx, from, to, run)
		pipe.Close()
		<-done

		if runErr != nil {
			return fmt.Errorf("run %s: %w", run.RunID(), runErr)
		}

		fmt.Printf("Run %s complete.\n", run.RunID())
		if v, ok := run.Get(session.KeyPublisher); ok {
			if res, ok := v.(*publish.Result); ok && res.URL != "" {
				fmt.Printf("Published: %s\n", res.URL)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFrom, "from", orchestrator.StageOrderIntake.String(),
		"first stage to execute")
	runCmd.Flags().StringVar(&runTo, "to", orchestrator.StagePublish.String(),
		"last stage to execute")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0,
		"partitioner seed for a reproducible slide plan (0 = random)")
}
