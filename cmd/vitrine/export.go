package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run summary as JSON, or its navigation graph as Mermaid",
	Args:  cobra.ExactArgs(1),
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
		switch exportFormat {
		case "json":
			data, err := export.ExportRun(ctx, store, args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			_, err = os.Stdout.Write(append(out, '\n'))
			return err
		case "mermaid":
			rec, err := store.GetArtifact(ctx, args[0], "navigation.json")
			if err != nil {
				return fmt.Errorf("load navigation graph: %w", err)
			}
			var graph export.NavigationGraph
			if err := json.Unmarshal(rec.Data, &graph); err != nil {
				return fmt.Errorf("decode navigation graph: %w", err)
			}
			fmt.Print(graph.Mermaid())
			return nil
		default:
			return fmt.Errorf("unknown format %q (want json or mermaid)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json",
		"output format: json or mermaid")
}
