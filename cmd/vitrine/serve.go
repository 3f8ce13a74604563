package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/mcptools"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner and run store as MCP tools over HTTP",
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

		fmt.Printf("MCP server listening on %s\n", serveAddr)
		return mcptools.RunServer(cmd.Context(), mcptools.NewService(store), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8377",
		"address to listen on")
}
