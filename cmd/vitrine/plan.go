package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrine-studio/vitrine/internal/plan"
)

var planSeed int64

var planCmd = &cobra.Command{
	Use:   "plan <payload.json>",
	Short: "Partition an order payload into slides without running the pipeline",
	Long: `plan runs the slide partitioner on a raw data payload and prints the
resulting plan. Use - to read the payload from stdin. Each invocation
produces a fresh randomized plan unless --seed is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(args[0])
		if err != nil {
			return err
		}

		seed := planSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		partitioner := plan.NewPartitioner(rand.New(rand.NewSource(seed)))

		p, err := partitioner.Plan(payload)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal plan: %w", err)
		}
		fmt.Println(string(out))

		if !p.Success {
			return fmt.Errorf("planning failed: %s", *p.Error)
		}
		return nil
	},
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func init() {
	planCmd.Flags().Int64Var(&planSeed, "seed", 0,
		"partitioner seed for a reproducible plan (0 = random)")
}
