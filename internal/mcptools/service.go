// Package mcptools exposes the planner and run store over the Model
// Context Protocol, so agent clients can plan slides and inspect runs.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/status"
)

// Service holds the run store used by the MCP tool handlers.
type Service struct {
	store artifact.Store
}

// NewService creates a Service backed by the given store.
func NewService(store artifact.Store) *Service {
	return &Service{store: store}
}

// PlanSlides partitions an order payload into slides and picks the
// navigation axes. Each call without a seed produces a fresh plan.
func (s *Service) PlanSlides(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanSlidesInput,
) (*mcp.CallToolResult, PlanSlidesOutput, error) {
	if strings.TrimSpace(input.Payload) == "" {
		return nil, PlanSlidesOutput{}, fmt.Errorf("payload is required")
	}

	seed := time.Now().UnixNano()
	if input.Seed != nil {
		seed = *input.Seed
	}
	partitioner := plan.NewPartitioner(rand.New(rand.NewSource(seed)))

	p, err := partitioner.Plan([]byte(input.Payload))
	if err != nil {
		return nil, PlanSlidesOutput{}, fmt.Errorf("plan slides: %w", err)
	}
	return nil, PlanSlidesOutput{Plan: p}, nil
}

// ValidatePlan checks a slide plan against the payload it was built from
// and reports every violated invariant.
func (s *Service) ValidatePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidatePlanInput,
) (*mcp.CallToolResult, ValidatePlanOutput, error) {
	units, err := plan.DecodeUnits([]byte(input.Payload))
	if err != nil {
		return nil, ValidatePlanOutput{}, fmt.Errorf("decode payload: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(input.Plan), &p); err != nil {
		return nil, ValidatePlanOutput{}, fmt.Errorf("decode plan: %w", err)
	}

	report := plan.Validate(&p, units)
	out := ValidatePlanOutput{Valid: report.OK()}
	for _, v := range report.Violations {
		out.Violations = append(out.Violations, v.String())
	}
	return nil, out, nil
}

// GetRunStatus reports the stage-by-stage status of one run.
func (s *Service) GetRunStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRunStatusInput,
) (*mcp.CallToolResult, GetRunStatusOutput, error) {
	if input.RunID == "" {
		return nil, GetRunStatusOutput{}, fmt.Errorf("runId is required")
	}

	st, err := status.ForRun(ctx, s.store, input.RunID)
	if err != nil {
		return nil, GetRunStatusOutput{}, err
	}
	return nil, GetRunStatusOutput{Status: *st}, nil
}

// ListRuns reports every recorded run, newest first.
func (s *Service) ListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	runs, err := status.ListRuns(ctx, s.store)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	return nil, ListRunsOutput{Runs: runs}, nil
}

// GetArtifact returns one stored artifact. Textual artifacts include
// their body; binary artifacts return metadata only.
func (s *Service) GetArtifact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetArtifactInput,
) (*mcp.CallToolResult, GetArtifactOutput, error) {
	if input.RunID == "" || input.Name == "" {
		return nil, GetArtifactOutput{}, fmt.Errorf("runId and name are required")
	}

	rec, err := s.store.GetArtifact(ctx, input.RunID, input.Name)
	if err != nil {
		return nil, GetArtifactOutput{}, fmt.Errorf("get artifact: %w", err)
	}

	out := GetArtifactOutput{
		Name:     rec.Name,
		MIMEType: rec.MIMEType,
		Size:     len(rec.Data),
	}
	if textualMIME(rec.MIMEType) {
		out.Text = string(rec.Data)
	}
	return nil, out, nil
}

func textualMIME(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/javascript":
		return true
	}
	return false
}
