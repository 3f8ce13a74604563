package stages

import (
	"context"
	"fmt"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/export"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// Navigation is stage 2: it derives the navigation graph from the slide
// plan. The graph is fully determined by the plan's slide order and axes.
type Navigation struct {
	Store artifact.Store
}

var _ orchestrator.StageExecutor = (*Navigation)(nil)

// slidePlan pulls the typed plan out of the run state.
func slidePlan(run *session.State) (*plan.Plan, error) {
	v, err := run.Require(session.KeySlideMapping)
	if err != nil {
		return nil, err
	}
	p, ok := v.(*plan.Plan)
	if !ok {
		return nil, fmt.Errorf("slide mapping holds %T, not *plan.Plan", v)
	}
	return p, nil
}

func (s *Navigation) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	p, err := slidePlan(run)
	if err != nil {
		return nil, fmt.Errorf("navigation: %w", err)
	}

	graph := export.BuildNavigation(p)

	if err := run.Set(ownerNavigation, session.KeyNavigation, graph); err != nil {
		return nil, fmt.Errorf("navigation: %w", err)
	}
	if err := putJSON(ctx, s.Store, run, orchestrator.StageNavigation,
		"navigation.json", graph); err != nil {
		return nil, fmt.Errorf("navigation: %w", err)
	}
	if err := putArtifact(ctx, s.Store, run, orchestrator.StageNavigation,
		"navigation.mmd", "text/vnd.mermaid", []byte(graph.Mermaid())); err != nil {
		return nil, fmt.Errorf("navigation: %w", err)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageNavigation,
		Artifacts: []string{"navigation.json", "navigation.mmd"},
		Detail:    fmt.Sprintf("%d nodes, %d edges", len(graph.Nodes), len(graph.Edges)),
	}, nil
}
