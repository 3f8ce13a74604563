package orchestrator

import (
	"context"
	"fmt"

	"github.com/vitrine-studio/vitrine/internal/session"
)

// Router maps pipeline stages to their registered executors and checks
// prerequisites against the shared session state before dispatching.
type Router struct {
	executors map[Stage]StageExecutor
}

// NewRouter creates a Router with an empty executor registry.
func NewRouter() *Router {
	return &Router{
		executors: make(map[Stage]StageExecutor),
	}
}

// RegisterExecutor associates an executor with a pipeline stage.
func (r *Router) RegisterExecutor(stage Stage, exec StageExecutor) {
	r.executors[stage] = exec
}

// Route verifies the stage's prerequisites against the run state and
// delegates to the registered StageExecutor.
func (r *Router) Route(ctx context.Context, stage Stage, run *session.State) (*StageResult, error) {
	exec, ok := r.executors[stage]
	if !ok {
		return nil, fmt.Errorf("router: no executor registered for stage %d (%s)", stage, stage)
	}

	for _, key := range requiredKeys(stage) {
		if _, err := run.Require(key); err != nil {
			return nil, fmt.Errorf("router: prerequisite for stage %d (%s): %w", stage, stage, err)
		}
	}

	return exec.Execute(ctx, run)
}

// RouteRange executes stages sequentially from `from` to `to` (inclusive).
// Each stage leaves its output in the run state, where later stages pick
// it up.
func (r *Router) RouteRange(ctx context.Context, from, to Stage, run *session.State) ([]StageResult, error) {
	if from > to {
		return nil, fmt.Errorf("router: invalid range: from (%d) > to (%d)", from, to)
	}

	var results []StageResult

	for stage := from; stage <= to; stage++ {
		result, err := r.Route(ctx, stage, run)
		if err != nil {
			return results, fmt.Errorf("router: stage %d (%s) failed: %w", stage, stage, err)
		}
		results = append(results, *result)
	}

	return results, nil
}

// requiredKeys lists the session keys that must be populated before a stage
// may run. Stages also read optional upstream keys (theme, navigation,
// wireframes) but degrade without them, so those are not listed here.
func requiredKeys(stage Stage) []string {
	switch stage {
	case StageOrderIntake:
		return nil
	case StageInformationArchitecture:
		return []string{session.KeyPayload}
	case StageNavigation:
		return []string{session.KeySlideMapping}
	case StageWireframes:
		return []string{session.KeySlideMapping}
	case StageStoryboard:
		return []string{session.KeySlideMapping}
	case StageAssets:
		return []string{session.KeySlideMapping}
	case StageCoding:
		return []string{session.KeySlideMapping, session.KeyStoryboard, session.KeyAssets}
	case StagePublish:
		return []string{session.KeyCoding, session.KeySlug}
	default:
		return nil
	}
}
