package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitrine-studio/vitrine/internal/session"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator. It coordinates the full generation
// pipeline by delegating stage routing to a Router and progress reporting to
// a ProgressReporter. Stage executors are registered per stage; the pipeline
// itself owns no stage logic.
type Pipeline struct {
	log      *zap.Logger
	router   *Router
	progress *ProgressReporter
}

// NewPipeline creates a Pipeline wired with a Router and ProgressReporter.
// Executors for each stage are registered afterwards via Register.
func NewPipeline(log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		log:      log,
		router:   NewRouter(),
		progress: NewProgressReporter(),
	}
}

// Register installs the executor for a stage.
func (p *Pipeline) Register(stage Stage, exec StageExecutor) {
	p.router.RegisterExecutor(stage, exec)
}

// Reporter exposes the progress reporter so executors can emit section-level
// events through the same channel.
func (p *Pipeline) Reporter() *ProgressReporter {
	return p.progress
}

// RunStage executes a single pipeline stage. It emits a stage header via the
// progress reporter and delegates to the router.
func (p *Pipeline) RunStage(ctx context.Context, stage Stage, run *session.State) (*StageResult, error) {
	p.progress.Emit(ProgressEvent{
		Stage:   stage,
		Section: FormatStageHeader(run.RunID(), stage),
		Status:  ProgressWorking,
	})
	p.log.Info("stage starting",
		zap.String("run_id", run.RunID()),
		zap.Int("stage", int(stage)),
		zap.Stringer("name", stage))

	result, err := p.router.Route(ctx, stage, run)
	if err != nil {
		p.progress.Emit(ProgressEvent{
			Stage:   stage,
			Section: stage.String(),
			Status:  ProgressFailed,
			Message: err.Error(),
		})
		p.log.Error("stage failed",
			zap.String("run_id", run.RunID()),
			zap.Stringer("stage", stage),
			zap.Error(err))
		return nil, fmt.Errorf("pipeline: stage %d (%s): %w", stage, stage, err)
	}

	p.progress.Emit(ProgressEvent{
		Stage:   stage,
		Section: stage.String(),
		Status:  ProgressComplete,
		Message: result.Detail,
	})
	p.log.Info("stage complete",
		zap.String("run_id", run.RunID()),
		zap.Stringer("stage", stage),
		zap.Strings("artifacts", result.Artifacts))

	return result, nil
}

// RunPipeline executes stages from..to inclusive against a single run state.
func (p *Pipeline) RunPipeline(ctx context.Context, from, to Stage, run *session.State) ([]StageResult, error) {
	if from > to {
		return nil, fmt.Errorf("pipeline: invalid range: from (%d) > to (%d)", from, to)
	}

	var results []StageResult
	for stage := from; stage <= to; stage++ {
		result, err := p.RunStage(ctx, stage, run)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}
