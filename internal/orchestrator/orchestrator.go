// Package orchestrator sequences the site-generation pipeline: stage
// routing with prerequisite checks over the shared session state, parallel
// section dispatch, and progress reporting.
package orchestrator

import (
	"context"

	"github.com/vitrine-studio/vitrine/internal/session"
)

// Stage identifies a pipeline stage (0–7).
type Stage int

const (
	StageOrderIntake             Stage = 0
	StageInformationArchitecture Stage = 1
	StageNavigation              Stage = 2
	StageWireframes              Stage = 3
	StageStoryboard              Stage = 4
	StageAssets                  Stage = 5
	StageCoding                  Stage = 6
	StagePublish                 Stage = 7
)

// StageLast is the final pipeline stage.
const StageLast = StagePublish

func (s Stage) String() string {
	names := [...]string{
		"order-intake",
		"information-architecture",
		"navigation",
		"wireframes",
		"storyboard",
		"assets",
		"coding",
		"publish",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ParseStage maps a stage name back to its Stage, for CLI flags.
func ParseStage(name string) (Stage, bool) {
	for s := StageOrderIntake; s <= StageLast; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// StageResult holds the output of a completed stage.
type StageResult struct {
	Stage Stage

	// Artifacts are the names of artifacts the stage recorded.
	Artifacts []string

	// Detail is a short human-readable summary for progress display.
	Detail string
}

// ProgressEvent is emitted to the user during pipeline execution.
type ProgressEvent struct {
	Stage   Stage
	Section string
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a section within a stage.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// StageExecutor runs a single pipeline stage against the shared run state.
// Executors read their prerequisites from the state and write their result
// back under their owned key.
type StageExecutor interface {
	Execute(ctx context.Context, run *session.State) (*StageResult, error)
}

// Orchestrator coordinates the generation pipeline.
type Orchestrator interface {
	// RunStage executes a single pipeline stage.
	RunStage(ctx context.Context, stage Stage, run *session.State) (*StageResult, error)

	// RunPipeline executes stages from..to inclusive.
	RunPipeline(ctx context.Context, from, to Stage, run *session.State) ([]StageResult, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
