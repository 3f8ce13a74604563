// Package status reports run progress from the recorded stage outcomes.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
)

// StageInfo describes the recorded outcome of one pipeline stage.
type StageInfo struct {
	Stage      int       `json:"stage"`
	Name       string    `json:"name"`
	Complete   bool      `json:"complete"`
	Failed     bool      `json:"failed"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStatus holds the status of one pipeline run.
type RunStatus struct {
	RunID     string      `json:"run_id"`
	Slug      string      `json:"slug,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	Stages    []StageInfo `json:"stages"`

	// NextStage is the first stage without a completed record, or -1 when
	// the run has published.
	NextStage int `json:"next_stage"`
}

// NextStage returns the first stage not yet completed, or -1 when every
// stage through publish has a completed record.
func NextStage(stages []StageInfo) int {
	for _, st := range stages {
		if !st.Complete {
			return st.Stage
		}
	}
	return -1
}

// ForRun builds the status of a single run from its stage records.
func ForRun(ctx context.Context, store artifact.Store, runID string) (*RunStatus, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	recorded, err := store.StageStatuses(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stage statuses: %w", err)
	}
	byName := make(map[string]artifact.StageStatus, len(recorded))
	for _, st := range recorded {
		byName[st.Stage] = st
	}

	stages := make([]StageInfo, 0, int(orchestrator.StageLast)+1)
	for s := orchestrator.StageOrderIntake; s <= orchestrator.StageLast; s++ {
		info := StageInfo{Stage: int(s), Name: s.String()}
		if st, ok := byName[s.String()]; ok {
			info.Complete = st.Completed
			info.Failed = !st.Completed
			info.Error = st.Error
			info.FinishedAt = st.FinishedAt
		}
		stages = append(stages, info)
	}

	return &RunStatus{
		RunID:     run.ID,
		Slug:      run.Slug,
		StartedAt: run.StartedAt,
		Stages:    stages,
		NextStage: NextStage(stages),
	}, nil
}

// ListRuns returns the status of every recorded run, newest first.
func ListRuns(ctx context.Context, store artifact.Store) ([]RunStatus, error) {
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	statuses := make([]RunStatus, 0, len(runs))
	for _, run := range runs {
		st, err := ForRun(ctx, store, run.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

// Format renders the run status for terminal display.
func (s *RunStatus) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s", s.RunID)
	if s.Slug != "" {
		fmt.Fprintf(&b, " (%s)", s.Slug)
	}
	fmt.Fprintf(&b, " started %s\n", s.StartedAt.Format(time.RFC3339))

	for _, st := range s.Stages {
		marker := "○"
		switch {
		case st.Complete:
			marker = "✓"
		case st.Failed:
			marker = "✗"
		}
		fmt.Fprintf(&b, "  %s Stage %d: %s", marker, st.Stage, st.Name)
		if st.Error != "" {
			fmt.Fprintf(&b, " (%s)", st.Error)
		}
		b.WriteString("\n")
	}

	if s.NextStage == -1 {
		b.WriteString("All stages complete.\n")
	} else {
		fmt.Fprintf(&b, "Next stage: %d (%s)\n",
			s.NextStage, orchestrator.Stage(s.NextStage).String())
	}
	return b.String()
}
