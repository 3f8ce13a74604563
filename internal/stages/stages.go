// Package stages holds the executors for each pipeline stage. Every
// executor implements orchestrator.StageExecutor: it reads its inputs from
// the run state, does its work, records artifacts, and writes its result
// back under its owned session key.
package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// Stage owner names, used for session key ownership.
const (
	ownerIntake     = "order-intake"
	ownerArchitect  = "information-architecture"
	ownerNavigation = "navigation"
	ownerWireframes = "wireframes"
	ownerStoryboard = "storyboard"
	ownerAssets     = "assets"
	ownerCoding     = "coding"
	ownerPublish    = "publish"
)

// putJSON marshals v and stores it as a named artifact of the run.
func putJSON(ctx context.Context, store artifact.Store, run *session.State, stage orchestrator.Stage, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return putArtifact(ctx, store, run, stage, name, "application/json", data)
}

// putArtifact stores raw bytes as a named artifact of the run.
func putArtifact(ctx context.Context, store artifact.Store, run *session.State, stage orchestrator.Stage, name, mime string, data []byte) error {
	return store.PutArtifact(ctx, artifact.Record{
		RunID:     run.RunID(),
		Stage:     stage.String(),
		Name:      name,
		MIMEType:  mime,
		Data:      data,
		CreatedAt: time.Now(),
	})
}

// StatusRecorder wraps an executor and records its outcome in the artifact
// store, so `vitrine status` can report partial runs.
type StatusRecorder struct {
	Store artifact.Store
	Stage orchestrator.Stage
	Exec  orchestrator.StageExecutor
}

func (s *StatusRecorder) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	result, err := s.Exec.Execute(ctx, run)

	st := artifact.StageStatus{
		RunID:      run.RunID(),
		Stage:      s.Stage.String(),
		Completed:  err == nil,
		FinishedAt: time.Now(),
	}
	if err != nil {
		st.Error = err.Error()
	}
	if recErr := s.Store.SetStageStatus(ctx, st); recErr != nil && err == nil {
		return result, fmt.Errorf("record stage status: %w", recErr)
	}
	return result, err
}
