package export

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrine-studio/vitrine/internal/artifact"
)

// RunExport is the top-level JSON export structure for one run.
type RunExport struct {
	RunID      string           `json:"runId"`
	Slug       string           `json:"slug"`
	StartedAt  string           `json:"startedAt"`
	ExportedAt string           `json:"exportedAt"`
	Stages     []StageExport    `json:"stages,omitempty"`
	Artifacts  []ArtifactExport `json:"artifacts,omitempty"`
}

// StageExport describes the recorded outcome of one pipeline stage.
type StageExport struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ArtifactExport describes one stored artifact without its payload.
type ArtifactExport struct {
	Name     string `json:"name"`
	Stage    string `json:"stage"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// ExportRun builds a RunExport from the artifact store.
func ExportRun(ctx context.Context, store artifact.Store, runID string) (*RunExport, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	out := &RunExport{
		RunID:      run.ID,
		Slug:       run.Slug,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	statuses, err := store.StageStatuses(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("export: stage statuses: %w", err)
	}
	for _, st := range statuses {
		status := "failed"
		if st.Completed {
			status = "complete"
		}
		out.Stages = append(out.Stages, StageExport{
			Name:   st.Stage,
			Status: status,
			Error:  st.Error,
		})
	}

	records, err := store.ListArtifacts(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("export: list artifacts: %w", err)
	}
	for _, rec := range records {
		out.Artifacts = append(out.Artifacts, ArtifactExport{
			Name:     rec.Name,
			Stage:    rec.Stage,
			MIMEType: rec.MIMEType,
			Size:     len(rec.Data),
		})
	}

	return out, nil
}
