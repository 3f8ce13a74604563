package stages

import (
	"context"
	"fmt"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/publish"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// Publish is stage 7: it uploads the generated site under the slug prefix
// and records the public URL.
type Publish struct {
	Uploader publish.Uploader
	BaseURL  string
	Store    artifact.Store
}

var _ orchestrator.StageExecutor = (*Publish)(nil)

func (s *Publish) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	codingAny, err := run.Require(session.KeyCoding)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	coding, ok := codingAny.(*CodingResult)
	if !ok {
		return nil, fmt.Errorf("publish: coding result holds %T", codingAny)
	}
	slug, err := run.String(session.KeySlug)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	keys, err := s.Uploader.UploadDir(ctx, coding.SitePath, slug)
	if err != nil {
		result := &publish.Result{Success: false, Error: err.Error(), UploadedFiles: keys}
		if setErr := run.Set(ownerPublish, session.KeyPublisher, result); setErr != nil {
			return nil, fmt.Errorf("publish: %w", setErr)
		}
		return nil, fmt.Errorf("publish: %w", err)
	}

	url := ""
	if s.BaseURL != "" {
		url, err = publish.SiteURL(s.BaseURL, slug)
		if err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
	}

	result := &publish.Result{Success: true, URL: url, UploadedFiles: keys}
	if err := run.Set(ownerPublish, session.KeyPublisher, result); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	if err := putJSON(ctx, s.Store, run, orchestrator.StagePublish, "publish.json", result); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	detail := fmt.Sprintf("%d files uploaded", len(keys))
	if url != "" {
		detail = url
	}
	return &orchestrator.StageResult{
		Stage:     orchestrator.StagePublish,
		Artifacts: []string{"publish.json"},
		Detail:    detail,
	}, nil
}
