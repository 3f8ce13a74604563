package stages

import (
	"context"
	"fmt"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// Architect is stage 1: it splits metadata from the data payload and
// partitions the datasets into slides. This stage is pure computation; it
// makes no model calls.
type Architect struct {
	Partitioner *plan.Partitioner
	Store       artifact.Store
}

var _ orchestrator.StageExecutor = (*Architect)(nil)

func (s *Architect) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	v, err := run.Require(session.KeyPayload)
	if err != nil {
		return nil, fmt.Errorf("architect: %w", err)
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("architect: payload holds %T, not []byte", v)
	}

	data, err := plan.ExtractMetadata(raw, run)
	if err != nil {
		return nil, fmt.Errorf("architect: extract metadata: %w", err)
	}

	p, err := s.Partitioner.Plan(data)
	if err != nil {
		return nil, fmt.Errorf("architect: %w", err)
	}

	// The plan is recorded whether or not it succeeded; a failed plan is the
	// stage's contractual output, and the run stops here.
	if err := run.Set(ownerArchitect, session.KeySlideMapping, p); err != nil {
		return nil, fmt.Errorf("architect: %w", err)
	}
	if err := putJSON(ctx, s.Store, run, orchestrator.StageInformationArchitecture,
		"slide_mapping.json", p); err != nil {
		return nil, fmt.Errorf("architect: %w", err)
	}

	if !p.Success {
		return nil, fmt.Errorf("architect: planning failed: %s", *p.Error)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageInformationArchitecture,
		Artifacts: []string{"slide_mapping.json"},
		Detail: fmt.Sprintf("%d slides, %s/%s",
			len(p.SlideMappings), p.PrimaryAxis, p.SecondaryAxis),
	}, nil
}
