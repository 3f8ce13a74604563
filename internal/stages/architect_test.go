package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/session"
)

func TestArchitect_PlansPayload(t *testing.T) {
	payload := []byte(`{
		"theme": "garden party",
		"data": {
			"hero": {"requires_fullscreen": true},
			"opening": {"sequence": 1},
			"closing": {"sequence": 2}
		}
	}`)

	run := session.New()
	require.NoError(t, run.Set(ownerIntake, session.KeyPayload, payload))

	store := artifact.NewMemoryStore()
	arch := &Architect{Partitioner: testPartitioner(7), Store: store}

	result, err := arch.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Contains(t, result.Artifacts, "slide_mapping.json")

	theme, err := run.String(session.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "garden party", theme)

	v, ok := run.Get(session.KeySlideMapping)
	require.True(t, ok)
	p := v.(*plan.Plan)
	require.True(t, p.Success)
	assert.True(t, plan.AllowedPair(p.PrimaryAxis, p.SecondaryAxis))

	rec, err := store.GetArtifact(context.Background(), run.RunID(), "slide_mapping.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", rec.MIMEType)
}

func TestArchitect_FailedPlanIsRecorded(t *testing.T) {
	// Eleven fullscreen datasets cannot fit within the slide budget.
	payload := []byte(`{"data": {
		"f1": {"requires_fullscreen": true}, "f2": {"requires_fullscreen": true},
		"f3": {"requires_fullscreen": true}, "f4": {"requires_fullscreen": true},
		"f5": {"requires_fullscreen": true}, "f6": {"requires_fullscreen": true},
		"f7": {"requires_fullscreen": true}, "f8": {"requires_fullscreen": true},
		"f9": {"requires_fullscreen": true}, "f10": {"requires_fullscreen": true},
		"f11": {"requires_fullscreen": true}
	}}`)

	run := session.New()
	require.NoError(t, run.Set(ownerIntake, session.KeyPayload, payload))

	store := artifact.NewMemoryStore()
	arch := &Architect{Partitioner: testPartitioner(7), Store: store}

	_, err := arch.Execute(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planning failed")

	// The failed plan is still the stage's output.
	v, ok := run.Get(session.KeySlideMapping)
	require.True(t, ok)
	p := v.(*plan.Plan)
	assert.False(t, p.Success)
	require.NotNil(t, p.Error)

	_, err = store.GetArtifact(context.Background(), run.RunID(), "slide_mapping.json")
	assert.NoError(t, err)
}

func TestArchitect_MissingPayload(t *testing.T) {
	arch := &Architect{Partitioner: testPartitioner(1), Store: artifact.NewMemoryStore()}

	_, err := arch.Execute(context.Background(), session.New())
	assert.ErrorIs(t, err, session.ErrMissingKey)
}
