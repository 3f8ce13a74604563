package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// fakeGen is a scriptable gemini.Generator.
type fakeGen struct {
	jsonFn  func(model, prompt string, out any) error
	textFn  func(model, prompt string) (string, error)
	imageFn func(model, prompt, aspectRatio, mimeType string) (gemini.Image, error)
	editFn  func(model, prompt string, img gemini.Image) (gemini.Image, error)
}

func (f *fakeGen) GenerateJSON(ctx context.Context, model, prompt string, out any) error {
	if f.jsonFn == nil {
		return fmt.Errorf("unexpected GenerateJSON call")
	}
	return f.jsonFn(model, prompt, out)
}

func (f *fakeGen) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if f.textFn == nil {
		return "", fmt.Errorf("unexpected GenerateText call")
	}
	return f.textFn(model, prompt)
}

func (f *fakeGen) GenerateImage(ctx context.Context, model, prompt, aspectRatio, mimeType string) (gemini.Image, error) {
	if f.imageFn == nil {
		return gemini.Image{}, fmt.Errorf("unexpected GenerateImage call")
	}
	return f.imageFn(model, prompt, aspectRatio, mimeType)
}

func (f *fakeGen) EditImage(ctx context.Context, model, prompt string, img gemini.Image) (gemini.Image, error) {
	if f.editFn == nil {
		return gemini.Image{}, fmt.Errorf("unexpected EditImage call")
	}
	return f.editFn(model, prompt, img)
}

// respondJSON returns a jsonFn that unmarshals canned responses in call
// order.
func respondJSON(t *testing.T, responses ...string) func(model, prompt string, out any) error {
	t.Helper()
	call := 0
	return func(model, prompt string, out any) error {
		require.Less(t, call, len(responses), "more GenerateJSON calls than scripted responses")
		resp := responses[call]
		call++
		return json.Unmarshal([]byte(resp), out)
	}
}

// testPlan is a small successful plan shared by the stage tests.
func testPlan() *plan.Plan {
	return &plan.Plan{
		SlideMappings: []plan.Slide{
			{SlideID: "slide1", Datasets: []string{"hero"}},
			{SlideID: "slide2", Datasets: []string{"story", "venue"}},
		},
		PrimaryAxis:   plan.AxisVertical,
		SecondaryAxis: plan.AxisLinear,
		Success:       true,
	}
}

// plannedRun builds a run state that already passed information
// architecture: payload metadata promoted, slide mapping present.
func plannedRun(t *testing.T) *session.State {
	t.Helper()
	run := session.New()
	require.NoError(t, run.Set(ownerArchitect, session.KeyTheme, "fairy tale wedding"))
	require.NoError(t, run.Set(ownerArchitect, session.KeySlug, "ana-y-leo"))
	require.NoError(t, run.Set(ownerArchitect, session.KeySlideMapping, testPlan()))
	return run
}

func testPartitioner(seed int64) *plan.Partitioner {
	return plan.NewPartitioner(rand.New(rand.NewSource(seed)))
}

func quietFanOut() *orchestrator.FanOut {
	return orchestrator.NewFanOut(0, nil)
}
