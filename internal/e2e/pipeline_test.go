//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/publish"
	"github.com/vitrine-studio/vitrine/internal/session"
	"github.com/vitrine-studio/vitrine/internal/stages"
	"github.com/vitrine-studio/vitrine/internal/status"
)

const siteIndexHTML = `<!DOCTYPE html>
<html lang="en">
<head><link rel="stylesheet" href="style.css"></head>
<body><img src="assets/hero_bg.webp" alt=""><script src="script.js"></script></body>
</html>`

const siteScriptJS = `let current = 0;
function goTo(index) {
  current = index;
}
goTo(0);
`

// scriptedGen answers each model call based on the prompt's leading
// instruction, mirroring the prompts the stages build.
type scriptedGen struct{}

func (g *scriptedGen) GenerateJSON(ctx context.Context, model, prompt string, out any) error {
	var resp string
	switch {
	case strings.HasPrefix(prompt, "Define the visual identity"):
		resp = `{"fonts": {"primary": {"name": "Cormorant"}}}`
	case strings.HasPrefix(prompt, "Plan the visual assets"):
		resp = `{"global_assets": {"background": "misty forest"}}`
	case strings.HasPrefix(prompt, "Plan the interactions"):
		resp = `{"navigation": {"forward": "swipe-up"}}`
	case strings.HasPrefix(prompt, "Identify every image"):
		resp = `{"required_assets": [
			{"asset_id": "hero_bg", "name": "Hero background", "aspect_ratio": "9:16"}
		]}`
	case strings.HasPrefix(prompt, "Turn these asset requirements"):
		resp = `{"refined_prompts": [
			{"asset_id": "hero_bg", "prompt": "a misty forest", "aspect_ratio": "9:16"}
		]}`
	case strings.HasPrefix(prompt, "Build a mobile single-page site"):
		bundle, err := json.Marshal(stages.CodeBundle{
			IndexHTML: siteIndexHTML,
			StyleCSS:  "body { margin: 0; }",
			ScriptJS:  siteScriptJS,
		})
		if err != nil {
			return err
		}
		resp = string(bundle)
	default:
		return fmt.Errorf("unexpected prompt: %.60s", prompt)
	}
	return json.Unmarshal([]byte(resp), out)
}

func (g *scriptedGen) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	return "<html><body>wireframe</body></html>", nil
}

func (g *scriptedGen) GenerateImage(ctx context.Context, model, prompt, aspectRatio, mimeType string) (gemini.Image, error) {
	return gemini.Image{Data: []byte("webp bytes"), MIMEType: "image/webp"}, nil
}

func (g *scriptedGen) EditImage(ctx context.Context, model, prompt string, img gemini.Image) (gemini.Image, error) {
	return gemini.Image{Data: []byte("edited"), MIMEType: "image/png"}, nil
}

var _ gemini.Generator = (*scriptedGen)(nil)

type recordingUploader struct {
	dir    string
	prefix string
}

func (u *recordingUploader) UploadDir(ctx context.Context, dir, prefix string) ([]string, error) {
	u.dir, u.prefix = dir, prefix
	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		keys = append(keys, prefix+"/"+filepath.ToSlash(rel))
		return nil
	})
	return keys, err
}

func newOrderServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getOrder":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{
				"metadata": {
					"designer_comments": "rustic autumn wedding",
					"slug": "ana-y-leo",
					"product_type": "wedding",
					"occasion": "ceremony",
					"design_manual": "%s/guide.png"
				},
				"orderData": {
					"hero": {"requires_fullscreen": true},
					"story": {"sequence": 1},
					"closing": {"sequence": 2}
				}
			}`, srv.URL)
		case "/guide.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("fake png bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestPipeline_E2E runs every stage from order intake through publish with a
// scripted model, a live HTTP order server, and a recording uploader.
func TestPipeline_E2E(t *testing.T) {
	srv := newOrderServer(t)
	store := artifact.NewMemoryStore()
	gen := &scriptedGen{}
	uploader := &recordingUploader{}
	outputDir := t.TempDir()

	pipe := orchestrator.NewPipeline(zaptest.NewLogger(t))
	fan := orchestrator.NewFanOut(0, pipe.Reporter().Emit)

	register := func(stage orchestrator.Stage, exec orchestrator.StageExecutor) {
		pipe.Register(stage, &stages.StatusRecorder{Store: store, Stage: stage, Exec: exec})
	}
	register(orchestrator.StageOrderIntake, &stages.Intake{
		Orders: &stages.OrderClient{BaseURL: srv.URL, APIKey: "test-key"},
		Store:  store,
	})
	register(orchestrator.StageInformationArchitecture, &stages.Architect{
		Partitioner: plan.NewPartitioner(rand.New(rand.NewSource(7))),
		Store:       store,
	})
	register(orchestrator.StageNavigation, &stages.Navigation{Store: store})
	register(orchestrator.StageWireframes, &stages.Wireframes{
		Gen: gen, Model: "flash", Store: store, FanOut: fan,
	})
	register(orchestrator.StageStoryboard, &stages.StoryboardStage{
		Gen: gen, Model: "pro", Store: store,
	})
	register(orchestrator.StageAssets, &stages.Assets{
		Gen: gen, FlashModel: "flash", ImageModel: "imagen", EditModel: "edit",
		Store: store, FanOut: fan,
	})
	register(orchestrator.StageCoding, &stages.Coding{
		Gen: gen, Model: "pro", Store: store, OutputDir: outputDir,
	})
	register(orchestrator.StagePublish, &stages.Publish{
		Uploader: uploader, BaseURL: "https://sites.example.com", Store: store,
	})

	run := session.New()
	require.NoError(t, run.Set("cli", session.KeyOrderID, "ord-42"))
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, artifact.Run{
		ID: run.RunID(), StartedAt: time.Now(),
	}))

	results, err := pipe.RunPipeline(ctx, orchestrator.StageOrderIntake, orchestrator.StagePublish, run)
	require.NoError(t, err)
	require.Len(t, results, 8)
	pipe.Close()

	// The plan honors the fullscreen and sequence constraints.
	v, ok := run.Get(session.KeySlideMapping)
	require.True(t, ok)
	p := v.(*plan.Plan)
	require.True(t, p.Success)
	storySlide, closingSlide := -1, -1
	for i, s := range p.SlideMappings {
		for _, key := range s.Datasets {
			switch key {
			case "hero":
				assert.Equal(t, []string{"hero"}, s.Datasets)
			case "story":
				storySlide = i
			case "closing":
				closingSlide = i
			}
		}
	}
	require.NotEqual(t, -1, storySlide)
	require.NotEqual(t, -1, closingSlide)
	assert.LessOrEqual(t, storySlide, closingSlide)

	// The generated site landed on disk under the order's slug.
	siteDir := filepath.Join(outputDir, "site", "ana-y-leo")
	for _, rel := range []string{"index.html", "style.css", "script.js", "assets/hero_bg.webp"} {
		_, err := os.Stat(filepath.Join(siteDir, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	// Publish saw the site directory and produced the public URL.
	assert.Equal(t, siteDir, uploader.dir)
	assert.Equal(t, "ana-y-leo", uploader.prefix)
	pv, ok := run.Get(session.KeyPublisher)
	require.True(t, ok)
	res := pv.(*publish.Result)
	assert.True(t, res.Success)
	assert.Equal(t, "https://sites.example.com/ana-y-leo/", res.URL)
	assert.NotEmpty(t, res.UploadedFiles)

	// Every stage is recorded complete and the run slug was resolved.
	st, err := status.ForRun(ctx, store, run.RunID())
	require.NoError(t, err)
	assert.Equal(t, -1, st.NextStage)
	assert.Equal(t, "ana-y-leo", st.Slug)

	// Key artifacts exist.
	for _, name := range []string{
		"aesthetic_guide", "slide_mapping.json", "navigation.mmd",
		"slide_1_wireframe.html", "storyboard.json", "asset_manifest.json",
		"index.html", "publish.json",
	} {
		_, err := store.GetArtifact(ctx, run.RunID(), name)
		assert.NoError(t, err, name)
	}
}

// TestPipeline_E2E_FailedPlanStopsRun feeds an order whose payload cannot be
// partitioned and checks the failure is recorded at the architecture stage.
func TestPipeline_E2E_FailedPlanStopsRun(t *testing.T) {
	var datasets []string
	for i := 1; i <= 11; i++ {
		datasets = append(datasets, fmt.Sprintf(`"f%d": {"requires_fullscreen": true}`, i))
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"metadata": {"slug": "too-big"}, "orderData": {%s}}`,
			strings.Join(datasets, ","))
	}))
	t.Cleanup(srv.Close)

	store := artifact.NewMemoryStore()
	pipe := orchestrator.NewPipeline(zaptest.NewLogger(t))
	register := func(stage orchestrator.Stage, exec orchestrator.StageExecutor) {
		pipe.Register(stage, &stages.StatusRecorder{Store: store, Stage: stage, Exec: exec})
	}
	register(orchestrator.StageOrderIntake, &stages.Intake{
		Orders: &stages.OrderClient{BaseURL: srv.URL},
		Store:  store,
	})
	register(orchestrator.StageInformationArchitecture, &stages.Architect{
		Partitioner: plan.NewPartitioner(rand.New(rand.NewSource(1))),
		Store:       store,
	})

	run := session.New()
	require.NoError(t, run.Set("cli", session.KeyOrderID, "ord-43"))
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, artifact.Run{
		ID: run.RunID(), StartedAt: time.Now(),
	}))

	_, err := pipe.RunPipeline(ctx, orchestrator.StageOrderIntake,
		orchestrator.StageInformationArchitecture, run)
	require.Error(t, err)
	pipe.Close()

	st, statErr := status.ForRun(ctx, store, run.RunID())
	require.NoError(t, statErr)
	assert.True(t, st.Stages[0].Complete)
	assert.True(t, st.Stages[1].Failed)
	assert.Equal(t, int(orchestrator.StageInformationArchitecture), st.NextStage)

	// The failed plan is still inspectable.
	rec, err := store.GetArtifact(ctx, run.RunID(), "slide_mapping.json")
	require.NoError(t, err)
	assert.Contains(t, string(rec.Data), `"success": false`)
}
