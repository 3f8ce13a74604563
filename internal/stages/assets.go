package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// AssetRequirement is one image the site needs.
type AssetRequirement struct {
	AssetID               string `json:"asset_id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	Usage                 string `json:"usage"`
	TransparentBackground bool   `json:"transparent_background"`
	AspectRatio           string `json:"aspect_ratio"`
	StyleNotes            string `json:"style_notes"`
}

// RefinedPrompt is a requirement turned into a full generation prompt.
type RefinedPrompt struct {
	AssetID               string `json:"asset_id"`
	Name                  string `json:"name"`
	Prompt                string `json:"prompt"`
	AspectRatio           string `json:"aspect_ratio"`
	TransparentBackground bool   `json:"transparent_background"`
}

// AssetsResult maps asset IDs to their stored artifact names.
type AssetsResult struct {
	Success         bool              `json:"success"`
	GeneratedAssets map[string]string `json:"generated_assets"`
}

// Assets is stage 5: requirements extraction, prompt refinement, then
// parallel image generation with optional background removal.
type Assets struct {
	Gen        gemini.Generator
	FlashModel string
	ImageModel string
	EditModel  string
	Store      artifact.Store
	FanOut     *orchestrator.FanOut
}

var _ orchestrator.StageExecutor = (*Assets)(nil)

func (s *Assets) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	p, err := slidePlan(run)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	theme, _ := run.String(session.KeyTheme)

	slides, err := json.Marshal(p.SlideMappings)
	if err != nil {
		return nil, fmt.Errorf("assets: marshal slides: %w", err)
	}
	storyboard := storyboardJSON(run)

	var reqs struct {
		RequiredAssets []AssetRequirement `json:"required_assets"`
	}
	if err := s.Gen.GenerateJSON(ctx, s.FlashModel,
		requirementsPrompt(theme, string(slides), storyboard), &reqs); err != nil {
		return nil, fmt.Errorf("assets: requirements extraction: %w", err)
	}

	var refined struct {
		RefinedPrompts []RefinedPrompt `json:"refined_prompts"`
	}
	reqsJSON, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("assets: marshal requirements: %w", err)
	}
	if err := s.Gen.GenerateJSON(ctx, s.FlashModel,
		refinePrompt(theme, string(reqsJSON)), &refined); err != nil {
		return nil, fmt.Errorf("assets: prompt refinement: %w", err)
	}

	tasks := make([]orchestrator.Task, len(refined.RefinedPrompts))
	for i, rp := range refined.RefinedPrompts {
		tasks[i] = orchestrator.Task{
			Section: rp.AssetID,
			Run: func(ctx context.Context) (string, error) {
				return s.generateOne(ctx, run, rp)
			},
		}
	}

	results, err := s.FanOut.Run(ctx, orchestrator.StageAssets, tasks)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}

	out := AssetsResult{Success: true, GeneratedAssets: make(map[string]string, len(results))}
	artifacts := make([]string, 0, len(results)+1)
	for _, res := range results {
		out.GeneratedAssets[res.Section] = res.Output
		artifacts = append(artifacts, res.Output)
	}

	if err := run.Set(ownerAssets, session.KeyAssets, &out); err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	if err := putJSON(ctx, s.Store, run, orchestrator.StageAssets, "asset_manifest.json", &out); err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	artifacts = append(artifacts, "asset_manifest.json")

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageAssets,
		Artifacts: artifacts,
		Detail:    fmt.Sprintf("%d assets", len(out.GeneratedAssets)),
	}, nil
}

// generateOne produces a single asset and stores it, returning the artifact
// name.
func (s *Assets) generateOne(ctx context.Context, run *session.State, rp RefinedPrompt) (string, error) {
	img, err := s.Gen.GenerateImage(ctx, s.ImageModel, rp.Prompt, rp.AspectRatio, "image/webp")
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", rp.AssetID, err)
	}

	if rp.TransparentBackground {
		edited, err := s.Gen.EditImage(ctx, s.EditModel,
			"Remove the background completely. Keep the subject untouched and make the background fully transparent.",
			img)
		if err != nil {
			return "", fmt.Errorf("remove background for %s: %w", rp.AssetID, err)
		}
		img = edited
	}

	name := fmt.Sprintf("assets/%s%s", rp.AssetID, extensionFor(img.MIMEType))
	if err := putArtifact(ctx, s.Store, run, orchestrator.StageAssets, name, img.MIMEType, img.Data); err != nil {
		return "", fmt.Errorf("store %s: %w", rp.AssetID, err)
	}
	return name, nil
}

// storyboardJSON returns the storyboard as JSON text, or "" when the
// storyboard stage was skipped.
func storyboardJSON(run *session.State) string {
	v, ok := run.Get(session.KeyStoryboard)
	if !ok {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}

func requirementsPrompt(theme, slides, storyboard string) string {
	var b strings.Builder
	b.WriteString("Identify every image the following single-page event site needs.\n")
	fmt.Fprintf(&b, "Theme: %s\nSlides: %s\n", theme, slides)
	if storyboard != "" {
		fmt.Fprintf(&b, "Storyboard: %s\n", storyboard)
	}
	b.WriteString(`Return JSON: {"required_assets": [{"asset_id", "name", "description", "usage",
"transparent_background" (bool), "aspect_ratio" (e.g. "9:16", "1:1"), "style_notes"}]}.
Use "9:16" for full-screen backgrounds and "1:1" for icons. Asset IDs must be
unique lowercase identifiers.`)
	return b.String()
}

func refinePrompt(theme, requirements string) string {
	var b strings.Builder
	b.WriteString("Turn these asset requirements into detailed image generation prompts.\n")
	fmt.Fprintf(&b, "Theme: %s\nRequirements: %s\n", theme, requirements)
	b.WriteString(`For each asset write a prompt covering subject, art style, lighting and
color derived from the theme, and technical quality terms. Keep a cohesive
visual identity across all assets.
Return JSON: {"refined_prompts": [{"asset_id", "name", "prompt", "aspect_ratio",
"transparent_background"}]}. Copy aspect_ratio and transparent_background
unchanged from the requirement.`)
	return b.String()
}
