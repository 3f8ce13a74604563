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

// Storyboard is the combined design plan: visual identity, asset plan, and
// interaction plan, produced by three sequential model calls that each feed
// the next.
type Storyboard struct {
	Theme        json.RawMessage `json:"theme"`
	AssetPlan    json.RawMessage `json:"asset_plan"`
	Interactions json.RawMessage `json:"interactions"`
}

// StoryboardStage is stage 4.
type StoryboardStage struct {
	Gen   gemini.Generator
	Model string
	Store artifact.Store
}

var _ orchestrator.StageExecutor = (*StoryboardStage)(nil)

func (s *StoryboardStage) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	p, err := slidePlan(run)
	if err != nil {
		return nil, fmt.Errorf("storyboard: %w", err)
	}
	theme, _ := run.String(session.KeyTheme)

	slides, err := json.Marshal(p.SlideMappings)
	if err != nil {
		return nil, fmt.Errorf("storyboard: marshal slides: %w", err)
	}

	var sb Storyboard

	// Theme design: fonts and colors from the high-level theme.
	if err := s.Gen.GenerateJSON(ctx, s.Model, themePrompt(theme), &sb.Theme); err != nil {
		return nil, fmt.Errorf("storyboard: theme design: %w", err)
	}

	// Asset plan: global and per-slide visuals, informed by the theme design.
	if err := s.Gen.GenerateJSON(ctx, s.Model,
		assetPlanPrompt(theme, string(sb.Theme), string(slides)), &sb.AssetPlan); err != nil {
		return nil, fmt.Errorf("storyboard: asset plan: %w", err)
	}

	// Interaction plan: transitions and gestures along the chosen axes.
	if err := s.Gen.GenerateJSON(ctx, s.Model,
		interactionPrompt(string(p.PrimaryAxis), string(p.SecondaryAxis), string(slides)), &sb.Interactions); err != nil {
		return nil, fmt.Errorf("storyboard: interaction plan: %w", err)
	}

	if err := run.Set(ownerStoryboard, session.KeyStoryboard, &sb); err != nil {
		return nil, fmt.Errorf("storyboard: %w", err)
	}
	if err := putJSON(ctx, s.Store, run, orchestrator.StageStoryboard, "storyboard.json", &sb); err != nil {
		return nil, fmt.Errorf("storyboard: %w", err)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageStoryboard,
		Artifacts: []string{"storyboard.json"},
		Detail:    "theme, asset plan, interactions",
	}, nil
}

func themePrompt(theme string) string {
	var b strings.Builder
	b.WriteString("Define the visual identity for a single-page event site.\n")
	fmt.Fprintf(&b, "Theme: %s\n", theme)
	b.WriteString(`Return JSON with:
- "fonts": {"primary": {"name", "style", "usage"}, "secondary": {...}}
- "colors": {"primary_text": {"value", "usage"}, "secondary_text": {...}, plus accent colors}
Keep the palette cohesive with the theme's mood.`)
	return b.String()
}

func assetPlanPrompt(theme, themeDesign, slides string) string {
	var b strings.Builder
	b.WriteString("Plan the visual assets for a single-page event site.\n")
	fmt.Fprintf(&b, "Theme: %s\nVisual identity: %s\nSlides: %s\n", theme, themeDesign, slides)
	b.WriteString(`Return JSON with:
- "global_assets": backgrounds and decorative elements shared by the site
- "slide_assets": for each slide ID, its background style and any specific media
Descriptions only; no URLs or file names.`)
	return b.String()
}

func interactionPrompt(primary, secondary, slides string) string {
	var b strings.Builder
	b.WriteString("Plan the interactions for a mobile single-page event site.\n")
	fmt.Fprintf(&b, "Primary navigation axis: %s. Secondary axis: %s.\nSlides: %s\n",
		primary, secondary, slides)
	b.WriteString(`Return JSON with:
- "navigation": gesture mapping for moving between slides along each axis
- "transitions": per-slide enter/leave animation descriptions
- "micro_interactions": small touch feedback details
Vanilla-JS-implementable only; no libraries.`)
	return b.String()
}
