package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// Wireframes is stage 3: it generates one HTML/CSS wireframe per slide, in
// parallel, and records each as an artifact named slide_<n>_wireframe.html.
type Wireframes struct {
	Gen    gemini.Generator
	Model  string
	Store  artifact.Store
	FanOut *orchestrator.FanOut
}

var _ orchestrator.StageExecutor = (*Wireframes)(nil)

func (s *Wireframes) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	p, err := slidePlan(run)
	if err != nil {
		return nil, fmt.Errorf("wireframes: %w", err)
	}
	theme, _ := run.String(session.KeyTheme)

	tasks := make([]orchestrator.Task, len(p.SlideMappings))
	names := make([]string, len(p.SlideMappings))
	for i, slide := range p.SlideMappings {
		name := fmt.Sprintf("slide_%d_wireframe.html", i+1)
		names[i] = name
		tasks[i] = orchestrator.Task{
			Section: slide.SlideID,
			Run: func(ctx context.Context) (string, error) {
				html, err := s.Gen.GenerateText(ctx, s.Model, wireframePrompt(slide, theme, p.PrimaryAxis))
				if err != nil {
					return "", err
				}
				return strings.TrimSpace(html), nil
			},
		}
	}

	results, err := s.FanOut.Run(ctx, orchestrator.StageWireframes, tasks)
	if err != nil {
		return nil, fmt.Errorf("wireframes: %w", err)
	}

	for i, res := range results {
		if err := putArtifact(ctx, s.Store, run, orchestrator.StageWireframes,
			names[i], "text/html", []byte(res.Output)); err != nil {
			return nil, fmt.Errorf("wireframes: %w", err)
		}
	}

	if err := run.Set(ownerWireframes, session.KeyWireframes, names); err != nil {
		return nil, fmt.Errorf("wireframes: %w", err)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageWireframes,
		Artifacts: names,
		Detail:    fmt.Sprintf("%d wireframes", len(names)),
	}, nil
}

func wireframePrompt(slide plan.Slide, theme string, axis plan.Axis) string {
	var b strings.Builder
	b.WriteString("Produce a single self-contained HTML wireframe for one slide of a mobile single-page site (1080x1920 portrait).\n")
	b.WriteString("Use only structural HTML and embedded CSS: gray boxes, placeholder text, no images, no JavaScript.\n")
	fmt.Fprintf(&b, "Slide ID: %s\n", slide.SlideID)
	fmt.Fprintf(&b, "Content blocks to lay out, in order: %s\n", strings.Join(slide.Datasets, ", "))
	if theme != "" {
		fmt.Fprintf(&b, "Theme for mood only (keep the wireframe grayscale): %s\n", theme)
	}
	fmt.Fprintf(&b, "The site navigates along the %s axis; leave affordance space accordingly.\n", axis)
	b.WriteString("Return raw HTML only, no markdown fences.")
	return b.String()
}
