package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/session"
	"github.com/vitrine-studio/vitrine/internal/sitecheck"
)

// CodeBundle is the generated site: one HTML entry point plus its
// stylesheet and script. The entry point must be index.html.
type CodeBundle struct {
	IndexHTML string `json:"index_html"`
	StyleCSS  string `json:"style_css"`
	ScriptJS  string `json:"script_js"`
}

// CodingResult is stored in the session for the publish stage.
type CodingResult struct {
	Success  bool   `json:"success"`
	SitePath string `json:"site_path"`
}

// Coding is stage 6: it turns the storyboard and generated assets into the
// final site files, verifies them, and writes them under OutputDir.
type Coding struct {
	Gen       gemini.Generator
	Model     string
	Store     artifact.Store
	OutputDir string
}

var _ orchestrator.StageExecutor = (*Coding)(nil)

func (s *Coding) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	p, err := slidePlan(run)
	if err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}

	sbAny, err := run.Require(session.KeyStoryboard)
	if err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}
	assetsAny, err := run.Require(session.KeyAssets)
	if err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}
	assets, ok := assetsAny.(*AssetsResult)
	if !ok {
		return nil, fmt.Errorf("coding: asset result holds %T", assetsAny)
	}

	slug, err := run.String(session.KeySlug)
	if err != nil || slug == "" {
		slug = "run-" + run.RunID()[:8]
		if setErr := run.Set(ownerCoding, session.KeySlug, slug); setErr != nil {
			return nil, fmt.Errorf("coding: %w", setErr)
		}
	}

	siteDir := filepath.Join(s.OutputDir, "site", slug)
	assetPaths, err := s.exportAssets(ctx, run, siteDir, assets)
	if err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}

	storyboard, err := json.Marshal(sbAny)
	if err != nil {
		return nil, fmt.Errorf("coding: marshal storyboard: %w", err)
	}
	slides, err := json.Marshal(p.SlideMappings)
	if err != nil {
		return nil, fmt.Errorf("coding: marshal slides: %w", err)
	}
	nav := navigationJSON(run)

	var bundle CodeBundle
	if err := s.Gen.GenerateJSON(ctx, s.Model,
		codingPrompt(string(storyboard), string(slides), nav, assetPaths, string(p.PrimaryAxis)),
		&bundle); err != nil {
		return nil, fmt.Errorf("coding: generate site: %w", err)
	}
	if strings.TrimSpace(bundle.IndexHTML) == "" {
		return nil, fmt.Errorf("coding: model returned no index.html")
	}

	if err := verifyBundle(&bundle); err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}

	files := map[string]string{
		"index.html": bundle.IndexHTML,
		"style.css":  bundle.StyleCSS,
		"script.js":  bundle.ScriptJS,
	}
	artifacts := make([]string, 0, len(files))
	for name, content := range files {
		if content == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(siteDir, name), []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("coding: write %s: %w", name, err)
		}
		mime := "text/html"
		switch filepath.Ext(name) {
		case ".css":
			mime = "text/css"
		case ".js":
			mime = "application/javascript"
		}
		if err := putArtifact(ctx, s.Store, run, orchestrator.StageCoding, name, mime, []byte(content)); err != nil {
			return nil, fmt.Errorf("coding: %w", err)
		}
		artifacts = append(artifacts, name)
	}

	result := &CodingResult{Success: true, SitePath: siteDir}
	if err := run.Set(ownerCoding, session.KeyCoding, result); err != nil {
		return nil, fmt.Errorf("coding: %w", err)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageCoding,
		Artifacts: artifacts,
		Detail:    siteDir,
	}, nil
}

// exportAssets writes the stored asset artifacts into the site directory
// and returns a map of asset IDs to site-relative paths.
func (s *Coding) exportAssets(ctx context.Context, run *session.State, siteDir string, assets *AssetsResult) (map[string]string, error) {
	if err := os.MkdirAll(filepath.Join(siteDir, "assets"), 0o755); err != nil {
		return nil, fmt.Errorf("create site directory: %w", err)
	}

	paths := make(map[string]string, len(assets.GeneratedAssets))
	for assetID, name := range assets.GeneratedAssets {
		rec, err := s.Store.GetArtifact(ctx, run.RunID(), name)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", assetID, err)
		}
		rel := filepath.ToSlash(name)
		dst := filepath.Join(siteDir, filepath.FromSlash(rel))
		if err := os.WriteFile(dst, rec.Data, 0o644); err != nil {
			return nil, fmt.Errorf("export asset %s: %w", assetID, err)
		}
		paths[assetID] = rel
	}
	return paths, nil
}

// verifyBundle runs the syntax and structure checks on the generated files.
func verifyBundle(b *CodeBundle) error {
	if issues := sitecheck.CheckHTML([]byte(b.IndexHTML)); len(issues) > 0 {
		return fmt.Errorf("index.html failed checks: %s", joinIssues(issues))
	}
	if b.ScriptJS != "" {
		issues, err := sitecheck.CheckScript([]byte(b.ScriptJS))
		if err != nil {
			return fmt.Errorf("script check: %w", err)
		}
		if len(issues) > 0 {
			return fmt.Errorf("script.js has syntax errors: %s", joinIssues(issues))
		}
	}
	return nil
}

func joinIssues(issues []sitecheck.Issue) string {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return strings.Join(msgs, "; ")
}

func navigationJSON(run *session.State) string {
	v, ok := run.Get(session.KeyNavigation)
	if !ok {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func codingPrompt(storyboard, slides, nav string, assetPaths map[string]string, axis string) string {
	paths, _ := json.Marshal(assetPaths)

	var b strings.Builder
	b.WriteString("Build a mobile single-page site (1080x1920 portrait, responsive) as three files.\n")
	fmt.Fprintf(&b, "Storyboard: %s\nSlides: %s\n", storyboard, slides)
	if nav != "" {
		fmt.Fprintf(&b, "Navigation graph: %s\n", nav)
	}
	fmt.Fprintf(&b, "Asset files, by asset ID (use these exact relative paths in src/url references): %s\n", paths)
	fmt.Fprintf(&b, "Primary navigation axis: %s; implement the matching touch gestures in vanilla JavaScript.\n", axis)
	b.WriteString(`Requirements: semantic HTML5; modern CSS (flexbox/grid, variables,
animations); no external libraries; the entry point is index.html and links
style.css and script.js.
Return JSON: {"index_html": "...", "style_css": "...", "script_js": "..."}.`)
	return b.String()
}
