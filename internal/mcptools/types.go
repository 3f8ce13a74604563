package mcptools

import (
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/status"
)

// --- MCP Tool Input Types ---
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PlanSlidesInput is the input for the plan_slides MCP tool.
type PlanSlidesInput struct {
	Payload string `json:"payload" jsonschema:"the order payload as a JSON object; dataset attributes requires_fullscreen and sequence are honored"`
	Seed    *int64 `json:"seed,omitempty" jsonschema:"seed for the randomized partitioner; omit for a fresh random plan"`
}

// PlanSlidesOutput is the result of the plan_slides MCP tool.
type PlanSlidesOutput struct {
	Plan *plan.Plan `json:"plan"`
}

// ValidatePlanInput is the input for the validate_plan MCP tool.
type ValidatePlanInput struct {
	Payload string `json:"payload" jsonschema:"the order payload the plan was built from, as a JSON object"`
	Plan    string `json:"plan" jsonschema:"the slide plan to validate, as JSON"`
}

// ValidatePlanOutput is the result of the validate_plan MCP tool.
type ValidatePlanOutput struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// GetRunStatusInput is the input for the get_run_status MCP tool.
type GetRunStatusInput struct {
	RunID string `json:"runId" jsonschema:"the run to report on"`
}

// GetRunStatusOutput is the result of the get_run_status MCP tool.
type GetRunStatusOutput struct {
	Status status.RunStatus `json:"status"`
}

// ListRunsInput is the input for the list_runs MCP tool.
type ListRunsInput struct{}

// ListRunsOutput is the result of the list_runs MCP tool.
type ListRunsOutput struct {
	Runs []status.RunStatus `json:"runs"`
}

// GetArtifactInput is the input for the get_artifact MCP tool.
type GetArtifactInput struct {
	RunID string `json:"runId" jsonschema:"the run the artifact belongs to"`
	Name  string `json:"name" jsonschema:"the artifact name, e.g. slide_mapping.json"`
}

// GetArtifactOutput is the result of the get_artifact MCP tool.
type GetArtifactOutput struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`

	// Text holds the artifact body for textual MIME types; binary
	// artifacts return size and type only.
	Text string `json:"text,omitempty"`
}
