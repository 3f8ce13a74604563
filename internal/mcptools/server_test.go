package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
)

// setupServerClient wires an MCP server and client together over in-memory
// transports. It returns the connected client session and the backing store
// so tests can seed runs.
func setupServerClient(t *testing.T) (*mcp.ClientSession, artifact.Store) {
	t.Helper()

	store := artifact.NewMemoryStore()
	server := NewServer(NewService(store))

	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session, store
}

// callTool invokes a tool and decodes its structured content into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args, out any) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error", name)
	require.NotNil(t, result.StructuredContent)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestMCPListTools(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 5)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	expected := []string{
		"get_artifact",
		"get_run_status",
		"list_runs",
		"plan_slides",
		"validate_plan",
	}
	assert.Equal(t, expected, names)
}

func TestMCPPlanSlides(t *testing.T) {
	session, _ := setupServerClient(t)

	seed := int64(42)
	var out PlanSlidesOutput
	callTool(t, session, "plan_slides", PlanSlidesInput{
		Payload: `{
			"hero": {"requires_fullscreen": true},
			"story": {"sequence": 1},
			"closing": {"sequence": 2}
		}`,
		Seed: &seed,
	}, &out)

	require.NotNil(t, out.Plan)
	require.True(t, out.Plan.Success)
	for _, s := range out.Plan.SlideMappings {
		for _, key := range s.Datasets {
			if key == "hero" {
				assert.Equal(t, []string{"hero"}, s.Datasets)
			}
		}
	}
}

func TestMCPPlanSlides_FailedPlan(t *testing.T) {
	session, _ := setupServerClient(t)

	// More fullscreen datasets than the slide budget allows.
	payload := `{
		"f1": {"requires_fullscreen": true}, "f2": {"requires_fullscreen": true},
		"f3": {"requires_fullscreen": true}, "f4": {"requires_fullscreen": true},
		"f5": {"requires_fullscreen": true}, "f6": {"requires_fullscreen": true},
		"f7": {"requires_fullscreen": true}, "f8": {"requires_fullscreen": true},
		"f9": {"requires_fullscreen": true}, "f10": {"requires_fullscreen": true},
		"f11": {"requires_fullscreen": true}
	}`

	var out PlanSlidesOutput
	callTool(t, session, "plan_slides", PlanSlidesInput{Payload: payload}, &out)

	require.NotNil(t, out.Plan)
	assert.False(t, out.Plan.Success)
	require.NotNil(t, out.Plan.Error)
	assert.Empty(t, out.Plan.SlideMappings)
}

func TestMCPValidatePlan(t *testing.T) {
	session, _ := setupServerClient(t)

	payload := `{"hero": {"requires_fullscreen": true}, "story": {}}`

	// Fullscreen dataset sharing a slide; axes mismatched.
	badPlan := `{
		"slide_mappings": [{"slide_id": "slide1", "datasets": ["hero", "story"]}],
		"primary_axis": "vertical",
		"secondary_axis": "vertical",
		"success": true
	}`

	var out ValidatePlanOutput
	callTool(t, session, "validate_plan", ValidatePlanInput{Payload: payload, Plan: badPlan}, &out)

	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Violations)
}

func TestMCPRunStatusAndArtifact(t *testing.T) {
	session, store := setupServerClient(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, artifact.Run{
		ID: "run-1", Slug: "ana-y-leo", StartedAt: time.Now(),
	}))
	require.NoError(t, store.SetStageStatus(ctx, artifact.StageStatus{
		RunID: "run-1", Stage: orchestrator.StageOrderIntake.String(),
		Completed: true, FinishedAt: time.Now(),
	}))
	require.NoError(t, store.PutArtifact(ctx, artifact.Record{
		RunID: "run-1", Stage: orchestrator.StageInformationArchitecture.String(),
		Name: "slide_mapping.json", MIMEType: "application/json",
		Data: []byte(`{"success": true}`), CreatedAt: time.Now(),
	}))

	var st GetRunStatusOutput
	callTool(t, session, "get_run_status", GetRunStatusInput{RunID: "run-1"}, &st)
	assert.Equal(t, "ana-y-leo", st.Status.Slug)
	assert.True(t, st.Status.Stages[0].Complete)
	assert.Equal(t, 1, st.Status.NextStage)

	var runs ListRunsOutput
	callTool(t, session, "list_runs", ListRunsInput{}, &runs)
	require.Len(t, runs.Runs, 1)

	var art GetArtifactOutput
	callTool(t, session, "get_artifact", GetArtifactInput{RunID: "run-1", Name: "slide_mapping.json"}, &art)
	assert.Equal(t, "application/json", art.MIMEType)
	assert.JSONEq(t, `{"success": true}`, art.Text)
}

func TestMCPGetRunStatus_UnknownRun(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_run_status",
		Arguments: GetRunStatusInput{RunID: "nope"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
