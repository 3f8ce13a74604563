package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the vitrine tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vitrine",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_slides",
		Description: "Partition an order payload into slides and pick the navigation axes. Fullscreen datasets get their own slide, sequenced datasets keep their order, and each plan fits within the slide budget. Calls are randomized; pass a seed for a reproducible plan.",
	}, svc.PlanSlides)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_plan",
		Description: "Check a slide plan against the payload it was built from. Reports every violated invariant: coverage, capacity, fullscreen isolation, sequence order, and axis pairing.",
	}, svc.ValidatePlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_run_status",
		Description: "Report the stage-by-stage status of one pipeline run, including errors and the next stage to execute.",
	}, svc.GetRunStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List every recorded pipeline run with its stage statuses, newest first.",
	}, svc.ListRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_artifact",
		Description: "Fetch one stored run artifact, such as slide_mapping.json or a generated site file. Textual artifacts include their body.",
	}, svc.GetArtifact)

	return server
}

// RunServer starts an HTTP server exposing the vitrine MCP tools.
func RunServer(ctx context.Context, svc *Service, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
