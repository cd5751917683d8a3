package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// VerifyProjectParams defines parameters for the verify_project tool.
type VerifyProjectParams struct {
	Path string `json:"path" jsonschema:"description=the project directory to verify"`
}

// DriftIssue describes one divergence between a project and its plan.
type DriftIssue struct {
	// Kind is "missing", "modified", or "extra".
	Kind string `json:"kind"`
	// Path is the affected file, absolute.
	Path string `json:"path"`
}

// VerifyProjectResult contains the result of verifying a project.
type VerifyProjectResult struct {
	Message string       `json:"message"`
	Project string       `json:"project"`
	Issues  []DriftIssue `json:"issues"`
	Synced  bool         `json:"synced"`
}

// createVerifyProjectResult creates the MCP tool result from VerifyProjectResult.
func createVerifyProjectResult(result VerifyProjectResult) *mcp.CallToolResultFor[VerifyProjectResult] {
	msg := fmt.Sprintf("%s is in sync.", result.Project)
	if !result.Synced {
		msg = fmt.Sprintf(
			"%s has %d files out of sync. Use the sync_project tool to fix them.",
			result.Project, len(result.Issues),
		)
	}

	result.Message = msg

	return &mcp.CallToolResultFor[VerifyProjectResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}
