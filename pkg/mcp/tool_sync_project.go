package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SyncProjectParams defines parameters for the sync_project tool.
type SyncProjectParams struct {
	Path   string `json:"path"             jsonschema:"description=the project directory to synchronize"`
	DryRun bool   `json:"dryRun,omitempty" jsonschema:"description=report the planned writes without touching the filesystem"`
}

// SyncProjectResult contains the result of synchronizing a project.
type SyncProjectResult struct {
	Message   string   `json:"message"`
	Project   string   `json:"project"`
	Written   []string `json:"written"`
	Unmatched []string `json:"unmatched,omitempty"`
	DryRun    bool     `json:"dryRun"`
}

// createSyncProjectResult creates the MCP tool result from SyncProjectResult.
func createSyncProjectResult(result SyncProjectResult) *mcp.CallToolResultFor[SyncProjectResult] {
	verb := "Synced"
	if result.DryRun {
		verb = "Planned"
	}

	msg := fmt.Sprintf("%s %d files for %s.", verb, len(result.Written), result.Project)
	result.Message = msg

	return &mcp.CallToolResultFor[SyncProjectResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}
