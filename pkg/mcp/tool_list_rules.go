package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rat/pkg/rule"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct {
	Path string `json:"path,omitempty" jsonschema:"description=a project directory whose rule selection to list; omit to list every rule in the source directory"`
}

// RuleInfo identifies one rule document in the source directory.
type RuleInfo struct {
	// Path is the rule's location relative to the source root, slash-separated.
	Path string `json:"path"`
	// Size is the rule content length in bytes.
	Size int `json:"size"`
}

// ListRulesResult contains the result of listing rules.
type ListRulesResult struct {
	Message   string     `json:"message"`
	Rules     []RuleInfo `json:"rules"`
	Unmatched []string   `json:"unmatched,omitempty"`
	RuleCount int        `json:"ruleCount"`
}

// createListRulesResult creates the MCP tool result from ListRulesResult.
func createListRulesResult(result ListRulesResult) *mcp.CallToolResultFor[ListRulesResult] {
	result.RuleCount = len(result.Rules)

	msg := fmt.Sprintf("Found %d rule documents.", result.RuleCount)
	if len(result.Unmatched) > 0 {
		msg = fmt.Sprintf("Found %d rule documents. %d patterns matched nothing.",
			result.RuleCount, len(result.Unmatched))
	}

	result.Message = msg

	return &mcp.CallToolResultFor[ListRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}

// appendRuleInfo converts loaded rules into their tool representation.
func appendRuleInfo(infos []RuleInfo, rules []rule.Rule) []RuleInfo {
	for _, r := range rules {
		infos = append(infos, RuleInfo{
			Path: r.Path,
			Size: r.Size(),
		})
	}

	return infos
}
