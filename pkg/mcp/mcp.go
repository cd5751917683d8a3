package mcp

const (
	name         = "rat"
	instructions = `MCP Server 'rat' synchronizes canonical rule documents from a central source directory into project directories, rendered per downstream tool format.

When to use these tools:
- Checking whether a project's generated rule files are up to date with the rule source
- Regenerating a project's rule files after the source documents change
- Inspecting which rule documents a project selects

REQUIRED workflow:
1. Use 'verify_project' with a project directory to check for drift
2. STOP and READ the output to see which files are missing, modified, or extra
3. Use 'sync_project' to bring the project up to date; set dryRun to true first if you only want to see the planned writes
4. Use 'list_rules' to see the rule documents a project selects, or every rule in the source directory when no path is given

IMPORTANT: Generated rule files are overwritten on every sync. To change a rule, edit the source document in the rule directory, never the generated file.
`
)
