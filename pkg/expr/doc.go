// Package expr provides CEL (Common Expression Language) functionality for
// evaluating expressions against rule paths.
//
// It creates CEL environments with custom functions for file path
// operations (pathBase, pathDir, pathExt). Callers declare their own
// variables, e.g. `path` for the rule path being filtered.
package expr
