// Package project defines a client project receiving synchronized rules.
//
// A project names its root directory, the rule patterns that select its
// documents, the output formats to render, an optional CEL filter over rule
// paths, and hooks (pre/post sync commands) run in the project directory.
package project
