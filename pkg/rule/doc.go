// Package rule loads Markdown rule documents from the central source
// repository using glob patterns.
//
// Patterns support `**` via doublestar semantics. A leading `!` marks a
// pattern as an exclusion. Loading is all-or-nothing: any unreadable matched
// file aborts the load, so downstream planners never see partial rule sets.
package rule
