// Package sync turns the canonical rule tree into concrete files inside
// client projects.
//
// The pipeline has three phases. A [Planner] loads rules, applies the
// project's filter, and asks each requested output format for its write
// intents; planning never touches the destination filesystem. An
// [Executor] applies intents, re-validating every path against a
// [guard.Guard] before the first byte is written. A [Verifier] replays
// the plan against the files on disk and reports drift without writing
// anything.
//
// [Syncer] wires the phases together for CLI and server callers, and
// [Watcher] re-runs a sync whenever the rule source tree changes.
package sync
