// Package execs runs external commands declared in configuration files.
//
// It backs the launch commands formats declare as well as project sync
// hooks, handling argument, environment, and output plumbing for both.
package execs
