// Package config provides configuration management for the rat application.
//
// It wraps other package configuration to provide a single API for
// loading, validating, and writing configuration files in YAML format,
// and resolves the effective project for a target path.
package config
