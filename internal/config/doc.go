// Package config loads, normalizes, and validates tsgrab configuration.
//
// A TOML file is optional: every field has a repository default, the file
// only overrides what it names, and command-line flags override the file.
package config
