// Package config handles loading, parsing, and validating application
// configuration. Values come from environment variables (prefixed with
// TASKVAULT_) and an optional config.yaml file, with sensible defaults for
// everything that is not security-sensitive.
package config
