// Package config loads, validates, and normalizes Cadence configuration
// from TOML files with sane defaults for unset values.
package config
