// Package config loads and validates application settings from defaults,
// an optional config file and TASKFLOW_* environment variables.
package config
