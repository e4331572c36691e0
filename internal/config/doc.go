// Package config provides the configuration of secregistry: the run
// options set by CLI flags and environment variables, and the
// per-host request settings read from the .secregistry file.
package config
