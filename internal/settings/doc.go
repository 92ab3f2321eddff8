// Package settings resolves the process-wide settings bundle from the
// environment. The deployment mode is read from DEPLOYMENT_TYPE first and
// every mode-dependent value is derived from it. Two optional YAML overlays
// are then applied in order: vendor services settings (best effort) and,
// in the local mode only, local settings (required). Server keys finally
// honour environment variables and command-line flags, in that order.
//
// The resolved Settings value is built once at startup and treated as
// read-only by its consumers.
package settings
