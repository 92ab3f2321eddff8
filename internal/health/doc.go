// Package health runs readiness probes against the optional backing
// services named in the settings.
package health
