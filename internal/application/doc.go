// Package application provides application initialization and dependency wiring.
// It turns resolved settings into the publisher, readiness probes, router
// and HTTP server, keeping the main package focused on CLI parsing and
// orchestration.
package application
