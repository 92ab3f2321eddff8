// Package publish sends outbound messages to a Redis channel in batches.
// A disabled publisher accepts messages and drops them, which is how the
// local mode keeps messages from leaving the machine.
package publish
