// Package procession is an engine for running process managers: long-lived,
// event-driven workflows that react to the events recorded against an
// application by dispatching commands.
//
// Each workflow instance is a durable, single-writer state machine. It
// consumes an ordered stream of events for one workflow identity, invokes
// an application-defined Definition to translate events into commands,
// dispatches those commands with propagated correlation meta-data, and
// persists its state as snapshots so that it resumes identically after a
// crash.
package procession
