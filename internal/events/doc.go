// Package events is the observability channel for the task service.
//
// Services publish structured events for conditions that do not fail the
// operation but that operators need to see: a cache invalidation that
// failed after a successful store write, or an input rejected by
// validation. Emission is fire-and-forget; an event can never change the
// outcome of the operation that produced it.
package events
