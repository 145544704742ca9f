/*
Package pipeline coordinates batch processing of named drawing files through
two sequential stages: a fan-out validation stage and a pooled build stage.

# Overview

The Controller owns one run at a time. A run validates every item
concurrently, routes accepted items into a joinable build queue as they are
produced, and fires completion callbacks once the build pool has drained.
Validation workers are ephemeral (recreated per run); build workers are
persistent for the duration of a run and are told to stop individually via
shutdown sentinels, one per worker.

# Usage

	ctrl := pipeline.NewController(check, action, logger)
	err := ctrl.Process(ctx, items, dir, pipeline.Options{Publish: true}, pipeline.Callbacks{
		OnFilterDone: func() { ... },
		OnBuildDone:  func() { ... },
		OnError:      func(err error) { ... },
	})

Process returns immediately; progress is reported through the callbacks.
Rejected items accumulate in the failure report, readable at any point via
FailureReport.

# Concurrency

At most one run is active at a time, enforced by an atomic guard inside the
Controller. Abort refuses while a run is active; an in-flight build is never
interrupted.
*/
package pipeline
