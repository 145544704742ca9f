package pipeline

import "context"

// Item is a single named work item rooted in a base directory.
// Immutable once enqueued; ownership transfers between stages.
type Item struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// RejectReason classifies why an item was rejected.
type RejectReason string

const (
	ReasonLocked      RejectReason = "locked"
	ReasonIntegrity   RejectReason = "integrity"
	ReasonBuildFailed RejectReason = "build-failed"
	ReasonUnknown     RejectReason = "unknown"
)

// NormalizeReason maps free-form reasons from external checks onto the
// reasons the controller recognizes.
func NormalizeReason(r RejectReason) RejectReason {
	switch r {
	case ReasonLocked, ReasonIntegrity, ReasonBuildFailed:
		return r
	default:
		return ReasonUnknown
	}
}

// Verdict is the result class of an external item check.
type Verdict int

const (
	// VerdictPass accepts the item for building.
	VerdictPass Verdict = iota
	// VerdictFail rejects the item with a reason.
	VerdictFail
	// VerdictIndeterminate means the check produced unparseable output.
	// It is a fatal stage error, not a per-item rejection.
	VerdictIndeterminate
)

// CheckResult is the outcome of one external check invocation.
type CheckResult struct {
	Verdict Verdict
	Reason  RejectReason
}

// ItemCheck is the external validation predicate applied to each item.
// An error return is treated the same as VerdictIndeterminate: it aborts
// the whole run.
type ItemCheck interface {
	Check(ctx context.Context, item Item) (CheckResult, error)
}

// BuildAction is the external build action invoked for each accepted item.
// A non-nil error marks the item build-failed; it does not abort the run.
type BuildAction interface {
	Build(ctx context.Context, item Item, publish bool) error
}

// Outcome is the per-item result streamed out of the validation stage.
type Outcome struct {
	Item     Item
	Accepted bool
	Reason   RejectReason
}

// Options carries the per-run build options.
type Options struct {
	Publish bool `json:"publish"`
}

// Callbacks are fired once per run. Nil callbacks are skipped.
type Callbacks struct {
	OnFilterDone func()
	OnBuildDone  func()
	OnError      func(error)
}
