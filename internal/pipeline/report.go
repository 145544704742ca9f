package pipeline

import "sync"

// Failure is one rejected item and the reason it was rejected.
type Failure struct {
	Item   string       `json:"item"`
	Reason RejectReason `json:"reason"`
}

// FailureReport accumulates rejections during one run. Appends preserve
// arrival order. The report is reset at the start of each run.
type FailureReport struct {
	mu       sync.Mutex
	failures []Failure
}

// NewFailureReport creates an empty report.
func NewFailureReport() *FailureReport {
	return &FailureReport{}
}

// Append records a rejection. Safe for concurrent use.
func (r *FailureReport) Append(item Item, reason RejectReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{Item: item.Name, Reason: NormalizeReason(reason)})
}

// Snapshot returns a copy of the accumulated failures.
func (r *FailureReport) Snapshot() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Len returns the number of recorded failures.
func (r *FailureReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}
