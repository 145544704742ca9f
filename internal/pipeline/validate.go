package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultValidateWorkers caps the size of the ephemeral validation pool.
const DefaultValidateWorkers = 8

// ValidationStage fans a batch of items out to a short-lived worker pool
// and partitions them into accepted and rejected. The pool is recreated on
// every Run.
type ValidationStage struct {
	check     ItemCheck
	workerCap int
	logger    *zap.Logger
}

// NewValidationStage creates a validation stage. workerCap <= 0 selects
// DefaultValidateWorkers.
func NewValidationStage(check ItemCheck, workerCap int, logger *zap.Logger) *ValidationStage {
	if workerCap <= 0 {
		workerCap = DefaultValidateWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationStage{check: check, workerCap: workerCap, logger: logger}
}

// Run dispatches all items to min(workerCap, len(items)) workers. Outcomes
// are streamed on the returned channel in no particular order; the channel
// closes once every item has resolved or the stage has failed. The error
// channel delivers at most one fatal stage error after the outcome channel
// closes.
//
// A check returning VerdictIndeterminate (or an error) is fatal: remaining
// items are abandoned and the error is reported. Cancelling ctx is fatal
// the same way: the stage stops early and ctx.Err() arrives on the error
// channel, so a partially resolved batch is never mistaken for a complete
// one.
func (s *ValidationStage) Run(ctx context.Context, items []Item) (<-chan Outcome, <-chan error) {
	outcomes := make(chan Outcome)
	errc := make(chan error, 1)

	workers := s.workerCap
	if len(items) < workers {
		workers = len(items)
	}
	if workers == 0 {
		close(outcomes)
		close(errc)
		return outcomes, errc
	}

	stageCtx, cancel := context.WithCancel(ctx)

	work := make(chan Item)
	go func() {
		defer close(work)
		for _, it := range items {
			select {
			case work <- it:
			case <-stageCtx.Done():
				return
			}
		}
	}()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		fatalErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			fatalErr = err
			cancel()
		})
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range work {
				if stageCtx.Err() != nil {
					return
				}
				res, err := s.check.Check(stageCtx, it)
				if err != nil {
					s.logger.Error("item check failed", zap.String("item", it.Name), zap.Error(err))
					fail(err)
					return
				}
				var out Outcome
				switch res.Verdict {
				case VerdictPass:
					s.logger.Info("item passed check", zap.String("item", it.Name))
					out = Outcome{Item: it, Accepted: true}
				case VerdictFail:
					s.logger.Warn("item failed check",
						zap.String("item", it.Name),
						zap.String("reason", string(NormalizeReason(res.Reason))))
					out = Outcome{Item: it, Reason: NormalizeReason(res.Reason)}
				case VerdictIndeterminate:
					s.logger.Error("item check produced unparseable output", zap.String("item", it.Name))
					fail(&IndeterminateError{Item: it.Name})
					return
				}
				select {
				case outcomes <- out:
				case <-stageCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		cancel()
		close(outcomes)
		// Cancellation of the caller's context is a fatal stage error,
		// not a clean completion: abandoned items must never look like a
		// fully resolved batch.
		if fatalErr == nil {
			fatalErr = ctx.Err()
		}
		if fatalErr != nil {
			errc <- fatalErr
		}
		close(errc)
	}()

	return outcomes, errc
}

// IndeterminateError reports a check whose output could not be interpreted.
type IndeterminateError struct {
	Item string
}

func (e *IndeterminateError) Error() string {
	return "indeterminate check result for " + e.Item
}
