package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunActive is returned when a second run or an abort is attempted
	// while a run is in flight. An active run is never interrupted.
	ErrRunActive = errors.New("pipeline: job still running")
)

// Observer receives pipeline progress notifications. All methods must be
// fast and non-blocking; they are called from the run goroutine.
type Observer interface {
	ItemChecked(accepted bool, reason RejectReason)
	BuildWorkersBusy(delta int)
	RunStarted(workers int)
	RunFinished(d time.Duration, err error)
}

// Controller orchestrates the validation and build stages for one run at a
// time and fires the registered callbacks exactly once per run.
type Controller struct {
	check  ItemCheck
	action BuildAction
	logger *zap.Logger

	running atomic.Bool

	mu          sync.Mutex
	build       *BuildStage
	report      *FailureReport
	workerCount int
	validateCap int
	queueCap    int
	observer    Observer
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithWorkerCount overrides the build pool size (0 = host parallelism).
func WithWorkerCount(n int) ControllerOption {
	return func(c *Controller) { c.workerCount = n }
}

// WithValidateWorkers overrides the validation pool cap.
func WithValidateWorkers(n int) ControllerOption {
	return func(c *Controller) { c.validateCap = n }
}

// WithQueueCapacity overrides the build queue capacity.
func WithQueueCapacity(n int) ControllerOption {
	return func(c *Controller) { c.queueCap = n }
}

// WithObserver attaches a progress observer.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

// NewController creates a controller with an empty run state.
func NewController(check ItemCheck, action BuildAction, logger *zap.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		check:  check,
		action: action,
		logger: logger,
		report: NewFailureReport(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetWorkerCount overrides the build pool size for subsequent runs.
// n <= 0 restores the default (host parallelism).
func (c *Controller) SetWorkerCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.workerCount = n
}

// FailureReport returns the current run's accumulated rejections.
func (c *Controller) FailureReport() []Failure {
	c.mu.Lock()
	report := c.report
	c.mu.Unlock()
	return report.Snapshot()
}

// Running reports whether a run is in flight.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Abort terminates idle pools. If a run is active it refuses with
// ErrRunActive and leaves the run untouched.
func (c *Controller) Abort() error {
	if c.running.Load() {
		return ErrRunActive
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the mutex: Process flips running before it installs
	// the new stage under this same lock, so a start racing the check
	// above cannot have its fresh pool stopped out from under it.
	if c.running.Load() {
		return ErrRunActive
	}
	if c.build != nil {
		c.build.Stop()
		c.build = nil
	}
	return nil
}

// Process starts a run over items rooted at dir. It returns ErrRunActive
// if a run is already in flight, otherwise it returns immediately and
// reports progress through the callbacks: OnFilterDone once validation has
// resolved every item, then either OnBuildDone after the build queue
// drains, or OnError on a fatal stage error.
func (c *Controller) Process(ctx context.Context, names []string, dir string, opts Options, cb Callbacks) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunActive
	}

	// An empty batch still runs to completion: OnFilterDone fires, the
	// sentinels drain an empty queue, and OnBuildDone follows.
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{Name: name, Dir: dir}
	}

	c.mu.Lock()
	// A previous error-terminated run may have left idle workers behind.
	if c.build != nil {
		c.build.Stop()
	}
	c.report = NewFailureReport()
	report := c.report
	busy := func(int) {}
	if c.observer != nil {
		busy = c.observer.BuildWorkersBusy
	}
	build := StartBuildStage(ctx, c.action, BuildStageConfig{
		Workers:       c.workerCount,
		QueueCapacity: c.queueCap,
		Publish:       opts.Publish,
		Report:        report,
		Busy:          busy,
	}, c.logger.Named("build"))
	c.build = build
	validate := NewValidationStage(c.check, c.validateCap, c.logger.Named("filter"))
	observer := c.observer
	c.mu.Unlock()

	runID := uuid.New().String()
	log := c.logger.With(zap.String("run_id", runID))
	log.Info("starting checks",
		zap.Int("items", len(items)),
		zap.String("dir", dir),
		zap.Int("build_workers", build.Size()),
		zap.Bool("publish", opts.Publish))
	if observer != nil {
		observer.RunStarted(build.Size())
	}

	go c.run(ctx, items, validate, build, report, cb, observer, log)
	return nil
}

func (c *Controller) run(ctx context.Context, items []Item, validate *ValidationStage, build *BuildStage, report *FailureReport, cb Callbacks, observer Observer, log *zap.Logger) {
	start := time.Now()
	outcomes, errc := validate.Run(ctx, items)

	accepted := 0
	for out := range outcomes {
		if observer != nil {
			observer.ItemChecked(out.Accepted, out.Reason)
		}
		if out.Accepted {
			accepted++
			build.Submit(out.Item)
			continue
		}
		report.Append(out.Item, out.Reason)
	}

	if err := <-errc; err != nil {
		// Fatal stage error: build workers stay up but idle. The next
		// Process call, or an Abort, tears them down.
		log.Error("validation aborted", zap.Error(err))
		if observer != nil {
			observer.RunFinished(time.Since(start), err)
		}
		c.running.Store(false)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	log.Info("checks complete",
		zap.Int("accepted", accepted),
		zap.Int("rejected", report.Len()))
	build.Close()
	if cb.OnFilterDone != nil {
		cb.OnFilterDone()
	}
	build.CloseAndDrain()

	log.Info("build process done")
	if observer != nil {
		observer.RunFinished(time.Since(start), nil)
	}
	c.running.Store(false)
	if cb.OnBuildDone != nil {
		cb.OnBuildDone()
	}
}
