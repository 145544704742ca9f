package pipeline

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// BuildStage is a pool of persistent workers draining a shared joinable
// queue. Workers run for the whole lifetime of a run; each one exits only
// after observing exactly one shutdown sentinel, or immediately on Stop.
type BuildStage struct {
	queue   *Queue
	action  BuildAction
	report  *FailureReport
	logger  *zap.Logger
	busy    func(delta int)
	size    int
	publish bool

	stop     chan struct{}
	cancel   context.CancelFunc
	stopOnce sync.Once
	sentinel sync.Once
	wg       sync.WaitGroup
}

// BuildStageConfig configures a build stage for one run.
type BuildStageConfig struct {
	// Workers is the pool size; 0 selects runtime.NumCPU().
	Workers int
	// QueueCapacity bounds the build queue; 0 selects the queue default.
	QueueCapacity int
	// Publish is the per-run build option handed to the action.
	Publish bool
	// Report receives build-failed entries for non-zero action exits.
	Report *FailureReport
	// Busy, if set, is called with +1/-1 as workers pick up and finish items.
	Busy func(delta int)
}

// StartBuildStage creates the queue, spawns the workers, and returns the
// running stage.
func StartBuildStage(ctx context.Context, action BuildAction, cfg BuildStageConfig, logger *zap.Logger) *BuildStage {
	size := cfg.Workers
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	busy := cfg.Busy
	if busy == nil {
		busy = func(int) {}
	}
	stageCtx, cancel := context.WithCancel(ctx)
	s := &BuildStage{
		queue:   NewQueue(cfg.QueueCapacity),
		action:  action,
		report:  cfg.Report,
		logger:  logger,
		busy:    busy,
		size:    size,
		publish: cfg.Publish,
		stop:    make(chan struct{}),
		cancel:  cancel,
	}
	for i := 0; i < size; i++ {
		s.wg.Add(1)
		go s.worker(stageCtx, i)
	}
	return s
}

// Size returns the number of workers in the pool.
func (s *BuildStage) Size() int {
	return s.size
}

// Submit enqueues an accepted item for building. Blocks when the queue is
// at capacity.
func (s *BuildStage) Submit(it Item) {
	s.queue.Push(it)
}

// Close pushes exactly one shutdown sentinel per worker. No further
// Submit calls are allowed after Close. Idempotent.
func (s *BuildStage) Close() {
	s.sentinel.Do(func() {
		for i := 0; i < s.size; i++ {
			s.queue.PushShutdown()
		}
	})
}

// CloseAndDrain closes the stage and blocks until every submitted item and
// every sentinel has been acknowledged. Calling it again after completion
// is a no-op, not a second wait.
func (s *BuildStage) CloseAndDrain() {
	s.Close()
	s.queue.Join()
	s.cancel()
}

// Stop terminates all workers immediately, abandoning in-flight and queued
// items. The stage context is cancelled so a blocked external action is
// interrupted. Safe to call more than once.
func (s *BuildStage) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.cancel()
	})
	s.wg.Wait()
}

func (s *BuildStage) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.logger.With(zap.Int("worker", id))
	for {
		msg, ok := s.queue.Pop(s.stop)
		if !ok {
			log.Debug("build worker stopped")
			return
		}
		if msg.shutdown {
			s.queue.TaskDone()
			log.Debug("build worker draining complete")
			return
		}
		s.busy(1)
		log.Debug("building item", zap.String("item", msg.item.Name))
		if err := s.action.Build(ctx, msg.item, s.publish); err != nil {
			log.Warn("build failed", zap.String("item", msg.item.Name), zap.Error(err))
			if s.report != nil {
				s.report.Append(msg.item, ReasonBuildFailed)
			}
		} else {
			log.Info("built item", zap.String("item", msg.item.Name))
		}
		s.busy(-1)
		s.queue.TaskDone()
	}
}
