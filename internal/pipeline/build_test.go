package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type actionFunc func(ctx context.Context, item Item, publish bool) error

func (f actionFunc) Build(ctx context.Context, item Item, publish bool) error {
	return f(ctx, item, publish)
}

func TestBuildStageDrainsAllItems(t *testing.T) {
	var mu sync.Mutex
	built := make(map[string]int)
	action := actionFunc(func(_ context.Context, item Item, _ bool) error {
		mu.Lock()
		built[item.Name]++
		mu.Unlock()
		return nil
	})

	stage := StartBuildStage(context.Background(), action, BuildStageConfig{Workers: 3}, nil)
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		stage.Submit(Item{Name: n})
	}
	stage.CloseAndDrain()

	mu.Lock()
	defer mu.Unlock()
	for _, n := range names {
		if built[n] != 1 {
			t.Fatalf("item %s built %d times, want exactly once", n, built[n])
		}
	}
}

func TestBuildStageSentinelPerWorker(t *testing.T) {
	action := actionFunc(func(context.Context, Item, bool) error { return nil })
	stage := StartBuildStage(context.Background(), action, BuildStageConfig{Workers: 4}, nil)

	stage.CloseAndDrain()
	// Every worker consumed its sentinel and exited; a second drain must
	// return immediately.
	done := make(chan struct{})
	go func() {
		stage.CloseAndDrain()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second CloseAndDrain blocked")
	}
	if got := stage.queue.Pending(); got != 0 {
		t.Fatalf("pending after drain = %d, want 0", got)
	}
}

func TestBuildStagePublishFlagForwarded(t *testing.T) {
	got := make(chan bool, 1)
	action := actionFunc(func(_ context.Context, _ Item, publish bool) error {
		got <- publish
		return nil
	})
	stage := StartBuildStage(context.Background(), action, BuildStageConfig{Workers: 1, Publish: true}, nil)
	stage.Submit(Item{Name: "a"})
	stage.CloseAndDrain()
	if !<-got {
		t.Fatal("publish flag not forwarded to the build action")
	}
}

func TestBuildStageFailureRecorded(t *testing.T) {
	report := NewFailureReport()
	action := actionFunc(func(_ context.Context, item Item, _ bool) error {
		if item.Name == "broken" {
			return errors.New("exit status 1")
		}
		return nil
	})

	stage := StartBuildStage(context.Background(), action, BuildStageConfig{Workers: 2, Report: report}, nil)
	stage.Submit(Item{Name: "ok"})
	stage.Submit(Item{Name: "broken"})
	stage.CloseAndDrain()

	failures := report.Snapshot()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Item != "broken" || failures[0].Reason != ReasonBuildFailed {
		t.Fatalf("unexpected failure entry: %+v", failures[0])
	}
}

func TestBuildStageStopAbandonsQueued(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	built := 0
	action := actionFunc(func(ctx context.Context, _ Item, _ bool) error {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		mu.Lock()
		built++
		mu.Unlock()
		return nil
	})

	stage := StartBuildStage(context.Background(), action, BuildStageConfig{Workers: 1, QueueCapacity: 8}, nil)
	stage.Submit(Item{Name: "in-flight"})
	stage.Submit(Item{Name: "queued-1"})
	stage.Submit(Item{Name: "queued-2"})

	<-started
	stage.Stop()
	close(release)

	mu.Lock()
	defer mu.Unlock()
	if built > 1 {
		t.Fatalf("Stop allowed %d builds, want at most the in-flight one", built)
	}
}

func TestBuildStageDefaultSize(t *testing.T) {
	action := actionFunc(func(context.Context, Item, bool) error { return nil })
	stage := StartBuildStage(context.Background(), action, BuildStageConfig{}, nil)
	if stage.Size() < 1 {
		t.Fatalf("default pool size must be at least 1, got %d", stage.Size())
	}
	stage.CloseAndDrain()
}
