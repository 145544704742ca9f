package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type checkFunc func(ctx context.Context, item Item) (CheckResult, error)

func (f checkFunc) Check(ctx context.Context, item Item) (CheckResult, error) {
	return f(ctx, item)
}

func passAll(ctx context.Context, item Item) (CheckResult, error) {
	return CheckResult{Verdict: VerdictPass}, nil
}

func TestValidationPartitionsAllItems(t *testing.T) {
	check := checkFunc(func(_ context.Context, item Item) (CheckResult, error) {
		if strings.HasPrefix(item.Name, "bad") {
			return CheckResult{Verdict: VerdictFail, Reason: ReasonIntegrity}, nil
		}
		return CheckResult{Verdict: VerdictPass}, nil
	})

	items := []Item{
		{Name: "good-1"}, {Name: "bad-1"}, {Name: "good-2"},
		{Name: "bad-2"}, {Name: "good-3"},
	}
	stage := NewValidationStage(check, 3, nil)
	outcomes, errc := stage.Run(context.Background(), items)

	var accepted, rejected int
	seen := make(map[string]bool)
	for out := range outcomes {
		if seen[out.Item.Name] {
			t.Fatalf("item %s produced two outcomes", out.Item.Name)
		}
		seen[out.Item.Name] = true
		if out.Accepted {
			accepted++
		} else {
			rejected++
			if out.Reason != ReasonIntegrity {
				t.Fatalf("expected integrity reason, got %s", out.Reason)
			}
		}
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected stage error: %v", err)
	}
	if accepted+rejected != len(items) {
		t.Fatalf("accepted(%d)+rejected(%d) != items(%d)", accepted, rejected, len(items))
	}
	if accepted != 3 || rejected != 2 {
		t.Fatalf("expected 3 accepted / 2 rejected, got %d / %d", accepted, rejected)
	}
}

func TestValidationEmptyBatch(t *testing.T) {
	stage := NewValidationStage(checkFunc(passAll), 4, nil)
	outcomes, errc := stage.Run(context.Background(), nil)

	if _, open := <-outcomes; open {
		t.Fatal("outcome channel should close immediately for an empty batch")
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidationPoolBoundedByItemCount(t *testing.T) {
	var concurrent, peak atomic.Int32
	gate := make(chan struct{})
	check := checkFunc(func(_ context.Context, item Item) (CheckResult, error) {
		n := concurrent.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		concurrent.Add(-1)
		return CheckResult{Verdict: VerdictPass}, nil
	})

	stage := NewValidationStage(check, 16, nil)
	outcomes, errc := stage.Run(context.Background(), []Item{{Name: "a"}, {Name: "b"}})
	close(gate)
	for range outcomes {
	}
	<-errc

	if got := peak.Load(); got > 2 {
		t.Fatalf("pool exceeded item count: peak concurrency %d", got)
	}
}

func TestValidationIndeterminateIsFatal(t *testing.T) {
	check := checkFunc(func(_ context.Context, item Item) (CheckResult, error) {
		if item.Name == "garbled" {
			return CheckResult{Verdict: VerdictIndeterminate}, nil
		}
		return CheckResult{Verdict: VerdictPass}, nil
	})

	stage := NewValidationStage(check, 1, nil)
	outcomes, errc := stage.Run(context.Background(), []Item{{Name: "garbled"}, {Name: "fine"}})
	for range outcomes {
	}

	err := <-errc
	if err == nil {
		t.Fatal("expected fatal stage error")
	}
	var ind *IndeterminateError
	if !errors.As(err, &ind) {
		t.Fatalf("expected IndeterminateError, got %T", err)
	}
	if ind.Item != "garbled" {
		t.Fatalf("wrong item in error: %s", ind.Item)
	}
}

func TestValidationCheckErrorIsFatal(t *testing.T) {
	boom := errors.New("tool crashed")
	check := checkFunc(func(_ context.Context, item Item) (CheckResult, error) {
		return CheckResult{}, boom
	})

	stage := NewValidationStage(check, 2, nil)
	outcomes, errc := stage.Run(context.Background(), []Item{{Name: "a"}, {Name: "b"}})
	for range outcomes {
	}
	if err := <-errc; !errors.Is(err, boom) {
		t.Fatalf("expected wrapped tool error, got %v", err)
	}
}

func TestValidationSurfacesContextCancellation(t *testing.T) {
	gate := make(chan struct{})
	check := checkFunc(func(_ context.Context, _ Item) (CheckResult, error) {
		<-gate
		return CheckResult{Verdict: VerdictPass}, nil
	})

	items := []Item{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	stage := NewValidationStage(check, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	outcomes, errc := stage.Run(ctx, items)

	cancel()
	close(gate)
	for range outcomes {
	}
	err := <-errc
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from a cancelled stage, got %v", err)
	}
}
