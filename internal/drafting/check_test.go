package drafting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/pipeline"
)

type runnerFunc func(ctx context.Context, drawing, script string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, drawing, script string) ([]byte, error) {
	return f(ctx, drawing, script)
}

func nopLogger() *logging.Logger {
	return &logging.Logger{Logger: zap.NewNop()}
}

func fixedOutput(out string) Runner {
	return runnerFunc(func(context.Context, string, string) ([]byte, error) {
		return []byte(out), nil
	})
}

func TestParseXrefCount(t *testing.T) {
	cases := []struct {
		name  string
		out   string
		count int
		ok    bool
	}{
		{"zero", "Regenerating model.\nTotal Xref(s): 0\n", 0, true},
		{"nonzero", "Total Xref(s): 3", 3, true},
		{"noisy", "\x00\x00Tot\bal Xref(s):\x00 2\r\n", 2, true},
		{"missing", "Regenerating model.\n", 0, false},
		{"empty", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count, ok := parseXrefCount([]byte(tc.out))
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if count != tc.count {
				t.Fatalf("count = %d, want %d", count, tc.count)
			}
		})
	}
}

func TestCheckVerdicts(t *testing.T) {
	dir := t.TempDir()
	item := pipeline.Item{Name: "plan.dwg", Dir: dir}

	cases := []struct {
		name    string
		out     string
		verdict pipeline.Verdict
		reason  pipeline.RejectReason
	}{
		{"clean", "Total Xref(s): 0", pipeline.VerdictPass, ""},
		{"unresolved", "Total Xref(s): 2", pipeline.VerdictFail, pipeline.ReasonIntegrity},
		{"garbled", "no summary here", pipeline.VerdictIndeterminate, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := NewXrefCheck(fixedOutput(tc.out), "test_xrefs.scr", nopLogger())
			res, err := check.Check(context.Background(), item)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Verdict != tc.verdict {
				t.Fatalf("verdict = %v, want %v", res.Verdict, tc.verdict)
			}
			if res.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", res.Reason, tc.reason)
			}
		})
	}
}

func TestCheckLockedDrawing(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plan.dwg", "plan.dwl"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ran := false
	tool := runnerFunc(func(context.Context, string, string) ([]byte, error) {
		ran = true
		return []byte("Total Xref(s): 0"), nil
	})

	check := NewXrefCheck(tool, "test_xrefs.scr", nopLogger())
	res, err := check.Check(context.Background(), pipeline.Item{Name: "plan.dwg", Dir: dir})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Verdict != pipeline.VerdictFail || res.Reason != pipeline.ReasonLocked {
		t.Fatalf("got %+v, want locked rejection", res)
	}
	if ran {
		t.Fatal("console tool ran for a locked drawing")
	}
}

func TestCheckLockVariants(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plan.dwg", "plan.dwl2"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	check := NewXrefCheck(fixedOutput("Total Xref(s): 0"), "test_xrefs.scr", nopLogger())
	res, err := check.Check(context.Background(), pipeline.Item{Name: "plan.dwg", Dir: dir})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Reason != pipeline.ReasonLocked {
		t.Fatalf("reason = %q, want locked", res.Reason)
	}
}
