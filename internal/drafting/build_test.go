package drafting

import (
	"context"
	"errors"
	"testing"

	"github.com/draftworks/batchd/internal/pipeline"
)

func TestBuildScriptSelection(t *testing.T) {
	var scripts []string
	tool := runnerFunc(func(_ context.Context, _, script string) ([]byte, error) {
		scripts = append(scripts, script)
		return nil, nil
	})

	build := NewScriptBuild(tool, "zipship.scr", "zipship_publish.scr", nopLogger())
	item := pipeline.Item{Name: "plan.dwg", Dir: "."}

	if err := build.Build(context.Background(), item, false); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := build.Build(context.Background(), item, true); err != nil {
		t.Fatalf("Build publish: %v", err)
	}

	want := []string{"zipship.scr", "zipship_publish.scr"}
	if len(scripts) != len(want) {
		t.Fatalf("ran %d scripts, want %d", len(scripts), len(want))
	}
	for i := range want {
		if scripts[i] != want[i] {
			t.Fatalf("script[%d] = %q, want %q", i, scripts[i], want[i])
		}
	}
}

func TestBuildSurfacesToolFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	tool := runnerFunc(func(context.Context, string, string) ([]byte, error) {
		return []byte("FATAL"), boom
	})

	build := NewScriptBuild(tool, "zipship.scr", "zipship_publish.scr", nopLogger())
	err := build.Build(context.Background(), pipeline.Item{Name: "plan.dwg"}, false)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped tool failure", err)
	}
}
