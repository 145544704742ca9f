package drafting

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Runner executes one console-tool script against one drawing and returns
// the tool's combined output.
type Runner interface {
	Run(ctx context.Context, drawing, script string) ([]byte, error)
}

// ConsoleTool invokes the native drafting console executable with a drawing
// and a script file. The tool renders no UI; everything it reports comes
// back on stdout.
type ConsoleTool struct {
	exe       string
	scriptDir string
}

// NewConsoleTool resolves the console executable and script directory.
// An empty exe falls back to PATH lookup of "accoreconsole".
func NewConsoleTool(exe, scriptDir string) (*ConsoleTool, error) {
	if exe == "" {
		found, err := exec.LookPath("accoreconsole")
		if err != nil {
			return nil, fmt.Errorf("console tool not found in PATH: %w", err)
		}
		exe = found
	}
	return &ConsoleTool{exe: exe, scriptDir: scriptDir}, nil
}

// Run executes the tool as `exe /i <drawing> /s <script>` and returns its
// combined output. The output is returned even when the tool exits non-zero
// so callers can surface it in diagnostics.
func (t *ConsoleTool) Run(ctx context.Context, drawing, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.exe,
		"/i", drawing,
		"/s", filepath.Join(t.scriptDir, script),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("console tool %s on %s: %w", script, filepath.Base(drawing), err)
	}
	return out, nil
}
