package drafting

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/pipeline"
)

// xrefPattern matches the console tool's external-reference summary line.
var xrefPattern = regexp.MustCompile(`Total Xref\(s\):\s*(\d+)`)

// sanitizer strips the NUL and backspace noise the console tool interleaves
// with its text output, plus carriage returns.
var sanitizer = strings.NewReplacer("\x00", "", "\b", "", "\r", "")

// XrefCheck validates a drawing by running a script through the console
// tool and parsing the reported external-reference count. A drawing with
// unresolved xrefs would produce a broken build, so any count above zero
// rejects it. A companion .dwl lock file means another session holds the
// drawing open; those are rejected without running the tool at all.
type XrefCheck struct {
	tool   Runner
	script string
	logger *logging.Logger
}

// NewXrefCheck creates a check that runs script via tool.
func NewXrefCheck(tool Runner, script string, logger *logging.Logger) *XrefCheck {
	return &XrefCheck{tool: tool, script: script, logger: logger}
}

// Check implements pipeline.ItemCheck.
func (c *XrefCheck) Check(ctx context.Context, item pipeline.Item) (pipeline.CheckResult, error) {
	drawing := filepath.Join(item.Dir, item.Name)

	locked, err := hasLockFile(drawing)
	if err != nil {
		return pipeline.CheckResult{}, fmt.Errorf("lock scan for %s: %w", item.Name, err)
	}
	if locked {
		c.logger.Warn("Drawing is locked by another session",
			zap.String("item", item.Name))
		return pipeline.CheckResult{Verdict: pipeline.VerdictFail, Reason: pipeline.ReasonLocked}, nil
	}

	out, err := c.tool.Run(ctx, drawing, c.script)
	if err != nil {
		return pipeline.CheckResult{}, err
	}

	count, ok := parseXrefCount(out)
	if !ok {
		c.logger.Error("Console output missing xref summary",
			zap.String("item", item.Name))
		return pipeline.CheckResult{Verdict: pipeline.VerdictIndeterminate}, nil
	}
	if count > 0 {
		c.logger.Warn("Drawing has unresolved external references",
			zap.String("item", item.Name),
			zap.Int("xrefs", count))
		return pipeline.CheckResult{Verdict: pipeline.VerdictFail, Reason: pipeline.ReasonIntegrity}, nil
	}

	c.logger.Debug("Drawing passed check", zap.String("item", item.Name))
	return pipeline.CheckResult{Verdict: pipeline.VerdictPass}, nil
}

// hasLockFile reports whether a .dwl companion file sits next to the
// drawing. The tool writes .dwl and .dwl2 variants while a session is open.
func hasLockFile(drawing string) (bool, error) {
	stem := strings.TrimSuffix(drawing, filepath.Ext(drawing))
	matches, err := doublestar.FilepathGlob(stem + ".dwl*")
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// parseXrefCount extracts the xref count from raw console output.
func parseXrefCount(out []byte) (int, bool) {
	clean := sanitizer.Replace(string(out))
	m := xrefPattern.FindStringSubmatch(clean)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
