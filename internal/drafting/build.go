package drafting

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/draftworks/batchd/internal/logging"
	"github.com/draftworks/batchd/internal/pipeline"
)

// ScriptBuild builds a drawing by running one of two console scripts: the
// plain packaging script, or the publish variant that additionally plots a
// PDF set.
type ScriptBuild struct {
	tool          Runner
	buildScript   string
	publishScript string
	logger        *logging.Logger
}

// NewScriptBuild creates a build action over the two script variants.
func NewScriptBuild(tool Runner, buildScript, publishScript string, logger *logging.Logger) *ScriptBuild {
	return &ScriptBuild{
		tool:          tool,
		buildScript:   buildScript,
		publishScript: publishScript,
		logger:        logger,
	}
}

// Build implements pipeline.BuildAction. The publish flag selects the
// script variant. A non-zero tool exit comes back as an error so the stage
// can record the item as build-failed.
func (b *ScriptBuild) Build(ctx context.Context, item pipeline.Item, publish bool) error {
	script := b.buildScript
	if publish {
		script = b.publishScript
	}

	b.logger.Debug("Building drawing",
		zap.String("item", item.Name),
		zap.String("script", script))

	drawing := filepath.Join(item.Dir, item.Name)
	if _, err := b.tool.Run(ctx, drawing, script); err != nil {
		return fmt.Errorf("build %s: %w", item.Name, err)
	}

	b.logger.Info("Built drawing", zap.String("item", item.Name))
	return nil
}
