package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/ignoromenot/internal/cache"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/source"
	"go.uber.org/zap"
)

// openSession loads both artifacts named in cfg and returns the session with its
// unfiltered view
func openSession(ctx context.Context, cfg *model.Config) (*pipeline.Session, *model.Snapshot, error) {
	if cfg.Source.ProteinsPath == "" || cfg.Source.MentionsPath == "" {
		return nil, nil, fmt.Errorf("both --proteins and --mentions are required")
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Proteins: %s\n", cfg.Source.ProteinsPath)
		fmt.Fprintf(os.Stderr, "Mentions: %s\n", cfg.Source.MentionsPath)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	loader := source.NewLoader(cfg, cache.New(cfg.Cache), logger)
	p := pipeline.NewPipeline(cfg, logger)
	session := pipeline.NewSession(p, loader, logger)

	snapshot, err := session.Load(ctx, cfg.Source.ProteinsPath, cfg.Source.MentionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load failed: %w", err)
	}

	logger.Debug("sources loaded",
		zap.String("fingerprint", snapshot.Source.Fingerprint),
		zap.Int("proteins", snapshot.Source.Proteins),
		zap.Int("orphans", snapshot.Source.Orphans))

	return session, snapshot, nil
}
