package app

import (
	"context"
	"fmt"

	"meal-rotation/internal/config"
	"meal-rotation/internal/database"
	"meal-rotation/internal/ghost"
	"meal-rotation/internal/llm"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/storage"

	"go.uber.org/zap"
)

// Open wires an App from configuration: the database, plus the LLM extractor,
// the Ghost client and file backups when their settings are present.
// The returned func releases everything Open acquired.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers := []func(){func() { db.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var wired []Option
	if err := cfg.RequireLLM(); err == nil {
		textGen, err := llm.NewTextGenerator(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		if c, ok := textGen.(llm.Closer); ok {
			closers = append(closers, func() { c.Close() })
		}
		wired = append(wired, WithExtractor(recipe.NewExtractor(textGen)))
	} else {
		logger.Debug("recipe extraction disabled", zap.Error(err))
	}

	if err := cfg.RequireGhost(); err == nil {
		wired = append(wired, WithGhost(ghost.NewClient(cfg)))
	} else {
		logger.Debug("ghost integration disabled", zap.Error(err))
	}

	if cfg.BackupPath != "" {
		store, err := storage.NewRecipeStore(cfg.BackupPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize backup store: %w", err)
		}
		wired = append(wired, WithBackups(store))
	}

	a := NewApp(cfg, logger, db, append(wired, opts...)...)
	return a, cleanup, nil
}
