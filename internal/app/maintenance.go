package app

import (
	"context"

	"meal-rotation/internal/metrics"

	"go.uber.org/zap"
)

// Backup writes every recipe, history included, to the backup directory.
func (a *App) Backup(ctx context.Context) (int, error) {
	if a.backups == nil {
		return 0, ErrBackupsDisabled
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range recipes {
		if err := a.backups.Save(r); err != nil {
			return 0, err
		}
	}
	a.logger.Info("Backed up recipes", zap.Int("count", len(recipes)))
	return len(recipes), nil
}

// Restore loads the newest backup of every recipe back into the catalog,
// keeping IDs, versions and history.
func (a *App) Restore(ctx context.Context) (int, error) {
	if a.backups == nil {
		return 0, ErrBackupsDisabled
	}
	recipes, err := a.backups.LoadAll()
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	restored := 0
	for _, r := range recipes {
		if err := r.Validate(); err != nil {
			a.logger.Warn("Skipping invalid backup", zap.Int64("id", r.ID), zap.Error(err))
			continue
		}
		if err := a.recipeRepo.Save(ctx, r); err != nil {
			return restored, err
		}
		restored++
	}
	a.logger.Info("Restored recipes", zap.Int("count", restored))
	return restored, nil
}

// DailyUsage reports extractor token usage for the last days.
func (a *App) DailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics drops metrics older than the given number of days.
func (a *App) CleanupMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, olderThanDays)
}

// SysHealth reports process memory, database size and backup usage.
func (a *App) SysHealth() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.DatabasePath, a.cfg.BackupPath)
}
