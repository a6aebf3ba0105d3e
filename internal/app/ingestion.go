package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-rotation/internal/ghost"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"

	"go.uber.org/zap"
)

const ghostSourcePrefix = "ghost:"

// ImportResult describes a recipe imported from a web page.
type ImportResult struct {
	Recipe  recipe.Recipe
	Created bool
	Post    *ghost.Post
}

// ImportRecipeFromURL clips a web page into the catalog. Clipping the same
// URL again updates the stored recipe through versioning. When publish is set
// and Ghost is configured the recipe is also posted to the blog.
func (a *App) ImportRecipeFromURL(ctx context.Context, url string, publish bool) (ImportResult, error) {
	if a.recipeClipper == nil {
		return ImportResult{}, ErrLLMDisabled
	}

	res, err := a.recipeClipper.ClipURL(ctx, url)
	a.recordMeta(ctx, res.Meta)
	if err != nil {
		return ImportResult{}, err
	}

	rec, created, err := a.upsertBySource(ctx, res.Recipe)
	if err != nil {
		return ImportResult{}, err
	}
	out := ImportResult{Recipe: rec, Created: created}

	if publish {
		if !a.recipeClipper.CanPublish() {
			return out, ErrGhostDisabled
		}
		post, err := a.recipeClipper.Publish(ctx, rec)
		if err != nil {
			return out, err
		}
		out.Post = post
	}
	return out, nil
}

// SyncReport counts what a Ghost sync did.
type SyncReport struct {
	Fetched   int
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Pruned    int
	Tokens    int
}

// SyncFromGhost fetches every post and extracts the new or edited ones into
// the catalog. With prune, recipes from posts that no longer exist are deleted.
func (a *App) SyncFromGhost(ctx context.Context, prune bool) (SyncReport, error) {
	if a.ghostClient == nil {
		return SyncReport{}, ErrGhostDisabled
	}
	if a.extractor == nil {
		return SyncReport{}, ErrLLMDisabled
	}

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}

	report := SyncReport{Fetched: len(posts)}
	a.logger.Info("Fetched recipe posts from Ghost", zap.Int("count", len(posts)))

	seen := make(map[string]struct{}, len(posts))
	extracted := 0
	for _, post := range posts {
		sourceID := ghostSourcePrefix + post.ID
		seen[sourceID] = struct{}{}

		existing, err := a.recipeRepo.GetBySourceID(ctx, sourceID)
		if err == nil && existing.UpdatedAt == post.UpdatedAt {
			a.logger.Debug("Recipe up-to-date, skipping", zap.String("title", post.Title))
			report.Unchanged++
			continue
		}

		if extracted > 0 && a.syncDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.syncDelay):
			}
		}
		extracted++

		res, err := a.extractor.ExtractRecipe(ctx, recipe.PostData{
			SourceID:  sourceID,
			SourceURL: post.URL,
			Title:     post.Title,
			UpdatedAt: post.UpdatedAt,
			Content:   post.HTML,
		})
		a.recordMeta(ctx, res.Meta)
		report.Tokens += res.Meta.Usage.Total()
		if err != nil {
			a.logger.Error("Failed to extract recipe", zap.String("title", post.Title), zap.Error(err))
			report.Failed++
			continue
		}

		_, created, err := a.upsertBySource(ctx, res.Recipe)
		if err != nil {
			a.logger.Error("Failed to save recipe", zap.String("title", post.Title), zap.Error(err))
			report.Failed++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	if prune {
		n, err := a.pruneGhostRecipes(ctx, seen)
		if err != nil {
			return report, err
		}
		report.Pruned = n
	}

	a.logger.Info("Ghost sync complete",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
		zap.Int("pruned", report.Pruned),
		zap.Int("tokens", report.Tokens))
	return report, nil
}

func (a *App) pruneGhostRecipes(ctx context.Context, seen map[string]struct{}) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, r := range recipes {
		if !strings.HasPrefix(r.SourceID, ghostSourcePrefix) {
			continue
		}
		if _, ok := seen[r.SourceID]; ok {
			continue
		}
		if err := a.recipeRepo.Delete(ctx, r.ID); err != nil {
			return pruned, err
		}
		a.logger.Info("Removed recipe of deleted post", zap.Int64("id", r.ID), zap.String("title", r.Title))
		pruned++
	}
	return pruned, nil
}

func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("Failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
