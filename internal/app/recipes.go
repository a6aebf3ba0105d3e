package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"

	"go.uber.org/zap"
)

// AddRecipe stores a new recipe at version 1 under a fresh ID.
func (a *App) AddRecipe(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addRecipe(ctx, r)
}

func (a *App) addRecipe(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	r.ID = a.ids.Next()
	r.Version = 1
	r.History = nil
	r.Normalize()
	if r.UpdatedAt == "" {
		r.UpdatedAt = a.now().UTC().Format(time.RFC3339)
	}
	if err := r.Validate(); err != nil {
		return recipe.Recipe{}, err
	}

	if err := a.recipeRepo.Save(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}
	a.logger.Info("Added recipe", zap.Int64("id", r.ID), zap.String("title", r.Title))
	return r, nil
}

// UpdateRecipe applies proposed on top of the stored recipe with the given ID.
// Changing ingredients or instructions bumps the version; planned meals keep
// the version they were pinned to. A nil rating keeps the stored one; use
// SetRecipeRating to clear it.
func (a *App) UpdateRecipe(ctx context.Context, id int64, proposed recipe.Recipe) (recipe.Recipe, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.recipeRepo.Get(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return a.applyUpdate(ctx, existing, proposed)
}

func (a *App) applyUpdate(ctx context.Context, existing, proposed recipe.Recipe) (recipe.Recipe, error) {
	proposed.Normalize()
	if err := proposed.Validate(); err != nil {
		return recipe.Recipe{}, err
	}
	// Fields an edit or re-import usually leaves blank stay as they were.
	if proposed.SourceID == "" {
		proposed.SourceID = existing.SourceID
	}
	if proposed.SourceURL == "" {
		proposed.SourceURL = existing.SourceURL
	}
	if proposed.Rating == nil {
		proposed.Rating = existing.Rating
	}
	if proposed.UpdatedAt == "" {
		proposed.UpdatedAt = a.now().UTC().Format(time.RFC3339)
	}

	updated := recipe.UpdateWithVersioning(existing, proposed)
	if err := a.recipeRepo.Save(ctx, updated); err != nil {
		return recipe.Recipe{}, err
	}
	if updated.Version != existing.CurrentVersion() {
		a.logger.Info("Recipe content changed",
			zap.Int64("id", updated.ID),
			zap.Int("from_version", existing.CurrentVersion()),
			zap.Int("to_version", updated.Version))
	}
	return updated, nil
}

// SetRecipeRating sets the household rating of a recipe, or clears it when
// rating is nil. Version and UpdatedAt are left alone, so a Ghost sync
// still sees the recipe as up to date.
func (a *App) SetRecipeRating(ctx context.Context, id int64, rating *float64) (recipe.Recipe, error) {
	if rating != nil && (*rating < planner.MinRating || *rating > planner.MaxRating) {
		return recipe.Recipe{}, fmt.Errorf("%w: %.1f", planner.ErrInvalidRating, *rating)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	r, err := a.recipeRepo.Get(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	r.Rating = rating
	if err := a.recipeRepo.Save(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

// upsertBySource updates the recipe imported from the same source, or adds it.
func (a *App) upsertBySource(ctx context.Context, r recipe.Recipe) (rec recipe.Recipe, created bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.SourceID != "" {
		existing, err := a.recipeRepo.GetBySourceID(ctx, r.SourceID)
		switch {
		case err == nil:
			updated, err := a.applyUpdate(ctx, existing, r)
			return updated, false, err
		case !errors.Is(err, recipe.ErrNotFound):
			return recipe.Recipe{}, false, err
		}
	}
	added, err := a.addRecipe(ctx, r)
	return added, true, err
}

// Recipes lists the catalog.
func (a *App) Recipes(ctx context.Context) ([]recipe.Recipe, error) {
	return a.recipeRepo.List(ctx)
}

// Recipe fetches one recipe.
func (a *App) Recipe(ctx context.Context, id int64) (recipe.Recipe, error) {
	return a.recipeRepo.Get(ctx, id)
}

// DeleteRecipe removes a recipe from the catalog. Meals already planned with
// it stay in the plan and drop out of shopping lists.
func (a *App) DeleteRecipe(ctx context.Context, id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.recipeRepo.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.Info("Deleted recipe", zap.Int64("id", id))
	return nil
}
