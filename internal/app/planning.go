package app

import (
	"context"
	"fmt"
	"time"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"

	"go.uber.org/zap"
)

// PlannedMeal is a plan item together with the recipe content it is pinned to.
// Deleted is set when the recipe no longer exists.
type PlannedMeal struct {
	Item    planner.Item
	Title   string
	Content recipe.Snapshot
	Deleted bool
}

// FillWindow plans every open day of the window starting at start and
// returns the new items. An empty catalog plans nothing. A failed save stops
// the batch; the items stored before it are returned with the error.
func (a *App) FillWindow(ctx context.Context, start time.Time) ([]planner.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		a.logger.Warn("No recipes in the catalog, nothing to plan")
		return nil, nil
	}

	added := a.generator.FillWindow(plan, recipes, start)
	for i, it := range added {
		if err := a.planRepo.Save(ctx, it); err != nil {
			return added[:i], fmt.Errorf("failed to save meal for %s: %w", planner.DateKey(it.Date), err)
		}
	}
	a.logger.Info("Filled plan window",
		zap.String("start", planner.DateKey(planner.DateOf(start))),
		zap.Int("added", len(added)))
	return added, nil
}

// Plan returns the meals dated within [from, to]; a zero bound is open.
func (a *App) Plan(ctx context.Context, from, to time.Time) ([]PlannedMeal, error) {
	plan, err := a.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := recipe.Index(recipes)

	var out []PlannedMeal
	for _, it := range plan {
		if !it.InRange(from, to) {
			continue
		}
		meal := PlannedMeal{Item: it}
		if r, ok := byID[it.RecipeID]; ok {
			meal.Content = recipe.ResolveContent(r, it.RecipeVersion)
			meal.Title = meal.Content.Title
		} else {
			meal.Deleted = true
			meal.Title = fmt.Sprintf("deleted recipe #%d", it.RecipeID)
		}
		out = append(out, meal)
	}
	return out, nil
}

// Reroll replaces the recipe of one planned meal with a fresh pick for the
// same day and pins the new recipe's current version. Another recipe is chosen
// whenever the catalog has more than one.
func (a *App) Reroll(ctx context.Context, itemID int64) (planner.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item, err := a.planRepo.Get(ctx, itemID)
	if err != nil {
		return planner.Item{}, err
	}
	plan, err := a.planRepo.List(ctx)
	if err != nil {
		return planner.Item{}, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return planner.Item{}, err
	}

	others := make([]planner.Item, 0, len(plan))
	for _, it := range plan {
		if it.ID != itemID {
			others = append(others, it)
		}
	}
	candidates := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.ID != item.RecipeID {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		candidates = recipes
	}

	best, ok := a.generator.Pick(others, candidates, item.Date)
	if !ok {
		return planner.Item{}, planner.ErrEmptyCatalog
	}

	item.RecipeID = best.ID
	item.RecipeVersion = best.CurrentVersion()
	item.Rating = nil
	item.RatingComment = ""
	item.IsCooked = false
	if err := a.planRepo.Save(ctx, item); err != nil {
		return planner.Item{}, err
	}
	a.logger.Info("Rerolled meal",
		zap.Int64("item_id", item.ID),
		zap.String("date", planner.DateKey(item.Date)),
		zap.String("recipe", best.Title))
	return item, nil
}

// RateMeal records a 1 to 5 rating for a planned meal.
func (a *App) RateMeal(ctx context.Context, itemID int64, rating float64, comment string) (planner.Item, error) {
	return a.updateItem(ctx, itemID, func(it *planner.Item) error {
		return it.Rate(rating, comment)
	})
}

// MarkCooked sets whether a planned meal was cooked.
func (a *App) MarkCooked(ctx context.Context, itemID int64, cooked bool) (planner.Item, error) {
	return a.updateItem(ctx, itemID, func(it *planner.Item) error {
		it.IsCooked = cooked
		return nil
	})
}

// MoveMeal moves a planned meal to another day. The day must be free.
func (a *App) MoveMeal(ctx context.Context, itemID int64, date time.Time) (planner.Item, error) {
	date = planner.DateOf(date)

	a.mu.Lock()
	defer a.mu.Unlock()

	taken, err := a.planRepo.ListRange(ctx, date, date)
	if err != nil {
		return planner.Item{}, err
	}
	for _, other := range taken {
		if other.ID != itemID {
			return planner.Item{}, fmt.Errorf("%w: %s", ErrDayTaken, planner.DateKey(date))
		}
	}
	return a.mutateItem(ctx, itemID, func(it *planner.Item) error {
		it.Date = date
		return nil
	})
}

// SetServings overrides how many people a planned meal feeds. Zero goes back
// to the recipe default.
func (a *App) SetServings(ctx context.Context, itemID int64, servings int) (planner.Item, error) {
	if servings < 0 {
		return planner.Item{}, fmt.Errorf("%w: %d", planner.ErrInvalidServing, servings)
	}
	return a.updateItem(ctx, itemID, func(it *planner.Item) error {
		if servings == 0 {
			it.Servings = nil
			return nil
		}
		it.Servings = &servings
		return nil
	})
}

func (a *App) updateItem(ctx context.Context, itemID int64, mutate func(*planner.Item) error) (planner.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mutateItem(ctx, itemID, mutate)
}

// mutateItem loads, changes and stores one item. The caller holds a.mu.
func (a *App) mutateItem(ctx context.Context, itemID int64, mutate func(*planner.Item) error) (planner.Item, error) {
	item, err := a.planRepo.Get(ctx, itemID)
	if err != nil {
		return planner.Item{}, err
	}
	if err := mutate(&item); err != nil {
		return planner.Item{}, err
	}
	if err := a.planRepo.Save(ctx, item); err != nil {
		return planner.Item{}, err
	}
	return item, nil
}

// ClearHistory deletes meals dated before the given day.
func (a *App) ClearHistory(ctx context.Context, before time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.planRepo.DeleteBefore(ctx, planner.DateOf(before))
	if err != nil {
		return 0, err
	}
	a.logger.Info("Cleared plan history",
		zap.String("before", planner.DateKey(planner.DateOf(before))),
		zap.Int64("removed", n))
	return n, nil
}

// Stats summarizes how often each recipe was planned, cooked and rated.
func (a *App) Stats(ctx context.Context) ([]planner.RecipeStats, error) {
	plan, err := a.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return planner.Summarize(plan, recipes), nil
}
