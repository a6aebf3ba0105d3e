package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shopping"

	"go.uber.org/zap"
)

// Scope selects the part of the plan a shopping list is built for.
// Zero dates are open bounds. Cooked meals are skipped unless IncludeCooked.
type Scope struct {
	From          time.Time
	To            time.Time
	IncludeCooked bool
}

func (s Scope) includes(it planner.Item) bool {
	if !s.IncludeCooked && it.IsCooked {
		return false
	}
	return it.InRange(s.From, s.To)
}

// RefreshShoppingList recomputes the generated lines of the shopping list
// from the plan in scope and stores the result in list order. A failed save
// stops the batch; the lines stored before it are returned with the error.
// Stale lines are removed before any line is saved, so a failure while
// removing them returns no lines.
func (a *App) RefreshShoppingList(ctx context.Context, scope Scope) ([]shopping.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	previous, err := a.shoppingRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := a.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	staples, err := a.staples(ctx)
	if err != nil {
		return nil, err
	}

	var inScope []planner.Item
	for _, it := range plan {
		if scope.includes(it) {
			inScope = append(inScope, it)
		}
	}

	next := a.aggregator.Aggregate(previous, inScope, recipes, staples)

	keep := make(map[int64]struct{}, len(next))
	for _, it := range next {
		keep[it.ID] = struct{}{}
	}
	for _, it := range previous {
		if _, ok := keep[it.ID]; ok {
			continue
		}
		if err := a.shoppingRepo.Delete(ctx, it.ID); err != nil {
			return nil, err
		}
	}
	for i, it := range next {
		if err := a.shoppingRepo.SaveAt(ctx, it, i+1); err != nil {
			return next[:i], fmt.Errorf("failed to save shopping line %q: %w", it.Name, err)
		}
	}

	a.logger.Info("Refreshed shopping list",
		zap.Int("meals", len(inScope)),
		zap.Int("lines", len(next)))
	return next, nil
}

// staples merges the configured staples with the stored ones.
func (a *App) staples(ctx context.Context) ([]string, error) {
	stored, err := a.stapleRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(a.cfg.PantryStaples)+len(stored))
	out = append(out, a.cfg.PantryStaples...)
	return append(out, stored...), nil
}

// ShoppingList returns the stored list in display order.
func (a *App) ShoppingList(ctx context.Context) ([]shopping.Item, error) {
	return a.shoppingRepo.List(ctx)
}

// AddManualItem appends a user-owned line that refreshes never touch.
func (a *App) AddManualItem(ctx context.Context, name string, quantity float64, unit string, category recipe.Category) (shopping.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return shopping.Item{}, recipe.ErrIngredientName
	}
	if quantity < 0 {
		return shopping.Item{}, fmt.Errorf("%w: %s", recipe.ErrNegativeQuantity, name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	it := shopping.NewManualItem(a.ids.Next(), name, quantity, strings.TrimSpace(unit), recipe.ParseCategory(string(category)))
	if err := a.shoppingRepo.Save(ctx, it); err != nil {
		return shopping.Item{}, err
	}
	return it, nil
}

// ToggleItem flips the checked flag of a line.
func (a *App) ToggleItem(ctx context.Context, id int64) (shopping.Item, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	it, err := a.shoppingRepo.Get(ctx, id)
	if err != nil {
		return shopping.Item{}, err
	}
	it.Checked = !it.Checked
	if err := a.shoppingRepo.SetChecked(ctx, id, it.Checked); err != nil {
		return shopping.Item{}, err
	}
	return it, nil
}

// DeleteShoppingItem removes one line.
func (a *App) DeleteShoppingItem(ctx context.Context, id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shoppingRepo.Delete(ctx, id)
}

// ClearChecked removes every checked line.
func (a *App) ClearChecked(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shoppingRepo.DeleteChecked(ctx)
}

// Staples lists the stored staple patterns. Configured staples are not included.
func (a *App) Staples(ctx context.Context) ([]string, error) {
	return a.stapleRepo.List(ctx)
}

// AddStaple stores a staple pattern after checking it compiles.
func (a *App) AddStaple(ctx context.Context, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if err := shopping.ValidateStaple(pattern); err != nil {
		return err
	}
	return a.stapleRepo.Add(ctx, pattern)
}

// RemoveStaple deletes a stored staple pattern.
func (a *App) RemoveStaple(ctx context.Context, pattern string) error {
	return a.stapleRepo.Remove(ctx, strings.TrimSpace(pattern))
}
