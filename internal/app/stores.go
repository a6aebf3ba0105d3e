package app

import (
	"context"
	"time"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shopping"
)

// RecipeStore persists the recipe catalog.
type RecipeStore interface {
	Save(ctx context.Context, r recipe.Recipe) error
	Get(ctx context.Context, id int64) (recipe.Recipe, error)
	GetBySourceID(ctx context.Context, sourceID string) (recipe.Recipe, error)
	List(ctx context.Context) ([]recipe.Recipe, error)
	Delete(ctx context.Context, id int64) error
}

// PlanStore persists planned meals.
type PlanStore interface {
	Save(ctx context.Context, it planner.Item) error
	Get(ctx context.Context, id int64) (planner.Item, error)
	List(ctx context.Context) ([]planner.Item, error)
	ListRange(ctx context.Context, from, to time.Time) ([]planner.Item, error)
	Delete(ctx context.Context, id int64) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ShoppingStore persists the shopping list in display order.
type ShoppingStore interface {
	List(ctx context.Context) ([]shopping.Item, error)
	Get(ctx context.Context, id int64) (shopping.Item, error)
	Save(ctx context.Context, it shopping.Item) error
	SaveAt(ctx context.Context, it shopping.Item, position int) error
	SetChecked(ctx context.Context, id int64, checked bool) error
	Delete(ctx context.Context, id int64) error
	DeleteChecked(ctx context.Context) (int64, error)
}

// StapleStore persists user-added pantry staple patterns.
type StapleStore interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, pattern string) error
	Remove(ctx context.Context, pattern string) error
}

var (
	_ RecipeStore   = (*recipe.Repository)(nil)
	_ PlanStore     = (*planner.PlanRepository)(nil)
	_ ShoppingStore = (*shopping.Repository)(nil)
	_ StapleStore   = (*shopping.StapleRepository)(nil)
)
