package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// failingPlanStore fails the failAt-th Save and passes every other call through.
type failingPlanStore struct {
	PlanStore
	saves  int
	failAt int
}

func (s *failingPlanStore) Save(ctx context.Context, it planner.Item) error {
	s.saves++
	if s.saves == s.failAt {
		return errDiskFull
	}
	return s.PlanStore.Save(ctx, it)
}

// failingShoppingStore fails the failAt-th SaveAt.
type failingShoppingStore struct {
	ShoppingStore
	saves  int
	failAt int
}

func (s *failingShoppingStore) SaveAt(ctx context.Context, it shopping.Item, position int) error {
	s.saves++
	if s.saves == s.failAt {
		return errDiskFull
	}
	return s.ShoppingStore.SaveAt(ctx, it, position)
}

func TestFillWindow_SaveFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plans := &failingPlanStore{PlanStore: planner.NewPlanRepository(db.SQL), failAt: 3}
	a := newTestAppOn(t, db, WithPlanStore(plans))

	_, err := a.AddRecipe(ctx, simple("A"))
	require.NoError(t, err)

	added, err := a.FillWindow(ctx, today)
	require.ErrorIs(t, err, errDiskFull)
	require.Len(t, added, 2, "the meals saved before the failure are returned")
	assert.Equal(t, day(0), added[0].Date)
	assert.Equal(t, day(1), added[1].Date)

	meals, err := a.Plan(ctx, day(0), day(6))
	require.NoError(t, err)
	require.Len(t, meals, 2)
	for i, m := range meals {
		assert.Equal(t, added[i].ID, m.Item.ID)
	}

	rest, err := a.FillWindow(ctx, today)
	require.NoError(t, err)
	assert.Len(t, rest, 5, "a retry fills the remaining days")
}

func TestRefreshShoppingList_SaveFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	lines := &failingShoppingStore{ShoppingStore: shopping.NewRepository(db.SQL), failAt: 2}
	a := newTestAppOn(t, db, WithShoppingStore(lines))

	for _, title := range []string{"A", "B", "C"} {
		_, err := a.AddRecipe(ctx, simple(title))
		require.NoError(t, err)
	}
	_, err := a.FillWindow(ctx, today)
	require.NoError(t, err)

	list, err := a.RefreshShoppingList(ctx, Scope{})
	require.ErrorIs(t, err, errDiskFull)
	require.Len(t, list, 1)

	stored, err := a.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, stored)

	list, err = a.RefreshShoppingList(ctx, Scope{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestMoveMeal_Concurrent(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	_, err := a.AddRecipe(ctx, simple("A"))
	require.NoError(t, err)
	added, err := a.FillWindow(ctx, today)
	require.NoError(t, err)
	require.Len(t, added, 7)

	target := day(20)
	errs := make([]error, len(added))
	var wg sync.WaitGroup
	for i, it := range added {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = a.MoveMeal(ctx, it.ID, target)
		}()
	}
	wg.Wait()

	moved := 0
	for _, err := range errs {
		if err == nil {
			moved++
			continue
		}
		assert.ErrorIs(t, err, ErrDayTaken)
	}
	assert.Equal(t, 1, moved, "only one meal can take a free day")

	meals, err := a.Plan(ctx, target, target)
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func TestUpdateRecipe_Concurrent(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	r, err := a.AddRecipe(ctx, stew(1))
	require.NoError(t, err)

	const edits = 8
	var wg sync.WaitGroup
	for i := range edits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.UpdateRecipe(ctx, r.ID, stew(float64(i+2)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := a.Recipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, edits+1, got.Version, "no edit is lost")
	assert.Len(t, got.History, edits)
}

func TestSetRecipeRating(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	rated := stew(1)
	four := 4.0
	rated.Rating = &four
	r, err := a.AddRecipe(ctx, rated)
	require.NoError(t, err)

	updated, err := a.UpdateRecipe(ctx, r.ID, stew(1))
	require.NoError(t, err)
	require.NotNil(t, updated.Rating, "an edit without a rating keeps the stored one")
	assert.Equal(t, 4.0, *updated.Rating)

	cleared, err := a.SetRecipeRating(ctx, r.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Rating)
	assert.Equal(t, 1, cleared.Version)

	got, err := a.Recipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
	assert.Equal(t, r.UpdatedAt, got.UpdatedAt)

	two := 2.0
	got, err = a.SetRecipeRating(ctx, r.ID, &two)
	require.NoError(t, err)
	assert.Equal(t, 2.0, *got.Rating)

	six := 6.0
	_, err = a.SetRecipeRating(ctx, r.ID, &six)
	assert.ErrorIs(t, err, planner.ErrInvalidRating)

	_, err = a.SetRecipeRating(ctx, 404, &two)
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}
