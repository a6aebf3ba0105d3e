package planner

import (
	"math/rand/v2"
	"testing"
	"time"

	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return today.Add(10 * time.Hour) }

func ptr[T any](v T) *T { return &v }

func day(offset int) time.Time { return today.AddDate(0, 0, offset) }

func newTestGenerator(tuning Tuning, seed uint64) *Generator {
	return NewGenerator(tuning,
		WithClock(clock),
		WithRand(rand.New(rand.NewPCG(seed, seed))),
		WithIDs(shared.NewClockIDs(clock)),
	)
}

func noJitter() Tuning {
	t := DefaultTuning()
	t.MaxJitter = 0
	return t
}

func rec(id int64, title string, rating *float64) recipe.Recipe {
	return recipe.Recipe{ID: id, Title: title, Rating: rating, ServingsDefault: 4, Version: 1}
}

func TestFillWindow(t *testing.T) {
	t.Run("FreshRecipeBeatsYesterdaysMeal", func(t *testing.T) {
		a := rec(1, "A", ptr(5.0))
		b := rec(2, "B", ptr(5.0))
		plan := []Item{{ID: 7, Date: day(-1), RecipeID: b.ID, RecipeVersion: 1}}

		for seed := uint64(0); seed < 20; seed++ {
			g := newTestGenerator(DefaultTuning(), seed)
			got := g.FillWindow(plan, []recipe.Recipe{b, a}, today)
			require.NotEmpty(t, got)
			assert.Equal(t, a.ID, got[0].RecipeID, "seed %d", seed)
		}
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		g := newTestGenerator(DefaultTuning(), 1)
		assert.Empty(t, g.FillWindow(nil, nil, today))
	})

	t.Run("FillsSevenDays", func(t *testing.T) {
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(nil, []recipe.Recipe{rec(1, "A", nil), rec(2, "B", nil)}, today)

		require.Len(t, got, 7)
		for i, it := range got {
			assert.Equal(t, day(i), it.Date)
		}
	})

	t.Run("SkipsPastDays", func(t *testing.T) {
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(nil, []recipe.Recipe{rec(1, "A", nil)}, day(-3))

		require.Len(t, got, 4)
		assert.Equal(t, today, got[0].Date)
		assert.Equal(t, day(3), got[3].Date)
	})

	t.Run("SkipsOccupiedDays", func(t *testing.T) {
		plan := []Item{{ID: 1, Date: day(2), RecipeID: 1, RecipeVersion: 1}}
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(plan, []recipe.Recipe{rec(1, "A", nil), rec(2, "B", nil)}, today)

		require.Len(t, got, 6)
		for _, it := range got {
			assert.NotEqual(t, day(2), it.Date)
		}
	})

	t.Run("PicksSeeEarlierPicks", func(t *testing.T) {
		g := newTestGenerator(noJitter(), 1)
		got := g.FillWindow(nil, []recipe.Recipe{rec(1, "A", nil), rec(2, "B", nil)}, today)

		require.Len(t, got, 7)
		for i := 1; i < len(got); i++ {
			assert.NotEqual(t, got[i-1].RecipeID, got[i].RecipeID, "day %d repeats day %d", i, i-1)
		}
		assert.Equal(t, int64(1), got[0].RecipeID, "first recipe wins an exact tie")
	})

	t.Run("SingleRecipeStillPlanned", func(t *testing.T) {
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(nil, []recipe.Recipe{rec(1, "Only", nil)}, today)

		require.Len(t, got, 7)
		for _, it := range got {
			assert.Equal(t, int64(1), it.RecipeID)
		}
	})

	t.Run("PinsCurrentVersion", func(t *testing.T) {
		r := rec(1, "A", nil)
		r.Version = 3
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(nil, []recipe.Recipe{r}, today)

		require.NotEmpty(t, got)
		assert.Equal(t, 3, got[0].RecipeVersion)
		assert.Nil(t, got[0].Servings)
	})

	t.Run("PlanRatingsOverrideBaseRating", func(t *testing.T) {
		loved := rec(1, "Loved on paper", ptr(5.0))
		plain := rec(2, "Plain", nil)
		plan := []Item{
			{ID: 1, Date: day(-60), RecipeID: loved.ID, Rating: ptr(1.0)},
			{ID: 2, Date: day(-50), RecipeID: loved.ID, Rating: ptr(1.0)},
		}
		g := newTestGenerator(noJitter(), 1)
		got := g.FillWindow(plan, []recipe.Recipe{loved, plain}, today)

		require.NotEmpty(t, got)
		assert.Equal(t, plain.ID, got[0].RecipeID)
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		plan := []Item{{ID: clock().UnixMilli(), Date: day(-10), RecipeID: 1}}
		g := newTestGenerator(DefaultTuning(), 1)
		got := g.FillWindow(plan, []recipe.Recipe{rec(1, "A", nil), rec(2, "B", nil)}, today)

		seen := map[int64]bool{plan[0].ID: true}
		for _, it := range got {
			assert.False(t, seen[it.ID], "duplicate id %d", it.ID)
			seen[it.ID] = true
		}
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		plan := make([]Item, 1, 16)
		plan[0] = Item{ID: 1, Date: day(-1), RecipeID: 1}
		g := newTestGenerator(DefaultTuning(), 1)
		g.FillWindow(plan, []recipe.Recipe{rec(1, "A", nil)}, today)

		assert.Len(t, plan, 1)
	})

	t.Run("SameSeedSamePlan", func(t *testing.T) {
		catalog := []recipe.Recipe{rec(1, "A", ptr(4.0)), rec(2, "B", ptr(4.1)), rec(3, "C", nil), rec(4, "D", ptr(3.0))}
		first := newTestGenerator(DefaultTuning(), 42).FillWindow(nil, catalog, today)
		second := newTestGenerator(DefaultTuning(), 42).FillWindow(nil, catalog, today)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].RecipeID, second[i].RecipeID)
		}
	})
}

func TestScores(t *testing.T) {
	a := rec(1, "A", ptr(4.0))
	b := rec(2, "B", nil)
	plan := []Item{
		{Date: day(-3), RecipeID: a.ID, Rating: ptr(5.0)},
		{Date: day(-10), RecipeID: a.ID, Rating: ptr(3.0)},
		{Date: day(2), RecipeID: b.ID},
	}

	g := newTestGenerator(DefaultTuning(), 9)
	scores := g.Scores(plan, []recipe.Recipe{a, b}, today)
	require.Len(t, scores, 2)

	sa := scores[0]
	assert.Equal(t, 4.0, sa.Quality)
	assert.Equal(t, 3, sa.RecencyDays)
	assert.Equal(t, 2000.0, sa.Penalty)
	assert.InDelta(t, 4.0*10+3*2-2000, sa.Base(), 1e-9)
	assert.GreaterOrEqual(t, sa.Jitter, 0.0)
	assert.Less(t, sa.Jitter, 10.0)

	sb := scores[1]
	assert.Equal(t, 3.5, sb.Quality, "neutral rating")
	assert.Equal(t, 100, sb.RecencyDays, "future occurrences do not count")
	assert.Equal(t, 0.0, sb.Penalty)
	assert.InDelta(t, 3.5*10+30*2, sb.Base(), 1e-9)
}

func TestPenaltyTiers(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		days    int
		penalty float64
	}{
		{0, 10000}, {1, 10000}, {2, 5000}, {3, 2000}, {5, 2000}, {6, 500}, {7, 500}, {8, 0}, {100, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.penalty, tuning.Penalty(tt.days), "days=%d", tt.days)
	}

	t.Run("UnsortedTiersAreSorted", func(t *testing.T) {
		tuning := DefaultTuning()
		tuning.Penalties = []PenaltyTier{{MaxDays: 7, Penalty: 1}, {MaxDays: 1, Penalty: 100}}
		g := NewGenerator(tuning)
		assert.Equal(t, 100.0, g.Tuning().Penalty(1))
		assert.Equal(t, 1.0, g.Tuning().Penalty(4))
	})
}

func TestTuningValidate(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())

	bad := DefaultTuning()
	bad.WindowDays = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTuning)

	bad = DefaultTuning()
	bad.Penalties = append(bad.Penalties, PenaltyTier{MaxDays: -1})
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTuning)
}

func TestItemHelpers(t *testing.T) {
	t.Run("DateOfUsesLocalCalendarDay", func(t *testing.T) {
		loc := time.FixedZone("UTC+10", 10*3600)
		late := time.Date(2025, 6, 2, 23, 30, 0, 0, loc)
		assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), DateOf(late))
	})

	t.Run("DaysBetween", func(t *testing.T) {
		assert.Equal(t, 3, DaysBetween(day(-3), today))
		assert.Equal(t, -1, DaysBetween(day(1), today))
	})

	t.Run("ParseDate", func(t *testing.T) {
		d, err := ParseDate("2025-06-02")
		require.NoError(t, err)
		assert.Equal(t, today, d)

		_, err = ParseDate("02/06/2025")
		assert.Error(t, err)
	})

	t.Run("Rate", func(t *testing.T) {
		var it Item
		require.NoError(t, it.Rate(4, "good"))
		assert.Equal(t, 4.0, *it.Rating)
		assert.Equal(t, "good", it.RatingComment)
		assert.ErrorIs(t, it.Rate(6, ""), ErrInvalidRating)
	})

	t.Run("InRange", func(t *testing.T) {
		it := Item{Date: today}
		assert.True(t, it.InRange(time.Time{}, time.Time{}))
		assert.True(t, it.InRange(today, today))
		assert.False(t, it.InRange(day(1), time.Time{}))
		assert.False(t, it.InRange(time.Time{}, day(-1)))
	})

	t.Run("ServingsOr", func(t *testing.T) {
		assert.Equal(t, 4, Item{}.ServingsOr(4))
		assert.Equal(t, 2, Item{Servings: ptr(2)}.ServingsOr(4))
	})
}

func TestSummarize(t *testing.T) {
	recipes := []recipe.Recipe{rec(1, "Soup", nil), rec(2, "Curry", nil), rec(3, "Never", nil)}
	plan := []Item{
		{Date: day(-5), RecipeID: 2, IsCooked: true, Rating: ptr(4.0)},
		{Date: day(-2), RecipeID: 2, IsCooked: true, Rating: ptr(5.0)},
		{Date: day(1), RecipeID: 2},
		{Date: day(-1), RecipeID: 1, IsCooked: true},
		{Date: day(-1), RecipeID: 99},
	}

	stats := Summarize(plan, recipes)
	require.Len(t, stats, 3)

	assert.Equal(t, "Curry", stats[0].Title)
	assert.Equal(t, 3, stats[0].Planned)
	assert.Equal(t, 2, stats[0].Cooked)
	assert.Equal(t, 2, stats[0].Rated)
	assert.InDelta(t, 4.5, stats[0].AverageRating, 1e-9)
	assert.Equal(t, day(1), stats[0].LastPlanned)

	assert.Equal(t, "Soup", stats[1].Title)
	assert.Equal(t, 1, stats[1].Planned)

	assert.Equal(t, "Never", stats[2].Title)
	assert.Zero(t, stats[2].Planned)
	assert.True(t, stats[2].LastPlanned.IsZero())
}
