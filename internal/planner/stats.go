package planner

import (
	"cmp"
	"slices"
	"time"

	"meal-rotation/internal/recipe"
)

// RecipeStats summarizes how a recipe has fared in the plan.
type RecipeStats struct {
	RecipeID      int64
	Title         string
	Planned       int
	Cooked        int
	Rated         int
	AverageRating float64
	LastPlanned   time.Time
}

// Summarize builds per-recipe statistics. Items whose recipe no longer exists
// are skipped. The result is ordered by planned count, then title.
func Summarize(plan []Item, recipes []recipe.Recipe) []RecipeStats {
	byID := make(map[int64]*RecipeStats, len(recipes))
	out := make([]*RecipeStats, 0, len(recipes))
	for _, r := range recipes {
		s := &RecipeStats{RecipeID: r.ID, Title: r.Title}
		byID[r.ID] = s
		out = append(out, s)
	}

	ratingSums := make(map[int64]float64)
	for _, it := range plan {
		s, ok := byID[it.RecipeID]
		if !ok {
			continue
		}
		s.Planned++
		if it.IsCooked {
			s.Cooked++
		}
		if it.Rating != nil {
			s.Rated++
			ratingSums[it.RecipeID] += *it.Rating
		}
		if it.Date.After(s.LastPlanned) {
			s.LastPlanned = it.Date
		}
	}

	result := make([]RecipeStats, 0, len(out))
	for _, s := range out {
		if s.Rated > 0 {
			s.AverageRating = ratingSums[s.RecipeID] / float64(s.Rated)
		}
		result = append(result, *s)
	}

	slices.SortStableFunc(result, func(a, b RecipeStats) int {
		if c := cmp.Compare(b.Planned, a.Planned); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return result
}
