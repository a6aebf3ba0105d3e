package planner

import (
	"math/rand/v2"
	"slices"
	"time"

	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"
)

// Generator fills empty days of the plan with the best scoring recipe.
// It is not safe for concurrent use because it owns a random source.
type Generator struct {
	tuning Tuning
	rng    *rand.Rand
	now    func() time.Time
	ids    shared.IDSource
}

type Option func(*Generator)

// WithRand injects the random source used for jitter.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithClock sets the clock that decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDs sets where new item ids come from.
func WithIDs(ids shared.IDSource) Option {
	return func(g *Generator) { g.ids = ids }
}

func NewGenerator(tuning Tuning, opts ...Option) *Generator {
	g := &Generator{
		tuning: tuning.Sorted(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.ids == nil {
		g.ids = shared.NewClockIDs(g.now)
	}
	return g
}

// Tuning returns the constants the generator scores with.
func (g *Generator) Tuning() Tuning {
	return g.tuning
}

// Score breaks down how a recipe ranked for one day.
type Score struct {
	RecipeID    int64
	Quality     float64
	RecencyDays int
	Penalty     float64
	Jitter      float64
	Total       float64
}

// Base is the score without jitter.
func (s Score) Base() float64 {
	return s.Total - s.Jitter
}

// FillWindow plans every open day of the window starting at start and returns
// only the new items. Past days and days that already have a meal are left
// alone. Each pick is visible to the days after it.
func (g *Generator) FillWindow(plan []Item, recipes []recipe.Recipe, start time.Time) []Item {
	if len(recipes) == 0 {
		return nil
	}

	today := DateOf(g.now())
	first := DateOf(start)

	working := slices.Clone(plan)
	occupied := make(map[string]struct{}, len(plan))
	used := make(map[int64]struct{}, len(plan))
	for _, it := range plan {
		occupied[DateKey(it.Date)] = struct{}{}
		used[it.ID] = struct{}{}
	}

	var added []Item
	for i := 0; i < g.tuning.WindowDays; i++ {
		date := first.AddDate(0, 0, i)
		if date.Before(today) {
			continue
		}
		if _, ok := occupied[DateKey(date)]; ok {
			continue
		}

		best, _ := g.Pick(working, recipes, date)
		item := Item{
			ID:            g.nextID(used),
			Date:          date,
			RecipeID:      best.ID,
			RecipeVersion: best.CurrentVersion(),
		}

		working = append(working, item)
		occupied[DateKey(date)] = struct{}{}
		added = append(added, item)
	}
	return added
}

// Pick returns the highest scoring recipe for date against plan.
// The first recipe wins an exact tie. ok is false for an empty catalog.
func (g *Generator) Pick(plan []Item, recipes []recipe.Recipe, date time.Time) (best recipe.Recipe, ok bool) {
	scores := g.Scores(plan, recipes, date)
	if len(scores) == 0 {
		return recipe.Recipe{}, false
	}

	bestIdx := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Total > scores[bestIdx].Total {
			bestIdx = i
		}
	}
	return recipes[bestIdx], true
}

// Scores rates every recipe for date, in catalog order.
func (g *Generator) Scores(plan []Item, recipes []recipe.Recipe, date time.Time) []Score {
	date = DateOf(date)
	seen := summarizeHistory(plan, date)

	scores := make([]Score, 0, len(recipes))
	for _, r := range recipes {
		scores = append(scores, g.score(r, seen[r.ID], date))
	}
	return scores
}

func (g *Generator) score(r recipe.Recipe, h history, date time.Time) Score {
	t := g.tuning

	quality := t.NeutralRating
	switch {
	case h.rated > 0:
		quality = h.ratingSum / float64(h.rated)
	case r.Rating != nil:
		quality = *r.Rating
	}

	recency := t.NeverEatenDays
	if h.hasPrior {
		recency = DaysBetween(h.lastPrior, date)
	}

	s := Score{
		RecipeID:    r.ID,
		Quality:     quality,
		RecencyDays: recency,
		Penalty:     t.Penalty(recency),
	}
	if t.MaxJitter > 0 {
		s.Jitter = g.rng.Float64() * t.MaxJitter
	}
	s.Total = quality*t.QualityWeight +
		float64(min(recency, t.RecencyCap))*t.RecencyWeight -
		s.Penalty +
		s.Jitter
	return s
}

// history is what the plan says about one recipe as seen from a candidate day.
type history struct {
	ratingSum float64
	rated     int
	lastPrior time.Time
	hasPrior  bool
}

func summarizeHistory(plan []Item, date time.Time) map[int64]history {
	seen := make(map[int64]history)
	for _, it := range plan {
		h := seen[it.RecipeID]
		if it.Rating != nil {
			h.ratingSum += *it.Rating
			h.rated++
		}
		if it.Date.Before(date) && (!h.hasPrior || it.Date.After(h.lastPrior)) {
			h.lastPrior = it.Date
			h.hasPrior = true
		}
		seen[it.RecipeID] = h
	}
	return seen
}

func (g *Generator) nextID(used map[int64]struct{}) int64 {
	for {
		id := g.ids.Next()
		if _, taken := used[id]; !taken {
			used[id] = struct{}{}
			return id
		}
	}
}
