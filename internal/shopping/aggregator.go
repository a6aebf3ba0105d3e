package shopping

import (
	"strings"

	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"
)

// Aggregator recomputes the generated part of the shopping list from the plan.
type Aggregator struct {
	ids shared.IDSource
}

func NewAggregator(ids shared.IDSource) *Aggregator {
	return &Aggregator{ids: ids}
}

type lineKey struct {
	name string
	unit string
}

func keyOf(name, unit string) lineKey {
	return lineKey{
		name: strings.ToLower(strings.TrimSpace(name)),
		unit: strings.ToLower(strings.TrimSpace(unit)),
	}
}

// Aggregate builds the new list: the manual items of previous, untouched and
// in order, followed by one line per ingredient name and unit needed by plan.
//
// Quantities are scaled by the item's servings over the recipe default and
// read from the recipe version each item is pinned to. Staples and items whose
// recipe was deleted are left out. A generated line keeps the ID and Checked
// flag of the previous line with the same key.
func (a *Aggregator) Aggregate(previous []Item, plan []planner.Item, recipes []recipe.Recipe, staples []string) []Item {
	var manual []Item
	generatedByKey := make(map[lineKey]Item)
	manualByKey := make(map[lineKey]Item)
	used := make(map[int64]struct{}, len(previous))

	for _, it := range previous {
		used[it.ID] = struct{}{}
		k := keyOf(it.Name, it.Unit)
		if it.IsManuallyAdded {
			manual = append(manual, it)
			if _, ok := manualByKey[k]; !ok {
				manualByKey[k] = it
			}
			continue
		}
		if _, ok := generatedByKey[k]; !ok {
			generatedByKey[k] = it
		}
	}

	matcher := NewStapleMatcher(staples)
	byID := recipe.Index(recipes)

	var order []lineKey
	totals := make(map[lineKey]*Item)
	for _, p := range plan {
		r, ok := byID[p.RecipeID]
		if !ok {
			continue
		}
		content := recipe.ResolveContent(r, p.RecipeVersion)
		scale := scaleFor(p, r)

		for _, ing := range content.Ingredients {
			if matcher.Match(ing.Name) {
				continue
			}
			k := keyOf(ing.Name, ing.Unit)
			if line, ok := totals[k]; ok {
				line.Quantity += ing.Quantity * scale
				continue
			}
			totals[k] = &Item{
				Name:     ing.Name,
				Quantity: ing.Quantity * scale,
				Unit:     ing.Unit,
				Category: ing.Category,
			}
			order = append(order, k)
		}
	}

	out := make([]Item, 0, len(manual)+len(order))
	out = append(out, manual...)
	for _, k := range order {
		line := *totals[k]
		if prev, ok := generatedByKey[k]; ok {
			line.ID = prev.ID
			line.Checked = prev.Checked
		} else {
			// A manual line with the same key lends its checked state but
			// keeps its own ID.
			if prev, ok := manualByKey[k]; ok {
				line.Checked = prev.Checked
			}
			line.ID = a.freshID(used)
		}
		out = append(out, line)
	}
	return out
}

func scaleFor(p planner.Item, r recipe.Recipe) float64 {
	if r.ServingsDefault <= 0 {
		return 1
	}
	return float64(p.ServingsOr(r.ServingsDefault)) / float64(r.ServingsDefault)
}

func (a *Aggregator) freshID(used map[int64]struct{}) int64 {
	for {
		id := a.ids.Next()
		if _, taken := used[id]; !taken {
			used[id] = struct{}{}
			return id
		}
	}
}
