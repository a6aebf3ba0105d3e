package recipe

import (
	"fmt"
	"strings"
)

// Category groups ingredients the way a shopper walks the store.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryMeat    Category = "meat"
	CategoryDairy   Category = "dairy"
	CategoryBakery  Category = "bakery"
	CategoryPantry  Category = "pantry"
	CategoryFrozen  Category = "frozen"
	CategoryOther   Category = "other"
)

var validCategories = map[Category]struct{}{
	CategoryProduce: {},
	CategoryMeat:    {},
	CategoryDairy:   {},
	CategoryBakery:  {},
	CategoryPantry:  {},
	CategoryFrozen:  {},
	CategoryOther:   {},
}

// ParseCategory maps free text to a known category, falling back to CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validCategories[c]; ok {
		return c
	}
	return CategoryOther
}

// Ingredient is a single measured line of a recipe.
type Ingredient struct {
	Name     string   `json:"name" yaml:"name"`
	Quantity float64  `json:"quantity" yaml:"quantity"`
	Unit     string   `json:"unit" yaml:"unit"`
	Category Category `json:"category" yaml:"category"`
}

// Snapshot is the content of a recipe at one version.
// It has no history of its own.
type Snapshot struct {
	Version      int          `json:"version" yaml:"version"`
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions []string     `json:"instructions" yaml:"instructions"`
	Cuisine      string       `json:"cuisine,omitempty" yaml:"cuisine,omitempty"`
}

// Recipe is the catalog entry for a dish, including its version history.
type Recipe struct {
	ID              int64        `json:"id" yaml:"id"`
	Title           string       `json:"title" yaml:"title"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	Cuisine         string       `json:"cuisine,omitempty" yaml:"cuisine,omitempty"`
	Ingredients     []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions    []string     `json:"instructions" yaml:"instructions"`
	ServingsDefault int          `json:"servings_default" yaml:"servings_default"`
	Rating          *float64     `json:"rating,omitempty" yaml:"rating,omitempty"`
	Tags            []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	SourceURL       string       `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SourceID        string       `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	UpdatedAt       string       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Version         int          `json:"version" yaml:"version"`
	History         []Snapshot   `json:"history,omitempty" yaml:"history,omitempty"`
}

// Snapshot captures the current content of r. Slices are copied so later
// edits to r cannot reach into the snapshot.
func (r Recipe) Snapshot() Snapshot {
	return Snapshot{
		Version:      r.CurrentVersion(),
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  cloneIngredients(r.Ingredients),
		Instructions: cloneStrings(r.Instructions),
		Cuisine:      r.Cuisine,
	}
}

// CurrentVersion treats an unset version as 1.
func (r Recipe) CurrentVersion() int {
	if r.Version < 1 {
		return 1
	}
	return r.Version
}

// Validate checks the fields a recipe needs before it can be planned.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.ServingsDefault < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidServings, r.ServingsDefault)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("%w: ingredient %d", ErrIngredientName, i+1)
		}
		if ing.Quantity < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeQuantity, ing.Name)
		}
	}
	return nil
}

// Normalize fills defaults on a freshly created or imported recipe.
func (r *Recipe) Normalize() {
	if r.Version < 1 {
		r.Version = 1
	}
	if r.ServingsDefault == 0 {
		r.ServingsDefault = DefaultServings
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Name = strings.TrimSpace(r.Ingredients[i].Name)
		r.Ingredients[i].Unit = strings.TrimSpace(r.Ingredients[i].Unit)
		r.Ingredients[i].Category = ParseCategory(string(r.Ingredients[i].Category))
	}
}

// DefaultServings is used when a recipe does not state how many it feeds.
const DefaultServings = 4

// Index builds an id lookup over a catalog.
func Index(recipes []Recipe) map[int64]Recipe {
	byID := make(map[int64]Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	return byID
}

func cloneIngredients(in []Ingredient) []Ingredient {
	if in == nil {
		return nil
	}
	out := make([]Ingredient, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
