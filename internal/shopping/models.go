package shopping

import "meal-rotation/internal/recipe"

// Item is one line of the shopping list.
//
// Manually added items belong to the user and are never changed by
// aggregation. Generated items are recomputed from the plan on every pass but
// keep their ID and Checked flag when their name and unit match.
type Item struct {
	ID              int64           `json:"id"`
	Name            string          `json:"item_name"`
	Quantity        float64         `json:"quantity"`
	Unit            string          `json:"unit"`
	Category        recipe.Category `json:"category"`
	Checked         bool            `json:"checked"`
	IsManuallyAdded bool            `json:"is_manually_added"`
}

// NewManualItem builds a user-owned line.
func NewManualItem(id int64, name string, quantity float64, unit string, category recipe.Category) Item {
	return Item{
		ID:              id,
		Name:            name,
		Quantity:        quantity,
		Unit:            unit,
		Category:        recipe.ParseCategory(string(category)),
		IsManuallyAdded: true,
	}
}
