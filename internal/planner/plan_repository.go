package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PlanRepository is a database-backed repository for meal plan items.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

const planColumns = `id, plan_date, recipe_id, recipe_version, servings, rating, rating_comment, is_cooked`

// Save inserts or updates a plan item.
func (r *PlanRepository) Save(ctx context.Context, it Item) error {
	var servings sql.NullInt64
	if it.Servings != nil {
		servings = sql.NullInt64{Int64: int64(*it.Servings), Valid: true}
	}
	var rating sql.NullFloat64
	if it.Rating != nil {
		rating = sql.NullFloat64{Float64: *it.Rating, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_plan_items (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plan_date = excluded.plan_date,
			recipe_id = excluded.recipe_id,
			recipe_version = excluded.recipe_version,
			servings = excluded.servings,
			rating = excluded.rating,
			rating_comment = excluded.rating_comment,
			is_cooked = excluded.is_cooked`,
		it.ID, DateKey(it.Date), it.RecipeID, it.RecipeVersion, servings, rating, it.RatingComment, it.IsCooked,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan item %d: %w", it.ID, err)
	}
	return nil
}

// Get retrieves a single plan item.
func (r *PlanRepository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM meal_plan_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to get meal plan item %d: %w", id, err)
	}
	return it, nil
}

// List returns the whole plan ordered by date.
func (r *PlanRepository) List(ctx context.Context) ([]Item, error) {
	return r.query(ctx, `SELECT `+planColumns+` FROM meal_plan_items ORDER BY plan_date, id`)
}

// ListRange returns items dated within [from, to], both inclusive.
func (r *PlanRepository) ListRange(ctx context.Context, from, to time.Time) ([]Item, error) {
	return r.query(ctx,
		`SELECT `+planColumns+` FROM meal_plan_items WHERE plan_date >= ? AND plan_date <= ? ORDER BY plan_date, id`,
		DateKey(from), DateKey(to),
	)
}

// Delete removes a plan item.
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_plan_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan item %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteBefore clears history older than the given day and reports how many
// items went.
func (r *PlanRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_plan_items WHERE plan_date < ?`, DateKey(before))
	if err != nil {
		return 0, fmt.Errorf("failed to clear meal plan history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear meal plan history: %w", err)
	}
	return n, nil
}

func (r *PlanRepository) query(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plan items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal plan items: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (Item, error) {
	var (
		it       Item
		date     string
		servings sql.NullInt64
		rating   sql.NullFloat64
	)
	if err := s.Scan(&it.ID, &date, &it.RecipeID, &it.RecipeVersion, &servings, &rating, &it.RatingComment, &it.IsCooked); err != nil {
		return Item{}, err
	}

	d, err := ParseDate(date)
	if err != nil {
		return Item{}, err
	}
	it.Date = d
	if servings.Valid {
		n := int(servings.Int64)
		it.Servings = &n
	}
	if rating.Valid {
		v := rating.Float64
		it.Rating = &v
	}
	return it, nil
}
