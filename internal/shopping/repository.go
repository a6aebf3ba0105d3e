package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meal-rotation/internal/recipe"
)

// Repository handles persistence of the shopping list.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const itemColumns = `id, item_name, quantity, unit, category, checked, is_manually_added`

// List returns the list in display order.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM shopping_items ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shopping items: %w", err)
	}
	return items, nil
}

// Get retrieves one item.
func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM shopping_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to get shopping item %d: %w", id, err)
	}
	return it, nil
}

// Save inserts an item at the end of the list, or updates it in place.
func (r *Repository) Save(ctx context.Context, it Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_items (position, `+itemColumns+`)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM shopping_items), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_name = excluded.item_name,
			quantity = excluded.quantity,
			unit = excluded.unit,
			category = excluded.category,
			checked = excluded.checked,
			is_manually_added = excluded.is_manually_added`,
		it.ID, it.Name, it.Quantity, it.Unit, string(it.Category), it.Checked, it.IsManuallyAdded,
	)
	if err != nil {
		return fmt.Errorf("failed to save shopping item %d: %w", it.ID, err)
	}
	return nil
}

// SaveAt inserts or updates an item and moves it to position.
func (r *Repository) SaveAt(ctx context.Context, it Item, position int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_items (position, `+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			item_name = excluded.item_name,
			quantity = excluded.quantity,
			unit = excluded.unit,
			category = excluded.category,
			checked = excluded.checked,
			is_manually_added = excluded.is_manually_added`,
		position, it.ID, it.Name, it.Quantity, it.Unit, string(it.Category), it.Checked, it.IsManuallyAdded,
	)
	if err != nil {
		return fmt.Errorf("failed to save shopping item %d: %w", it.ID, err)
	}
	return nil
}

// SetChecked flips the checked flag of one item.
func (r *Repository) SetChecked(ctx context.Context, id int64, checked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shopping_items SET checked = ? WHERE id = ?`, checked, id)
	if err != nil {
		return fmt.Errorf("failed to update shopping item %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes one item.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shopping item %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteChecked removes every checked item and reports how many went.
func (r *Repository) DeleteChecked(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE checked = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked items: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (Item, error) {
	var (
		it       Item
		category string
	)
	if err := s.Scan(&it.ID, &it.Name, &it.Quantity, &it.Unit, &category, &it.Checked, &it.IsManuallyAdded); err != nil {
		return Item{}, err
	}
	it.Category = recipe.Category(category)
	return it, nil
}

// StapleRepository stores the pantry staples excluded from the list.
type StapleRepository struct {
	db *sql.DB
}

func NewStapleRepository(d *sql.DB) *StapleRepository {
	return &StapleRepository{db: d}
}

// List returns staples in the order they were added.
func (r *StapleRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pattern FROM pantry_staples ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry staples: %w", err)
	}
	defer rows.Close()

	var staples []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan pantry staple: %w", err)
		}
		staples = append(staples, p)
	}
	return staples, rows.Err()
}

// Add stores a staple. Adding one that exists is a no-op.
func (r *StapleRepository) Add(ctx context.Context, pattern string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pantry_staples (pattern, created_at) VALUES (?, ?) ON CONFLICT(pattern) DO NOTHING`,
		pattern, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to add pantry staple %q: %w", pattern, err)
	}
	return nil
}

// Remove deletes a staple.
func (r *StapleRepository) Remove(ctx context.Context, pattern string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pantry_staples WHERE pattern = ?`, pattern)
	if err != nil {
		return fmt.Errorf("failed to remove pantry staple %q: %w", pattern, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrStapleNotFound
	}
	return nil
}
