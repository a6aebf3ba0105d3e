package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Repository is a database-backed repository for recipes.
// Each row holds the full recipe, history included, as a JSON document.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{db: d, logger: logger}
}

// Save inserts or replaces a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, source_id, title, version, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			title = excluded.title,
			version = excluded.version,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, nullString(rec.SourceID), rec.Title, rec.Version, string(recipeJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %d: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id int64) (Recipe, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id)
	return scanRecipe(row)
}

// GetBySourceID finds a recipe imported from an external source.
func (r *Repository) GetBySourceID(ctx context.Context, sourceID string) (Recipe, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE source_id = ?`, sourceID)
	return scanRecipe(row)
}

// List retrieves all recipes ordered by id.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			r.logger.Warn("skipping unreadable recipe", zap.Int64("recipe_id", id), zap.Error(err))
			continue
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

// Delete removes a recipe. Plan items pointing at it are left alone.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func scanRecipe(row *sql.Row) (Recipe, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recipe{}, ErrNotFound
		}
		return Recipe{}, fmt.Errorf("failed to get recipe: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return Recipe{}, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
