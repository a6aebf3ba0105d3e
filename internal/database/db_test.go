package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meals.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	tables := []string{"recipes", "meal_plan_items", "shopping_items", "pantry_staples", "execution_metrics"}
	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.SQL.QueryRowContext(context.Background(),
				`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
			require.NoError(t, err)
			assert.Equal(t, table, name)
		})
	}
}

func TestRunMigrationsTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.db")

	require.NoError(t, RunMigrations(path, zap.NewNop()))
	require.NoError(t, RunMigrations(path, zap.NewNop()), "second run must be a no-op")
}
