package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/database"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const stewV1 = `
title: Stew
servings_default: 4
ingredients:
  - name: onion
    quantity: 2
    category: produce
  - name: salt
    quantity: 1
    unit: tsp
instructions:
  - Chop
  - Simmer
`

const stewV2 = `
title: Stew
servings_default: 4
ingredients:
  - name: leek
    quantity: 1
    category: produce
instructions:
  - Chop
  - Simmer
`

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "meal-planner", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"fill"}, {"shop"}, {"shop", "add"}, {"shop", "toggle"}, {"shop", "clear-checked"},
		{"plan"}, {"plan", "rate"}, {"plan", "cooked"}, {"plan", "move"}, {"plan", "reroll"},
		{"plan", "servings"}, {"plan", "clear-history"}, {"plan", "stats"},
		{"recipe", "add"}, {"recipe", "update"}, {"recipe", "rate"}, {"recipe", "import"}, {"recipe", "sync"}, {"recipe", "show"},
		{"staples", "list"}, {"staples", "add"}, {"staples", "remove"},
		{"backup"}, {"restore"}, {"metrics", "usage"}, {"metrics", "cleanup"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	shopCmd, _, err := cmd.Find([]string{"shop"})
	require.NoError(t, err)
	assert.NotNil(t, shopCmd.Flags().Lookup("include-cooked"))

	importCmd, _, err := cmd.Find([]string{"recipe", "import"})
	require.NoError(t, err)
	assert.NotNil(t, importCmd.Flags().Lookup("publish"))
}

// testOpener serves every command from the same database.
func testOpener(t *testing.T) Opener {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDB(filepath.Join(dir, "cli.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backups, err := storage.NewRecipeStore(filepath.Join(dir, "backups"))
	require.NoError(t, err)

	tuning := planner.DefaultTuning()
	tuning.MaxJitter = 0
	cfg := &config.Config{
		Planner:       tuning,
		PantryStaples: []string{"salt"},
		DatabasePath:  filepath.Join(dir, "cli.db"),
		BackupPath:    filepath.Join(dir, "backups"),
	}

	return func(ctx context.Context, opts *RootOptions) (*app.App, func(), error) {
		return app.NewApp(cfg, zap.NewNop(), db, app.WithBackups(backups)), func() {}, nil
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(open)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func runJSON(t *testing.T, open Opener, target any, args ...string) {
	t.Helper()
	out, err := run(t, open, append([]string{"--format", "json"}, args...)...)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, target))
}

var errWriteFailed = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWorkflow(t *testing.T) {
	open := testOpener(t)

	out, err := run(t, open, "recipe", "add", writeFile(t, "stew.yaml", stewV1))
	require.NoError(t, err)
	assert.Contains(t, out, `"Stew" at version 1`)

	var recipes []struct {
		ID int64 `json:"id"`
	}
	runJSON(t, open, &recipes, "recipe", "list")
	require.Len(t, recipes, 1)
	recipeID := strconv.FormatInt(recipes[0].ID, 10)

	out, err = run(t, open, "fill", "--start", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 7 new meal(s).")

	var meals []mealView
	runJSON(t, open, &meals, "plan", "--from", "2025-03-10", "--to", "2025-03-11")
	require.Len(t, meals, 2)
	assert.Equal(t, "2025-03-10", meals[0].Date)
	assert.Equal(t, 1, meals[0].Version)
	mealID := strconv.FormatInt(meals[0].ID, 10)

	t.Run("Rate", func(t *testing.T) {
		out, err := run(t, open, "plan", "rate", mealID, "4", "--comment", "good")
		require.NoError(t, err)
		assert.Contains(t, out, "rated 4.0")

		_, err = run(t, open, "plan", "rate", mealID, "9")
		assert.ErrorIs(t, err, planner.ErrInvalidRating)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		_, err = run(t, open, "plan", "rate", "abc", "4")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("Shop", func(t *testing.T) {
		out, err := run(t, open, "shop", "--from", "2025-03-10", "--to", "2025-03-11")
		require.NoError(t, err)
		assert.Contains(t, out, "produce:")
		assert.Contains(t, out, "[ ] 4 onion")
		assert.NotContains(t, out, "salt", "staples are left off")

		out, err = run(t, open, "shop", "add", "bread", "--category", "bakery")
		require.NoError(t, err)
		assert.Contains(t, out, "Added bread")
	})

	t.Run("VersionPinning", func(t *testing.T) {
		out, err := run(t, open, "recipe", "update", recipeID, writeFile(t, "stew.yaml", stewV2))
		require.NoError(t, err)
		assert.Contains(t, out, "at version 2")

		out, err = run(t, open, "recipe", "show", recipeID, "--version", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "onion")
		assert.NotContains(t, out, "leek")

		out, err = run(t, open, "shop", "--from", "2025-03-10", "--to", "2025-03-11")
		require.NoError(t, err)
		assert.Contains(t, out, "4 onion", "planned meals keep their pinned version")
		assert.Contains(t, out, "bread", "manual lines survive a rebuild")
	})

	t.Run("RecipeRating", func(t *testing.T) {
		out, err := run(t, open, "recipe", "rate", recipeID, "4.5")
		require.NoError(t, err)
		assert.Contains(t, out, "Rated recipe")

		out, err = run(t, open, "recipe", "rate", recipeID, "--clear")
		require.NoError(t, err)
		assert.Contains(t, out, "Cleared the rating")

		var rec struct {
			Rating *float64 `json:"rating"`
		}
		runJSON(t, open, &rec, "recipe", "show", recipeID)
		assert.Nil(t, rec.Rating)

		_, err = run(t, open, "recipe", "rate", recipeID)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		_, err = run(t, open, "recipe", "rate", recipeID, "4", "--clear")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		_, err = run(t, open, "recipe", "rate", recipeID, "7")
		assert.ErrorIs(t, err, planner.ErrInvalidRating)
	})

	t.Run("ShowWriteError", func(t *testing.T) {
		for _, args := range [][]string{
			{"recipe", "show", recipeID},
			{"recipe", "show", recipeID, "--version", "1"},
		} {
			cmd := newRootCommand(open)
			cmd.SetOut(failingWriter{})
			cmd.SetErr(io.Discard)
			cmd.SetArgs(args)
			err := cmd.Execute()
			require.Error(t, err, "%v", args)
			assert.Contains(t, err.Error(), errWriteFailed.Error())
		}
	})

	t.Run("Staples", func(t *testing.T) {
		_, err := run(t, open, "staples", "add", "pepper")
		require.NoError(t, err)

		var staples []string
		runJSON(t, open, &staples, "staples", "list")
		assert.Equal(t, []string{"pepper"}, staples)

		_, err = run(t, open, "staples", "add", "(")
		assert.Error(t, err)
	})

	t.Run("Backup", func(t *testing.T) {
		out, err := run(t, open, "backup")
		require.NoError(t, err)
		assert.Contains(t, out, "Backed up 1 recipe(s).")

		out, err = run(t, open, "restore")
		require.NoError(t, err)
		assert.Contains(t, out, "Restored 1 recipe(s).")
	})

	t.Run("Metrics", func(t *testing.T) {
		out, err := run(t, open, "metrics", "usage")
		require.NoError(t, err)
		assert.Contains(t, out, "No usage recorded.")
		assert.Contains(t, out, "Database: ")
		assert.Contains(t, out, "backups: 1 file(s)")
	})

	t.Run("Stats", func(t *testing.T) {
		out, err := run(t, open, "plan", "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Stew")
	})
}

func TestInvalidInput(t *testing.T) {
	open := testOpener(t)

	_, err := run(t, open, "--format", "xml", "plan")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, open, "fill", "--start", "10/03/2025")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, open, "recipe", "add", writeFile(t, "stew.txt", stewV1))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, open, "recipe", "import", "https://example.test")
	assert.ErrorIs(t, err, app.ErrLLMDisabled)
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: FormatJSON, Writer: &buf}
	f.Error(NewExitError(ExitCommandError, "bad flag"))
	assert.JSONEq(t, `{"status":"error","error":{"code":2,"message":"bad flag"}}`, buf.String())

	buf.Reset()
	f.Format = FormatText
	f.Error(WrapExitError(ExitFailure, "sync failed", assert.AnError))
	assert.Equal(t, "Error: sync failed: "+assert.AnError.Error()+"\n", buf.String())
}
