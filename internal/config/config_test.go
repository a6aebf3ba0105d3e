package config

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meal-rotation/internal/planner/tuning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray config file is read.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		isolate(t)

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "data/meal-rotation.db", cfg.DatabasePath)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, tuning.Default(), cfg.Planner)
		assert.Empty(t, cfg.PantryStaples)
	})

	t.Run("Success", func(t *testing.T) {
		isolate(t)
		t.Setenv("GHOST_API_URL", "http://ghost.test")
		t.Setenv("GHOST_CONTENT_API_KEY", "ghost_key")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("LLM_PROVIDER", "Gemini")
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "11, 22")
		t.Setenv("ADMIN_TELEGRAM_ID", "11")
		t.Setenv("PANTRY_STAPLES", "salt, pepper ,,olive oil")
		t.Setenv("PLANNER_WINDOW_DAYS", "5")
		t.Setenv("DEBUG", "true")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "http://ghost.test", cfg.GhostURL)
		assert.Equal(t, "ghost_key", cfg.GhostContentKey)
		assert.Equal(t, "ghost_key", cfg.GhostAdminKey, "admin key falls back to content key")
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, []int64{11, 22}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(11), cfg.AdminTelegramID)
		assert.Equal(t, []string{"salt", "pepper", "olive oil"}, cfg.PantryStaples)
		assert.Equal(t, 5, cfg.Planner.WindowDays)
		assert.True(t, cfg.Debug)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		isolate(t)
		yaml := `
log_level: debug
pantry_staples:
  - salt
  - flour
planner:
  max_jitter: 0
  penalties:
    - max_days: 3
      penalty: 900
`
		require.NoError(t, os.WriteFile("mealplanner.yaml", []byte(yaml), 0644))
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "warn", cfg.LogLevel, "env wins over file")
		assert.Equal(t, []string{"salt", "flour"}, cfg.PantryStaples)
		assert.Equal(t, 0.0, cfg.Planner.MaxJitter)
		assert.Equal(t, 7, cfg.Planner.WindowDays)
		assert.Equal(t, []tuning.PenaltyTier{{MaxDays: 3, Penalty: 900}}, cfg.Planner.Penalties)
	})

	t.Run("ExplicitConfigFileMissing", func(t *testing.T) {
		isolate(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("InvalidAllowList", func(t *testing.T) {
		isolate(t)
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "abc")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("InvalidProvider", func(t *testing.T) {
		isolate(t)
		t.Setenv("LLM_PROVIDER", "openai")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("InvalidTuning", func(t *testing.T) {
		isolate(t)
		t.Setenv("PLANNER_WINDOW_DAYS", "0")

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, tuning.ErrInvalid)
	})
}

func TestRequire(t *testing.T) {
	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		cfg := &Config{LLMProvider: ProviderGroq}
		err := cfg.RequireLLM()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotSet)
		assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		cfg := &Config{LLMProvider: ProviderGemini, GroqAPIKey: "set"}
		err := cfg.RequireLLM()
		require.Error(t, err)
		assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())
	})

	t.Run("MissingGhostURL", func(t *testing.T) {
		cfg := &Config{GhostContentKey: "key"}
		err := cfg.RequireGhost()
		require.Error(t, err)
		assert.Equal(t, "GHOST_API_URL environment variable not set", err.Error())
	})

	t.Run("MissingGhostContentKey", func(t *testing.T) {
		cfg := &Config{GhostURL: "http://ghost.test"}
		err := cfg.RequireGhost()
		require.Error(t, err)
		assert.Equal(t, "GHOST_CONTENT_API_KEY environment variable not set", err.Error())
	})

	t.Run("Telegram", func(t *testing.T) {
		cfg := &Config{TelegramBotToken: "token", TelegramWebhookURL: "https://bot.test/webhook"}
		assert.ErrorIs(t, cfg.RequireTelegram(), ErrNotSet)

		cfg.TelegramAllowedUserIDs = []int64{1}
		assert.NoError(t, cfg.RequireTelegram())
	})
}

// Packages across the module load their settings from here, so config may
// only depend on leaf packages.
func TestModuleImports(t *testing.T) {
	allowed := map[string]bool{"meal-rotation/internal/planner/tuning": true}

	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if strings.HasPrefix(path, "meal-rotation/") {
				assert.True(t, allowed[path], "%s imports %s", name, path)
			}
		}
	}
}
