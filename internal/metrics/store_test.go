package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meal-rotation/internal/database"
	"meal-rotation/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db.SQL)
	s.now = func() time.Time { return now }
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "RecipeExtractor", PromptTokens: 100, CompletionTokens: 20, Timestamp: now}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "RecipeExtractor", PromptTokens: 50, CompletionTokens: 10, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "RecipeExtractor", PromptTokens: 7, CompletionTokens: 3, Timestamp: now.AddDate(0, 0, -1)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "RecipeExtractor", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -40)}))

	t.Run("GetDailyUsage", func(t *testing.T) {
		usage, err := s.GetDailyUsage(ctx, 7)
		require.NoError(t, err)
		require.Len(t, usage, 2)

		assert.Equal(t, DailyUsage{Date: "2025-03-10", TotalPrompt: 150, TotalCompletion: 30, TotalExecution: 2}, usage[0])
		assert.Equal(t, DailyUsage{Date: "2025-03-09", TotalPrompt: 7, TotalCompletion: 3, TotalExecution: 1}, usage[1])
	})

	t.Run("Cleanup", func(t *testing.T) {
		removed, err := s.Cleanup(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = s.Cleanup(ctx, 30)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestStore_RecordMeta(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{AgentName: "Idle"}))
	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{
		AgentName: "RecipeExtractor",
		Usage:     shared.TokenUsage{PromptTokens: 12, CompletionTokens: 4, Model: "m"},
		Latency:   250 * time.Millisecond,
	}))

	usage, err := s.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
	assert.Equal(t, 12, usage[0].TotalPrompt)
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("agent", shared.TokenUsage{PromptTokens: 3, CompletionTokens: 2, Model: "x"}, 1500*time.Millisecond)
	assert.Equal(t, "agent", m.AgentName)
	assert.Equal(t, "x", m.Model)
	assert.Equal(t, int64(1500), m.LatencyMS)
	assert.False(t, m.Timestamp.IsZero())
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "planner.db")
	require.NoError(t, os.WriteFile(dbPath, make([]byte, 2048), 0644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", make([]byte, 1024), 0644))

	backups := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backups, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(backups, "1_v1.json"), make([]byte, 512), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(backups, "1_v2.json"), make([]byte, 512), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(backups, "notes.txt"), make([]byte, 4096), 0644))

	h := GetSysHealth(dbPath, backups)
	assert.Equal(t, int64(3072), h.DatabaseBytes, "the WAL counts with the database")
	assert.Equal(t, "3.0 KB", h.DatabaseSize())
	assert.Equal(t, int64(1024), h.BackupBytes, "only recipe files count")
	assert.Equal(t, 2, h.BackupFiles)
	assert.Equal(t, "1.0 KB", h.BackupSize())
	assert.Positive(t, h.Goroutines)

	t.Run("Missing", func(t *testing.T) {
		h := GetSysHealth(filepath.Join(dir, "missing.db"), "")
		assert.Zero(t, h.DatabaseBytes)
		assert.Zero(t, h.BackupFiles)

		h = GetSysHealth("", filepath.Join(dir, "missing"))
		assert.Equal(t, "0 B", h.BackupSize())
	})
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2<<20))
}
