package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockIDs(t *testing.T) {
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := NewClockIDs(func() time.Time { return frozen })

	first := ids.Next()
	assert.Equal(t, frozen.UnixMilli(), first)
	assert.Equal(t, first+1, ids.Next())
	assert.Equal(t, first+2, ids.Next())
}

func TestClockIDsClockMovesBack(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := NewClockIDs(func() time.Time { return now })

	first := ids.Next()
	now = now.Add(-time.Hour)
	assert.Greater(t, ids.Next(), first)
}
