package shared

import (
	"sync"
	"time"
)

// IDSource hands out identifiers for new entities.
type IDSource interface {
	Next() int64
}

// ClockIDs derives identifiers from wall-clock milliseconds. Calls within the
// same millisecond get successive offsets, so a batch never repeats an id.
type ClockIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (c *ClockIDs) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}
