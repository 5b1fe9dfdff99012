package milestone

import (
	"sort"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// DefaultCooldown spaces out celebrations from the same source.
const DefaultCooldown = 5 * time.Second

// Cooldown debounces celebrations per source for presentation. The queue
// itself never consults it.
type Cooldown struct {
	Interval time.Duration
	last     map[string]time.Time
}

func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		interval = DefaultCooldown
	}
	return &Cooldown{Interval: interval, last: make(map[string]time.Time)}
}

// Allow reports whether source may be shown at now and, if so, starts its cooldown.
func (c *Cooldown) Allow(source string, now time.Time) bool {
	if last, ok := c.last[source]; ok && now.Sub(last) < c.Interval {
		return false
	}
	c.last[source] = now
	return true
}

// Source is the debounce key of a celebration.
func Source(c store.Celebration) string {
	return string(c.Type)
}

// ByPriority sorts celebrations highest priority first, newest first within
// a priority.
func ByPriority(cs []store.Celebration) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Priority != cs[j].Priority {
			return cs[i].Priority > cs[j].Priority
		}
		return cs[i].TriggeredAt.After(cs[j].TriggeredAt)
	})
}
