package tui

import (
	"fmt"
	"slices"
	"time"

	"github.com/sadopc/tempo/internal/milestone"
	"github.com/sadopc/tempo/internal/store"
)

// toastDisplay is how long one celebration stays on screen.
const toastDisplay = 4 * time.Second

// toastModel shows pending celebrations one at a time, highest priority
// first, spacing out celebrations of the same kind by the cooldown.
type toastModel struct {
	cooldown *milestone.Cooldown
	queue    []store.Celebration
	seen     map[string]bool

	current *store.Celebration
	until   time.Time
}

func newToastModel(cooldown time.Duration) toastModel {
	return toastModel{
		cooldown: milestone.NewCooldown(cooldown),
		seen:     make(map[string]bool),
	}
}

// offer queues celebrations that have not been queued before.
func (t *toastModel) offer(pending []store.Celebration) {
	for _, c := range pending {
		if t.seen[c.ID] {
			continue
		}
		t.seen[c.ID] = true
		t.queue = append(t.queue, c)
	}
	milestone.ByPriority(t.queue)
}

// advance expires the current toast and promotes the next celebration the
// cooldown allows. It returns the promoted celebration, which the caller
// marks shown.
func (t *toastModel) advance(now time.Time) *store.Celebration {
	if t.current != nil && now.Before(t.until) {
		return nil
	}
	t.current = nil
	for i, c := range t.queue {
		if !t.cooldown.Allow(milestone.Source(c), now) {
			continue
		}
		t.queue = slices.Delete(t.queue, i, i+1)
		t.current = &c
		t.until = now.Add(toastDisplay)
		return t.current
	}
	return nil
}

func (t toastModel) view() string {
	if t.current == nil {
		return ""
	}
	return toastStyle.Render(celebrationText(*t.current))
}

func celebrationText(c store.Celebration) string {
	v := 0
	if c.Value != nil {
		v = *c.Value
	}
	switch c.Type {
	case store.CelebrationStreak:
		return fmt.Sprintf("★ %d-day streak!", v)
	case store.CelebrationMilestone:
		return fmt.Sprintf("★ Milestone: %s on one task", formatMinutes(v))
	case store.CelebrationGoalCompleted:
		return fmt.Sprintf("✓ Daily goal of %s reached", formatMinutes(v))
	case store.CelebrationTimeAdded:
		return fmt.Sprintf("+%s logged", formatMinutes(v))
	}
	return string(c.Type)
}
