package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const celebrationColumns = `id, owner_id, type, triggered_at, value, milestone_id, priority, shown, shown_at`

// EnqueueCelebration appends c to the owner's queue unconditionally.
func (s *Store) EnqueueCelebration(ctx context.Context, c *Celebration) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var value sql.NullInt64
	if c.Value != nil {
		value = sql.NullInt64{Int64: int64(*c.Value), Valid: true}
	}
	var milestoneID sql.NullString
	if c.MilestoneID != "" {
		milestoneID = sql.NullString{String: c.MilestoneID, Valid: true}
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO celebrations (id, owner_id, type, triggered_at, value, milestone_id, priority, shown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		c.ID, c.OwnerID, string(c.Type), toMillis(c.TriggeredAt), value, milestoneID, c.Priority,
	)
	if err != nil {
		return fmt.Errorf("enqueue celebration: %w", err)
	}
	return nil
}

// PendingCelebrations returns the limit most recent unshown celebrations,
// highest priority first.
func (s *Store) PendingCelebrations(ctx context.Context, ownerID string, limit int) ([]Celebration, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+celebrationColumns+` FROM (
			SELECT `+celebrationColumns+`, rowid AS seq FROM celebrations
			WHERE owner_id = ? AND shown = 0
			ORDER BY triggered_at DESC, seq DESC
			LIMIT ?
		)
		ORDER BY priority DESC, triggered_at DESC, seq DESC`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pending celebrations: %w", err)
	}
	return collectCelebrations(rows)
}

// ListCelebrations returns the owner's full celebration history, newest first.
func (s *Store) ListCelebrations(ctx context.Context, ownerID string) ([]Celebration, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+celebrationColumns+` FROM celebrations WHERE owner_id = ?
		 ORDER BY triggered_at DESC, rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list celebrations: %w", err)
	}
	return collectCelebrations(rows)
}

// MarkCelebrationShown flips shown for one of the owner's celebrations.
// Marking an already shown celebration is a no-op.
func (s *Store) MarkCelebrationShown(ctx context.Context, ownerID, id string, at time.Time) error {
	var owner string
	var shown bool
	err := s.q.QueryRowContext(ctx,
		`SELECT owner_id, shown FROM celebrations WHERE id = ?`, id,
	).Scan(&owner, &shown)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark celebration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("mark celebration %s: %w", id, err)
	}
	if owner != ownerID {
		return fmt.Errorf("mark celebration %s: %w", id, ErrWrongOwner)
	}
	if shown {
		return nil
	}
	_, err = s.q.ExecContext(ctx,
		`UPDATE celebrations SET shown = 1, shown_at = ? WHERE id = ? AND owner_id = ? AND shown = 0`,
		toMillis(at), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("mark celebration %s: %w", id, err)
	}
	return nil
}

func collectCelebrations(rows *sql.Rows) ([]Celebration, error) {
	defer rows.Close()

	var out []Celebration
	for rows.Next() {
		var c Celebration
		var typ string
		var triggeredAt int64
		var value, shownAt sql.NullInt64
		var milestoneID sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &typ, &triggeredAt, &value, &milestoneID, &c.Priority, &c.Shown, &shownAt); err != nil {
			return nil, err
		}
		c.Type = CelebrationType(typ)
		c.TriggeredAt = fromMillis(triggeredAt)
		if value.Valid {
			v := int(value.Int64)
			c.Value = &v
		}
		c.MilestoneID = milestoneID.String
		if shownAt.Valid {
			t := fromMillis(shownAt.Int64)
			c.ShownAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
