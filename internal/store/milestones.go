package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RecordMilestone inserts m unless the owner already holds a milestone with the
// same type and value. It reports whether a row was written; m.ID is cleared
// when the milestone already existed.
func (s *Store) RecordMilestone(ctx context.Context, m *Milestone) (bool, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	meta := m.Metadata
	if meta == nil {
		meta = map[string]int{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encode milestone metadata: %w", err)
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO milestones (id, owner_id, type, value, achieved_at, task_id, task_title, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, type, value) DO NOTHING`,
		m.ID, m.OwnerID, string(m.Type), m.Value, toMillis(m.AchievedAt), m.TaskID, m.TaskTitle, string(metaJSON),
	)
	if err != nil {
		return false, fmt.Errorf("record milestone %s %d: %w", m.Type, m.Value, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record milestone %s %d: %w", m.Type, m.Value, err)
	}
	if n == 0 {
		m.ID = ""
		return false, nil
	}
	return true, nil
}

// ListMilestones returns the owner's milestones in achievement order.
func (s *Store) ListMilestones(ctx context.Context, ownerID string) ([]Milestone, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, owner_id, type, value, achieved_at, task_id, task_title, metadata
		FROM milestones WHERE owner_id = ?
		ORDER BY achieved_at, type, value`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		var m Milestone
		var typ, meta string
		var achievedAt int64
		if err := rows.Scan(&m.ID, &m.OwnerID, &typ, &m.Value, &achievedAt, &m.TaskID, &m.TaskTitle, &meta); err != nil {
			return nil, err
		}
		m.Type = MilestoneType(typ)
		m.AchievedAt = fromMillis(achievedAt)
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode milestone metadata %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
