package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const entryColumns = `id, owner_id, task_id, duration_minutes, started_at, note,
	task_title, task_topic, task_subtopic, task_color, created_at`

// AppendEntry logs a block of work against a task owned by ownerID, snapshotting
// the task's display attributes. It is the only way the ledger grows.
func (s *Store) AppendEntry(ctx context.Context, ownerID, taskID string, minutes int, note string, at time.Time) (*TimeEntry, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("append entry: duration must be > 0 minutes, got %d: %w", minutes, ErrInvalidArgument)
	}
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	id := uuid.NewString()
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, taskID, minutes, toMillis(at), note,
		task.Title, task.Topic, task.Subtopic, task.Color, toMillis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}
	return s.GetEntry(ctx, ownerID, id)
}

func (s *Store) GetEntry(ctx context.Context, ownerID, id string) (*TimeEntry, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

// EntriesInRange returns the owner's entries with started_at in [start, end),
// oldest first.
func (s *Store) EntriesInRange(ctx context.Context, ownerID string, start, end time.Time) ([]TimeEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE owner_id = ? AND started_at >= ? AND started_at < ?
		 ORDER BY started_at, id`,
		ownerID, toMillis(start), toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("entries in range: %w", err)
	}
	return collectEntries(rows)
}

// ListEntries returns the owner's entries newest first.
func (s *Store) ListEntries(ctx context.Context, ownerID string, f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE owner_id = ?`
	args := []any{ownerID}

	if f.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, f.TaskID)
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, toMillis(*f.To))
	}
	query += ` ORDER BY started_at DESC, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

// DaySummary returns total minutes and distinct task count in [start, end).
func (s *Store) DaySummary(ctx context.Context, ownerID string, start, end time.Time) (minutes, tasks int, err error) {
	err = s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0), COUNT(DISTINCT task_id)
		FROM time_entries
		WHERE owner_id = ? AND started_at >= ? AND started_at < ?`,
		ownerID, toMillis(start), toMillis(end),
	).Scan(&minutes, &tasks)
	if err != nil {
		return 0, 0, fmt.Errorf("day summary: %w", err)
	}
	return minutes, tasks, nil
}

// RefreshEntrySnapshots rewrites the task snapshot on every entry of taskID.
// Entries are patched one at a time outside any transaction; on failure the
// already patched entries stay patched. It returns how many were patched.
func (s *Store) RefreshEntrySnapshots(ctx context.Context, ownerID, taskID string, a TaskAttrs) (int, error) {
	ids, err := s.entryIDsForTask(ctx, ownerID, taskID)
	if err != nil {
		return 0, err
	}
	patched := 0
	for _, id := range ids {
		_, err := s.q.ExecContext(ctx,
			`UPDATE time_entries SET task_title = ?, task_topic = ?, task_subtopic = ?, task_color = ?
			 WHERE id = ? AND owner_id = ?`,
			a.Title, a.Topic, a.Subtopic, a.Color, id, ownerID,
		)
		if err != nil {
			return patched, fmt.Errorf("refresh entry %s: %w", id, err)
		}
		patched++
	}
	return patched, nil
}

func (s *Store) entryIDsForTask(ctx context.Context, ownerID, taskID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id FROM time_entries WHERE owner_id = ? AND task_id = ? ORDER BY started_at`,
		ownerID, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entry ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectEntries(rows *sql.Rows) ([]TimeEntry, error) {
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(r rowScanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var startedAt, createdAt int64
	err := r.Scan(&e.ID, &e.OwnerID, &e.TaskID, &e.DurationMinutes, &startedAt, &e.Note,
		&e.TaskTitle, &e.TaskTopic, &e.TaskSubtopic, &e.TaskColor, &createdAt)
	if err != nil {
		return nil, err
	}
	e.StartedAt = fromMillis(startedAt)
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}
