package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const taskColumns = `id, owner_id, title, topic, subtopic, color, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, ownerID string, a TaskAttrs) (*Task, error) {
	now := toMillis(time.Now())
	id := uuid.NewString()
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, a.Title, a.Topic, a.Subtopic, a.Color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, ownerID, id)
}

// GetTask returns ErrNotFound both for unknown ids and for tasks of another owner.
func (s *Store) GetTask(ctx context.Context, ownerID, id string) (*Task, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]Task, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY title`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, ownerID, id string, a TaskAttrs) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET title = ?, topic = ?, subtopic = ?, color = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		a.Title, a.Topic, a.Subtopic, a.Color, toMillis(time.Now()), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return expectRow(res, "update task "+id)
}

// DeleteTask hard-deletes the task. Its time entries are kept.
func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return expectRow(res, "delete task "+id)
}

// TaskTotals sums minutes per task for entries starting in [from, to).
// A nil bound is open.
func (s *Store) TaskTotals(ctx context.Context, ownerID string, from, to *time.Time) (map[string]int, error) {
	query := `SELECT task_id, COALESCE(SUM(duration_minutes), 0) FROM time_entries WHERE owner_id = ?`
	args := []any{ownerID}
	if from != nil {
		query += ` AND started_at >= ?`
		args = append(args, toMillis(*from))
	}
	if to != nil {
		query += ` AND started_at < ?`
		args = append(args, toMillis(*to))
	}
	query += ` GROUP BY task_id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var tt TaskTotal
		if err := rows.Scan(&tt.TaskID, &tt.Minutes); err != nil {
			return nil, err
		}
		totals[tt.TaskID] = tt.Minutes
	}
	return totals, rows.Err()
}

// TaskTotalMinutes is the all-time minutes logged against one task.
func (s *Store) TaskTotalMinutes(ctx context.Context, ownerID, taskID string) (int, error) {
	var total int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM time_entries WHERE owner_id = ? AND task_id = ?`,
		ownerID, taskID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("task total %s: %w", taskID, err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*Task, error) {
	t := &Task{}
	var createdAt, updatedAt int64
	if err := r.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Topic, &t.Subtopic, &t.Color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
