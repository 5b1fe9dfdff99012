package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dailyStatColumns = `owner_id, date, daily_minutes, tasks_worked_on, streak_count,
	consistency_score, momentum, created_at, updated_at`

// UpsertDailyStat writes the (owner, date) row as a single insert-or-patch so
// concurrent writers to the same day cannot drop each other's row.
func (s *Store) UpsertDailyStat(ctx context.Context, ds DailyStat) error {
	now := toMillis(time.Now())
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO daily_stats (`+dailyStatColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, date) DO UPDATE SET
			daily_minutes     = excluded.daily_minutes,
			tasks_worked_on   = excluded.tasks_worked_on,
			streak_count      = excluded.streak_count,
			consistency_score = excluded.consistency_score,
			momentum          = excluded.momentum,
			updated_at        = excluded.updated_at`,
		ds.OwnerID, ds.Date, ds.DailyMinutes, ds.TasksWorkedOn, ds.StreakCount,
		ds.ConsistencyScore, ds.Momentum, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert daily stat %s: %w", ds.Date, err)
	}
	return nil
}

func (s *Store) GetDailyStat(ctx context.Context, ownerID, date string) (*DailyStat, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+dailyStatColumns+` FROM daily_stats WHERE owner_id = ? AND date = ?`, ownerID, date,
	)
	ds, err := scanDailyStat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get daily stat %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get daily stat %s: %w", date, err)
	}
	return ds, nil
}

// RecentDailyStats returns up to limit rows dated on or before date, newest first.
func (s *Store) RecentDailyStats(ctx context.Context, ownerID, date string, limit int) ([]DailyStat, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+dailyStatColumns+` FROM daily_stats
		 WHERE owner_id = ? AND date <= ?
		 ORDER BY date DESC LIMIT ?`,
		ownerID, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent daily stats: %w", err)
	}
	return collectDailyStats(rows)
}

// DailyStatsBetween returns rows with from <= date <= to, oldest first.
func (s *Store) DailyStatsBetween(ctx context.Context, ownerID, from, to string) ([]DailyStat, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+dailyStatColumns+` FROM daily_stats
		 WHERE owner_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		ownerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("daily stats between: %w", err)
	}
	return collectDailyStats(rows)
}

func collectDailyStats(rows *sql.Rows) ([]DailyStat, error) {
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		ds, err := scanDailyStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *ds)
	}
	return stats, rows.Err()
}

func scanDailyStat(r rowScanner) (*DailyStat, error) {
	ds := &DailyStat{}
	var createdAt, updatedAt int64
	err := r.Scan(&ds.OwnerID, &ds.Date, &ds.DailyMinutes, &ds.TasksWorkedOn, &ds.StreakCount,
		&ds.ConsistencyScore, &ds.Momentum, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	ds.CreatedAt = fromMillis(createdAt)
	ds.UpdatedAt = fromMillis(updatedAt)
	return ds, nil
}
