package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// SettingDayStartHour is the hour a user's civil day begins, 0-23.
const SettingDayStartHour = "day_start_hour"

func (s *Store) GetSetting(ctx context.Context, ownerID, key string) (string, error) {
	var value string
	err := s.q.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE owner_id = ? AND key = ?`, ownerID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting creates the owner's row lazily on first write.
func (s *Store) SetSetting(ctx context.Context, ownerID, key, value string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO user_settings (owner_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id, key) DO UPDATE SET value = excluded.value`,
		ownerID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings(ctx context.Context, ownerID string) ([]Setting, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT key, value FROM user_settings WHERE owner_id = ? ORDER BY key`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// GetUserSettings returns defaults for owners that never wrote a setting.
func (s *Store) GetUserSettings(ctx context.Context, ownerID string) (UserSettings, error) {
	var us UserSettings
	v, err := s.GetSetting(ctx, ownerID, SettingDayStartHour)
	if errors.Is(err, ErrNotFound) {
		return us, nil
	}
	if err != nil {
		return us, err
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return us, nil
	}
	us.DayStartHour = h
	return us, nil
}

func (s *Store) SetDayStartHour(ctx context.Context, ownerID string, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("day start hour %d outside 0-23: %w", hour, ErrInvalidArgument)
	}
	return s.SetSetting(ctx, ownerID, SettingDayStartHour, strconv.Itoa(hour))
}
