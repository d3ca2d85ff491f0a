package sqlite

import (
	"context"
	"fmt"
	"strconv"
)

const keyDelaySeconds = "delay_seconds"

func (s *Store) LoadCooldown(ctx context.Context, listID string) (int64, bool, error) {
	var end int64
	err := s.db.QueryRowContext(ctx, `SELECT end_ms FROM cooldowns WHERE list_id = ?`, listID).Scan(&end)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load cooldown %s: %w", listID, err)
	}
	return end, true, nil
}

func (s *Store) SaveCooldown(ctx context.Context, listID string, endMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cooldowns (list_id, end_ms) VALUES (?, ?)
		 ON CONFLICT(list_id) DO UPDATE SET end_ms = excluded.end_ms`,
		listID, endMillis)
	if err != nil {
		return fmt.Errorf("save cooldown %s: %w", listID, err)
	}
	return nil
}

func (s *Store) ClearCooldown(ctx context.Context, listID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cooldowns WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("clear cooldown %s: %w", listID, err)
	}
	return nil
}

func (s *Store) CooldownListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT list_id FROM cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("list cooldowns: %w", err)
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

func (s *Store) DelaySeconds(ctx context.Context) (int, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, keyDelaySeconds).Scan(&raw)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load delay: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return max(v, 0), true, nil
}

func (s *Store) SetDelaySeconds(ctx context.Context, seconds int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		keyDelaySeconds, strconv.Itoa(max(seconds, 0)))
	if err != nil {
		return fmt.Errorf("save delay: %w", err)
	}
	return nil
}
