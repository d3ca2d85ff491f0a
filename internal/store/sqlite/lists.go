package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/dispenser/internal/domain"
	"github.com/MrSnakeDoc/dispenser/internal/store"
)

const selectList = `SELECT id, name, all_prompts, used_prompts, created_at FROM prompt_lists`

func (s *Store) Insert(ctx context.Context, l domain.PromptList) error {
	all, used, err := encodePrompts(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prompt_lists (id, name, all_prompts, used_prompts, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Name, all, used, l.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert list %s: %w", l.ID, err)
	}
	s.hub.Notify()
	return nil
}

// Update replaces name and prompts. created_at is immutable and not written.
func (s *Store) Update(ctx context.Context, l domain.PromptList) error {
	all, used, err := encodePrompts(l)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE prompt_lists SET name = ?, all_prompts = ?, used_prompts = ? WHERE id = ?`,
		l.Name, all, used, l.ID)
	if err != nil {
		return fmt.Errorf("update list %s: %w", l.ID, err)
	}
	if err := affectedOrNotFound(res, l.ID); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete list %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM prompt_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list %s: %w", id, err)
	}
	if err := affectedOrNotFound(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cooldowns WHERE list_id = ?`, id); err != nil {
		return fmt.Errorf("delete cooldown %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete list %s: %w", id, err)
	}

	s.hub.Notify()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.PromptList, error) {
	row := s.db.QueryRowContext(ctx, selectList+` WHERE id = ?`, id)
	l, err := scanList(row)
	if isNoRows(err) {
		return domain.PromptList{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return domain.PromptList{}, fmt.Errorf("get list %s: %w", id, err)
	}
	return l, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.PromptList, error) {
	rows, err := s.db.QueryContext(ctx, selectList+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list prompt lists: %w", err)
	}
	defer rows.Close()

	lists := []domain.PromptList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// Subscribe streams snapshots to watchers in this process.
func (s *Store) Subscribe(ctx context.Context) (<-chan []domain.PromptList, error) {
	return store.Stream(ctx, s.hub.Watch(ctx), s.GetAll, nil), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(row scanner) (domain.PromptList, error) {
	var (
		l         domain.PromptList
		all, used string
		createdMs int64
	)
	if err := row.Scan(&l.ID, &l.Name, &all, &used, &createdMs); err != nil {
		return domain.PromptList{}, err
	}
	if err := json.Unmarshal([]byte(all), &l.AllPrompts); err != nil {
		return domain.PromptList{}, fmt.Errorf("decode all_prompts: %w", err)
	}
	if err := json.Unmarshal([]byte(used), &l.UsedPrompts); err != nil {
		return domain.PromptList{}, fmt.Errorf("decode used_prompts: %w", err)
	}
	if l.UsedPrompts == nil {
		l.UsedPrompts = []string{}
	}
	l.CreatedAt = time.UnixMilli(createdMs).UTC()
	return l, nil
}

func encodePrompts(l domain.PromptList) (string, string, error) {
	used := l.UsedPrompts
	if used == nil {
		used = []string{}
	}
	all, err := json.Marshal(l.AllPrompts)
	if err != nil {
		return "", "", fmt.Errorf("encode all_prompts: %w", err)
	}
	u, err := json.Marshal(used)
	if err != nil {
		return "", "", fmt.Errorf("encode used_prompts: %w", err)
	}
	return string(all), string(u), nil
}

