package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Create(ctx context.Context, name string, value float64) (*domain.Snapshot, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, value) VALUES (?, ?)
	`, name, value)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	snap := &domain.Snapshot{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, value, created_at FROM snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Name, &snap.Value, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// List returns snapshots ordered by name, which holds the period label
// (for example "2026-09") the history chart is drawn in.
func (s *SnapshotStore) List(ctx context.Context) ([]*domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, value, created_at FROM snapshots ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.Snapshot
	for rows.Next() {
		snap := &domain.Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Value, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}
