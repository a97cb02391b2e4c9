package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Create(ctx context.Context, a domain.AuditRecord) (*domain.AuditRecord, error) {
	answers, err := encodeAnswers(a.Answers)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO audits (auditor, area, audit_date, answers) VALUES (?, ?, ?, ?)
	`, a.Auditor, a.Area, a.Date, answers)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *AuditStore) GetByID(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, auditor, area, audit_date, answers, created_at FROM audits WHERE id = ?
	`, id)

	a, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return a, nil
}

// List returns every audit in insertion order.
func (s *AuditStore) List(ctx context.Context) ([]*domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, auditor, area, audit_date, answers, created_at FROM audits ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []*domain.AuditRecord
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}

	return audits, nil
}

// DeleteAll removes every audit and returns how many were deleted.
func (s *AuditStore) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audits`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audits: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(sc scanner) (*domain.AuditRecord, error) {
	a := &domain.AuditRecord{}
	var answers string
	if err := sc.Scan(&a.ID, &a.Auditor, &a.Area, &a.Date, &answers, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers of audit %d: %w", a.ID, err)
	}
	if a.Answers == nil {
		a.Answers = map[int]domain.AnswerEntry{}
	}
	return a, nil
}

func encodeAnswers(answers map[int]domain.AnswerEntry) (string, error) {
	if answers == nil {
		return "{}", nil
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("failed to encode answers: %w", err)
	}
	return string(b), nil
}
