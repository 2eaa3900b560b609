package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/ports"
)

// EliminationLogRepositoryImpl implements EliminationLogRepository for PostgreSQL
type EliminationLogRepositoryImpl struct {
	db *sqlx.DB
}

// NewEliminationLogRepository creates a new PostgreSQL elimination log repository
func NewEliminationLogRepository(db *sqlx.DB) ports.EliminationLogRepository {
	return &EliminationLogRepositoryImpl{db: db}
}

// SaveLog stores the entries of one method in a single transaction
func (r *EliminationLogRepositoryImpl) SaveLog(ctx context.Context, sessionID core.ID, method spc.Method, entries []spc.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO elimination_logs (session_id, method, round, criterion, row_id, eliminated_value, eliminated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sessionID.String(), string(method), e.Round, e.Criterion, e.ID, e.Value, e.At)
		if err != nil {
			return fmt.Errorf("failed to insert elimination log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit elimination log: %w", err)
	}
	return nil
}

// ListLog returns every stored entry of a session
func (r *EliminationLogRepositoryImpl) ListLog(ctx context.Context, sessionID core.ID) ([]spc.LogEntry, error) {
	var entries []spc.LogEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT round, method, criterion, row_id, eliminated_value, eliminated_at
		FROM elimination_logs
		WHERE session_id = $1
		ORDER BY method, round, id
	`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list elimination log: %w", err)
	}
	return entries, nil
}

// DeleteLog removes every entry of a session
func (r *EliminationLogRepositoryImpl) DeleteLog(ctx context.Context, sessionID core.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM elimination_logs WHERE session_id = $1`, sessionID.String())
	return err
}
