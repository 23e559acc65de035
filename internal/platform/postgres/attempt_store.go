package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lecgen/internal/domain"
	"github.com/phrazzld/lecgen/internal/store"
)

// PostgresAttemptStore implements store.AttemptStore on PostgreSQL.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// NewPostgresAttemptStore creates a store on a connection or transaction.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With("component", "attempt_store"),
	}
}

// WithTx returns a store that runs its queries in tx.
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) *PostgresAttemptStore {
	return &PostgresAttemptStore{db: tx, logger: s.logger}
}

// Create implements store.AttemptStore. Numbers are assigned under a
// per-task advisory lock so concurrent creators never collide.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.QuizAttempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var number int
	insert := func(ctx context.Context, q store.DBTX) error {
		if _, err := q.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, attempt.TaskID); err != nil {
			return err
		}

		if err := q.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(number), 0) + 1 FROM quiz_attempts WHERE task_id = $1`,
			attempt.TaskID,
		).Scan(&number); err != nil {
			return err
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO quiz_attempts
				(id, session_id, task_id, number, correct_count, total, percentage, passed, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			attempt.ID,
			attempt.SessionID,
			attempt.TaskID,
			number,
			attempt.CorrectCount,
			attempt.Total,
			attempt.Percentage,
			attempt.Passed,
			attempt.FinishedAt,
		)
		return err
	}

	var err error
	if db, ok := s.db.(*sql.DB); ok {
		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return insert(ctx, tx)
		})
	} else {
		err = insert(ctx, s.db)
	}
	if err != nil {
		s.logger.Error("failed to create quiz attempt",
			"attempt_id", attempt.ID,
			"task_id", attempt.TaskID,
			"error", err)
		return MapError(err)
	}

	attempt.Number = number
	return nil
}

// ListByTask implements store.AttemptStore.
func (s *PostgresAttemptStore) ListByTask(ctx context.Context, taskID string) ([]*domain.QuizAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, task_id, number, correct_count, total, percentage, passed, finished_at
		FROM quiz_attempts
		WHERE task_id = $1
		ORDER BY number ASC`, taskID)
	if err != nil {
		s.logger.Error("failed to query quiz attempts", "task_id", taskID, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	attempts := []*domain.QuizAttempt{}
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.TaskID,
			&a.Number,
			&a.CorrectCount,
			&a.Total,
			&a.Percentage,
			&a.Passed,
			&a.FinishedAt,
		); err != nil {
			return nil, MapError(err)
		}
		a.FinishedAt = a.FinishedAt.UTC()
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return attempts, nil
}

// DeleteByTask implements store.AttemptStore.
func (s *PostgresAttemptStore) DeleteByTask(ctx context.Context, taskID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quiz_attempts WHERE task_id = $1`, taskID)
	if err != nil {
		s.logger.Error("failed to delete quiz attempts", "task_id", taskID, "error", err)
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", store.ErrInternal, err)
	}
	return int(n), nil
}
