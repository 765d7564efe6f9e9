package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/studioops/fulfillment-be/shared/postgresql"
)

// Storage is the Postgres implementation of the pipeline store. Status
// changes are guarded with compare-and-swap updates so a lost race surfaces
// as a conflict instead of a silent overwrite.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage backed by the shared PostgreSQL client.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
