package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/backtest-service/internal/errs"
)

// EnsureSchema creates the candle and import task tables when missing.
// All statements are idempotent so repeated startups are safe.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol      TEXT             NOT NULL,
			source      TEXT             NOT NULL,
			interval    TEXT             NOT NULL,
			timestamp   TIMESTAMPTZ      NOT NULL,
			open        DOUBLE PRECISION NOT NULL,
			high        DOUBLE PRECISION NOT NULL,
			low         DOUBLE PRECISION NOT NULL,
			close       DOUBLE PRECISION NOT NULL,
			volume      DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  TIMESTAMPTZ,
			PRIMARY KEY (symbol, source, interval, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS import_tasks (
			id               TEXT             PRIMARY KEY,
			asset_type       TEXT             NOT NULL,
			symbol           TEXT             NOT NULL,
			source           TEXT             NOT NULL,
			start_time       TIMESTAMPTZ      NOT NULL,
			end_time         TIMESTAMPTZ      NOT NULL,
			interval         TEXT             NOT NULL,
			status           TEXT             NOT NULL,
			progress         DOUBLE PRECISION NOT NULL DEFAULT 0,
			error            TEXT             NOT NULL DEFAULT '',
			total_candles    INTEGER          NOT NULL DEFAULT 0,
			imported_candles INTEGER          NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ      NOT NULL,
			updated_at       TIMESTAMPTZ      NOT NULL,
			completed_at     TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_tasks_status_created
			ON import_tasks (status, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errs.Wrap(errs.KindPersistence, err)
		}
	}
	return nil
}
