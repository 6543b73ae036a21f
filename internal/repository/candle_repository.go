// Package repository implements the Postgres-backed candle and import
// task stores.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

// CandleRepository handles database operations for normalized candles.
type CandleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCandleRepository creates a new candle repository.
func NewCandleRepository(db *sqlx.DB, logger *zap.Logger) *CandleRepository {
	return &CandleRepository{
		db:     db,
		logger: logger,
	}
}

// SaveCandles upserts a batch of candles on the natural key
// (symbol, source, interval, timestamp). Re-running with identical data
// is a content no-op, which keeps retries and re-imports safe.
func (r *CandleRepository) SaveCandles(ctx context.Context, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return errs.Wrap(errs.KindPersistence, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO candles (symbol, source, interval, timestamp, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, source, interval, timestamp)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		r.logger.Error("Failed to prepare candle upsert", zap.Error(err))
		return errs.Wrap(errs.KindPersistence, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range candles {
		_, err = stmt.ExecContext(ctx,
			c.Symbol, c.Source, c.Interval, c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.Volume, now)
		if err != nil {
			r.logger.Error("Failed to upsert candle",
				zap.Error(err),
				zap.String("symbol", c.Symbol),
				zap.Time("timestamp", c.Timestamp))
			return errs.Wrap(errs.KindPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit candle batch", zap.Error(err))
		return errs.Wrap(errs.KindPersistence, err)
	}
	return nil
}

// GetCandles retrieves candles for a symbol/source/interval in ascending
// timestamp order, bounded by the optional time range.
func (r *CandleRepository) GetCandles(
	ctx context.Context,
	symbol, source, interval string,
	start, end *time.Time,
	limit *int,
) ([]model.Candle, error) {
	query := `
		SELECT symbol, source, interval, timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND source = $2 AND interval = $3
	`
	args := []interface{}{symbol, source, interval}
	argCount := 4

	if start != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *start)
		argCount++
	}
	if end != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *end)
		argCount++
	}

	query += " ORDER BY timestamp"

	if limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, *limit)
	}

	var candles []model.Candle
	if err := r.db.SelectContext(ctx, &candles, query, args...); err != nil {
		r.logger.Error("Failed to get candles",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.String("source", source),
			zap.String("interval", interval))
		return nil, errs.Wrap(errs.KindPersistence, err)
	}
	return candles, nil
}

// CountCandles returns the number of stored candles for a series.
func (r *CandleRepository) CountCandles(ctx context.Context, symbol, source, interval string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM candles
		WHERE symbol = $1 AND source = $2 AND interval = $3
	`, symbol, source, interval)
	if err != nil {
		r.logger.Error("Failed to count candles",
			zap.Error(err),
			zap.String("symbol", symbol))
		return 0, errs.Wrap(errs.KindPersistence, err)
	}
	return count, nil
}
