package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/model"
)

// ImportTaskRepository handles database operations for import tasks.
type ImportTaskRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewImportTaskRepository creates a new import task repository.
func NewImportTaskRepository(db *sqlx.DB, logger *zap.Logger) *ImportTaskRepository {
	return &ImportTaskRepository{
		db:     db,
		logger: logger,
	}
}

// SaveImportTask upserts the full task row by id. The import service
// serializes writes per task, so last-write-wins is safe here.
func (r *ImportTaskRepository) SaveImportTask(ctx context.Context, task *model.ImportTask) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_tasks (
			id, asset_type, symbol, source, start_time, end_time, interval,
			status, progress, error, total_candles, imported_candles,
			created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id)
		DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			error = EXCLUDED.error,
			total_candles = EXCLUDED.total_candles,
			imported_candles = EXCLUDED.imported_candles,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`,
		task.ID, task.AssetType, task.Symbol, task.Source,
		task.StartTime, task.EndTime, task.Interval,
		task.Status, task.Progress, task.Error,
		task.TotalCandles, task.ImportedCandles,
		task.CreatedAt, task.UpdatedAt, task.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save import task",
			zap.Error(err),
			zap.String("taskID", task.ID))
		return errs.Wrap(errs.KindPersistence, err)
	}
	return nil
}

// GetImportTask retrieves a task by id, returning nil when none exists.
func (r *ImportTaskRepository) GetImportTask(ctx context.Context, id string) (*model.ImportTask, error) {
	var task model.ImportTask
	err := r.db.GetContext(ctx, &task, `
		SELECT id, asset_type, symbol, source, start_time, end_time, interval,
		       status, progress, error, total_candles, imported_candles,
		       created_at, updated_at, completed_at
		FROM import_tasks
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get import task",
			zap.Error(err),
			zap.String("taskID", id))
		return nil, errs.Wrap(errs.KindPersistence, err)
	}
	return &task, nil
}

// ListImportTasks retrieves tasks newest first, optionally filtered by
// status, with limit/offset pagination. The second return value is the
// total row count matching the filter, for pagination metadata.
func (r *ImportTaskRepository) ListImportTasks(
	ctx context.Context,
	statuses []string,
	limit, offset int,
) ([]model.ImportTask, int, error) {
	where := ""
	args := []interface{}{}
	if len(statuses) > 0 {
		where = " WHERE status = ANY($1)"
		args = append(args, pq.Array(statuses))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM import_tasks" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		r.logger.Error("Failed to count import tasks", zap.Error(err))
		return nil, 0, errs.Wrap(errs.KindPersistence, err)
	}

	query := `
		SELECT id, asset_type, symbol, source, start_time, end_time, interval,
		       status, progress, error, total_candles, imported_candles,
		       created_at, updated_at, completed_at
		FROM import_tasks
	` + where + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var tasks []model.ImportTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		r.logger.Error("Failed to list import tasks", zap.Error(err))
		return nil, 0, errs.Wrap(errs.KindPersistence, err)
	}
	return tasks, total, nil
}
