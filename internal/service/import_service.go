// Package service contains the import and backtest orchestration built on
// top of the adapters, stores and engine.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/yourorg/backtest-service/internal/adapter"
	"github.com/yourorg/backtest-service/internal/config"
	"github.com/yourorg/backtest-service/internal/errs"
	"github.com/yourorg/backtest-service/internal/eventbus"
	"github.com/yourorg/backtest-service/internal/model"
)

// CandleStore is the persistence contract the import pipeline depends on.
// SaveCandles must be an idempotent upsert on the candle natural key.
type CandleStore interface {
	SaveCandles(ctx context.Context, candles []model.Candle) error
	GetCandles(ctx context.Context, symbol, source, interval string, start, end *time.Time, limit *int) ([]model.Candle, error)
}

// ImportTaskStore persists import task state. ListImportTasks also
// returns the total row count matching the filter.
type ImportTaskStore interface {
	SaveImportTask(ctx context.Context, task *model.ImportTask) error
	GetImportTask(ctx context.Context, id string) (*model.ImportTask, error)
	ListImportTasks(ctx context.Context, statuses []string, limit, offset int) ([]model.ImportTask, int, error)
}

// ImportService splits a historical range into bounded chunks, fetches
// them concurrently with retry, persists the results idempotently and
// reports progress on the event bus.
type ImportService struct {
	adapters *adapter.Registry
	candles  CandleStore
	tasks    ImportTaskStore
	bus      *eventbus.Bus
	cfg      config.ImportConfig
	logger   *zap.Logger

	mu     sync.Mutex
	active map[string]*taskState
}

// taskState is the in-memory side of one running import. Task mutations
// are serialized through its mutex so concurrent chunks never lose
// progress updates.
type taskState struct {
	mu        sync.Mutex
	task      *model.ImportTask
	cancelled bool
	failure   error
}

func (st *taskState) stopRequested() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cancelled || st.failure != nil
}

func (st *taskState) recordFailure(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failure == nil {
		st.failure = err
	}
}

func (st *taskState) snapshot() model.ImportTask {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.task
}

// NewImportService creates an import service.
func NewImportService(
	adapters *adapter.Registry,
	candles CandleStore,
	tasks ImportTaskStore,
	bus *eventbus.Bus,
	cfg config.ImportConfig,
	logger *zap.Logger,
) *ImportService {
	// Guard against zero-value configs built outside the loader: a zero
	// semaphore weight would block every chunk forever, and a zero fetch
	// timeout would expire every attempt immediately.
	if cfg.ConcurrentChunks < 1 {
		cfg.ConcurrentChunks = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &ImportService{
		adapters: adapters,
		candles:  candles,
		tasks:    tasks,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		active:   make(map[string]*taskState),
	}
}

// StartImport validates the request, persists a pending task and starts
// ingestion in the background. The returned task handle reflects the
// pending state; callers poll GetImportTask for progress.
func (s *ImportService) StartImport(ctx context.Context, req *model.ImportRequest) (*model.ImportTask, error) {
	src, err := s.adapters.Resolve(req.AssetType, req.Source)
	if err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, errs.New(errs.KindConfig,
			"invalid date range: end %s is not after start %s", req.EndTime, req.StartTime)
	}

	now := time.Now().UTC()
	task := &model.ImportTask{
		ID:        uuid.NewString(),
		AssetType: req.AssetType,
		Symbol:    req.Symbol,
		Source:    req.Source,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Interval:  model.NormalizeInterval(req.Interval),
		Status:    model.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.SaveImportTask(ctx, task); err != nil {
		return nil, err
	}

	state := &taskState{task: task}
	s.mu.Lock()
	s.active[task.ID] = state
	s.mu.Unlock()

	go s.runImport(state, src)

	handle := *task
	return &handle, nil
}

// GetImportTask returns the freshest view of a task: live state for
// running imports, the store otherwise. A nil task means not found.
func (s *ImportService) GetImportTask(ctx context.Context, id string) (*model.ImportTask, error) {
	s.mu.Lock()
	state, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		task := state.snapshot()
		return &task, nil
	}
	return s.tasks.GetImportTask(ctx, id)
}

// ListImportTasks lists tasks newest first with optional status filters,
// returning the total matching count alongside the page.
func (s *ImportService) ListImportTasks(ctx context.Context, statuses []string, limit, offset int) ([]model.ImportTask, int, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tasks.ListImportTasks(ctx, statuses, limit, offset)
}

// CancelImport requests cooperative cancellation of a running task. No
// further chunks are scheduled; chunks already in flight complete or fail
// on their own.
func (s *ImportService) CancelImport(ctx context.Context, id string) error {
	s.mu.Lock()
	state, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		task, err := s.tasks.GetImportTask(ctx, id)
		if err != nil {
			return err
		}
		if task == nil {
			return errs.New(errs.KindValidation, "import task %s not found", id)
		}
		return errs.New(errs.KindValidation, "import task %s is already %s", id, task.Status)
	}

	state.mu.Lock()
	state.cancelled = true
	state.mu.Unlock()
	return nil
}

// runImport executes the whole ingestion for one task.
func (s *ImportService) runImport(state *taskState, src adapter.MarketAdapter) {
	ctx := context.Background()
	task := state.task

	defer func() {
		s.mu.Lock()
		delete(s.active, task.ID)
		s.mu.Unlock()
	}()

	chunks := splitChunks(task.StartTime, task.EndTime, chunkWidth(task.AssetType))
	estimated := estimateTotalCandles(task.StartTime, task.EndTime, task.Interval)

	state.mu.Lock()
	task.Status = model.TaskStatusRunning
	task.TotalCandles = estimated
	task.UpdatedAt = time.Now().UTC()
	s.saveTaskLocked(ctx, task)
	state.mu.Unlock()

	s.logger.Info("Import started",
		zap.String("taskID", task.ID),
		zap.String("symbol", task.Symbol),
		zap.String("source", task.Source),
		zap.String("interval", task.Interval),
		zap.Int("chunks", len(chunks)),
		zap.Int("estimatedCandles", estimated))

	sem := semaphore.NewWeighted(int64(s.cfg.ConcurrentChunks))
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		if state.stopRequested() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			state.recordFailure(err)
			break
		}
		// Re-check after the semaphore wait: a cancel or failure may have
		// landed while this chunk was queued.
		if state.stopRequested() {
			sem.Release(1)
			break
		}
		wg.Add(1)
		go func(chunk timeRange) {
			defer wg.Done()
			defer sem.Release(1)

			candles, err := s.fetchChunk(ctx, src, task, chunk)
			if err != nil {
				s.logger.Error("Chunk failed after retries",
					zap.String("taskID", task.ID),
					zap.Time("chunkStart", chunk.start),
					zap.Time("chunkEnd", chunk.end),
					zap.Error(err))
				state.recordFailure(err)
				return
			}
			if err := s.candles.SaveCandles(ctx, candles); err != nil {
				state.recordFailure(err)
				return
			}
			s.reportChunk(ctx, state, len(candles))
		}(chunk)
	}

	wg.Wait()
	s.finishImport(ctx, state)
}

// fetchChunk retrieves one chunk, retrying transient failures with a
// constant delay up to the configured attempt budget. Each attempt runs
// under its own timeout; a timeout counts as a retryable failure.
func (s *ImportService) fetchChunk(
	ctx context.Context,
	src adapter.MarketAdapter,
	task *model.ImportTask,
	chunk timeRange,
) ([]model.Candle, error) {
	var candles []model.Candle

	attempt := 0
	operation := func() error {
		attempt++
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()

		batch, err := src.GetCandles(fetchCtx, task.Symbol, chunk.start, chunk.end, task.Interval)
		if err != nil {
			s.logger.Warn("Chunk fetch failed, will retry",
				zap.String("taskID", task.ID),
				zap.Int("attempt", attempt),
				zap.Time("chunkStart", chunk.start),
				zap.Error(err))
			return err
		}
		candles = batch
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RetryDelay), uint64(s.cfg.RetryCount)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errs.Wrap(errs.KindAdapter, fmt.Errorf("chunk %s-%s: %w",
			chunk.start.Format(time.RFC3339), chunk.end.Format(time.RFC3339), err))
	}
	return candles, nil
}

// reportChunk folds one persisted chunk into task progress and publishes
// it. Progress stays below 1.0 while running; completion sets it exactly.
func (s *ImportService) reportChunk(ctx context.Context, state *taskState, imported int) {
	state.mu.Lock()
	task := state.task
	task.ImportedCandles += imported
	if task.TotalCandles > 0 {
		progress := float64(task.ImportedCandles) / float64(task.TotalCandles)
		if progress > 0.99 {
			progress = 0.99
		}
		if progress > task.Progress {
			task.Progress = progress
		}
	}
	task.UpdatedAt = time.Now().UTC()
	s.saveTaskLocked(ctx, task)
	payload := model.ImportProgressPayload{
		TaskID:          task.ID,
		Symbol:          task.Symbol,
		Progress:        task.Progress,
		ImportedCandles: task.ImportedCandles,
	}
	state.mu.Unlock()

	s.bus.Publish(model.EventImportProgress, payload)
}

// finishImport moves the task into its terminal state.
func (s *ImportService) finishImport(ctx context.Context, state *taskState) {
	state.mu.Lock()
	task := state.task
	now := time.Now().UTC()
	task.UpdatedAt = now

	var completed *model.ImportCompletedPayload
	var failure error

	switch {
	case state.failure != nil:
		failure = state.failure
		task.Status = model.TaskStatusFailed
		task.Error = state.failure.Error()
	case state.cancelled:
		task.Status = model.TaskStatusCancelled
	default:
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.CompletedAt = &now
		completed = &model.ImportCompletedPayload{
			TaskID:          task.ID,
			Symbol:          task.Symbol,
			ImportedCandles: task.ImportedCandles,
		}
	}
	s.saveTaskLocked(ctx, task)
	status := task.Status
	taskID := task.ID
	state.mu.Unlock()

	s.logger.Info("Import finished",
		zap.String("taskID", taskID),
		zap.String("status", status))

	if failure != nil {
		s.bus.Publish(model.EventError, model.ErrorPayload{
			Scope:   "import",
			Message: failure.Error(),
		})
		return
	}
	if completed != nil {
		s.bus.Publish(model.EventImportCompleted, *completed)
	}
}

// saveTaskLocked persists the task; callers hold the task mutex. Store
// failures are logged but do not interrupt the import, since the in-memory
// state remains authoritative until the task finishes.
func (s *ImportService) saveTaskLocked(ctx context.Context, task *model.ImportTask) {
	if err := s.tasks.SaveImportTask(ctx, task); err != nil {
		s.logger.Error("Failed to persist import task",
			zap.String("taskID", task.ID),
			zap.Error(err))
	}
}

type timeRange struct {
	start time.Time
	end   time.Time
}

// chunkWidth bounds single-call payload size by asset class: 30 days for
// high-frequency crypto series, 90 for stocks and funds, 365 otherwise.
func chunkWidth(assetType string) time.Duration {
	switch assetType {
	case model.AssetTypeCrypto:
		return 30 * 24 * time.Hour
	case model.AssetTypeStock, model.AssetTypeFund:
		return 90 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// splitChunks cuts [start, end) into width-sized ranges; the final chunk
// keeps the remainder.
func splitChunks(start, end time.Time, width time.Duration) []timeRange {
	var chunks []timeRange
	for cursor := start; cursor.Before(end); {
		chunkEnd := cursor.Add(width)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, timeRange{start: cursor, end: chunkEnd})
		cursor = chunkEnd
	}
	return chunks
}

// estimateTotalCandles sizes the range for progress reporting.
func estimateTotalCandles(start, end time.Time, interval string) int {
	days := end.Sub(start).Hours() / 24
	estimated := int(days * model.CandlesPerDay(interval))
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
