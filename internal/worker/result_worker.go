package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore is the persistence the worker writes finished attempts to.
type ResultStore interface {
	BulkInsert(ctx context.Context, batch []model.Result) (int64, error)
	Create(ctx context.Context, res *model.Result) (bool, error)
}

// ResultWorker drains the persist_results_queue Redis list into PostgreSQL.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.Result, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.drain(batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(ResultPollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			res, ok := w.decode(item[1])
			if ok {
				batch = append(batch, res)
			}
		}
	}
}

func (w *ResultWorker) decode(raw string) (model.Result, bool) {
	var res model.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return res, false
	}
	return res, true
}

// drain flushes what is in memory plus whatever is still queued, so a
// graceful shutdown leaves no finished attempt behind.
func (w *ResultWorker) drain(batch []model.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		for len(batch) < ResultBatchSize {
			raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				break
			}
			if res, ok := w.decode(raw); ok {
				batch = append(batch, res)
			}
		}
		if len(batch) == 0 {
			return
		}
		w.flushSafe(ctx, batch)
		if ctx.Err() != nil {
			return
		}
		batch = batch[:0]
	}
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.Result) {
	if len(batch) == 0 {
		return
	}

	inserted, err := w.store.BulkInsert(ctx, batch)
	if err == nil {
		w.log.Debug().Int("batch", len(batch)).Int64("inserted", inserted).Msg("Results persisted")
		return
	}

	w.log.Warn().Err(err).Int("batch", len(batch)).Msg("bulk result insert failed, using fallback")
	for i := range batch {
		if _, err := w.store.Create(ctx, &batch[i]); err != nil {
			w.log.Error().Err(err).Str("result_id", batch[i].ID.String()).Msg("persistSingle failed, requeueing")
			w.requeue(batch[i])
		}
	}
}

func (w *ResultWorker) requeue(res model.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("result_id", res.ID.String()).Msg("Requeue failed, result lost")
	}
}
