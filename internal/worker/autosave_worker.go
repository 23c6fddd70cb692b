package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

const (
	AutosaveBatchSize    = 100
	AutosaveBatchTimeout = 2 * time.Second
	AutosavePollTimeout  = 1 * time.Second
	AutosaveRetryDelay   = 5 * time.Second
)

// DraftStore persists autosaved answers. Implemented by repository.AttemptRepository.
type DraftStore interface {
	SaveDraftAnswers(ctx context.Context, drafts []repository.DraftAnswer) error
}

// AutosaveWorker consumes the persist answers queue and upserts draft answers
// into PostgreSQL in batches.
type AutosaveWorker struct {
	store DraftStore
	rdb   *redis.Client
	queue string
	log   zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(store DraftStore, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		store: store,
		rdb:   rdb,
		queue: config.WorkerKey.PersistAnswersQueue,
		log:   log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine. When ctx is cancelled
// the pending batch is flushed and the queue is drained before returning.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]string, 0, AutosaveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AutosaveBatchSize || time.Since(lastFlush) >= AutosaveBatchTimeout) {
			if !w.flush(ctx, batch) {
				sleepCtx(ctx, AutosaveRetryDelay)
			}
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			drainCtx := context.Background()
			w.flush(drainCtx, batch)
			w.drain(drainCtx)
			w.log.Info().Msg("Worker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, AutosavePollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			batch = append(batch, item[1])
		}
	}
}

// flush persists raw queue items and pushes them back on failure.
// It reports whether the write succeeded.
func (w *AutosaveWorker) flush(ctx context.Context, raws []string) bool {
	if len(raws) == 0 {
		return true
	}

	drafts, bad := decodeDrafts(raws)
	if bad > 0 {
		w.log.Error().Int("count", bad).Msg("Dropped malformed payloads")
	}
	if len(drafts) == 0 {
		return true
	}

	if err := w.store.SaveDraftAnswers(ctx, drafts); err != nil {
		w.log.Error().Err(err).Int("count", len(drafts)).Msg("Persist error, requeueing")
		if err := w.rdb.LPush(context.Background(), w.queue, requeueValues(raws)...).Err(); err != nil {
			w.log.Error().Err(err).Msg("Requeue failed, answers remain in the attempt cache only")
		}
		return false
	}

	w.log.Debug().Int("count", len(drafts)).Msg("Draft answers persisted")
	return true
}

// requeueValues orders a failed batch for LPUSH so it returns to the head of the
// queue in its original order, ahead of newer autosaves.
func requeueValues(raws []string) []interface{} {
	values := make([]interface{}, len(raws))
	for i, r := range raws {
		values[len(raws)-1-i] = r
	}
	return values
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raws, err := w.rdb.LPopCount(ctx, w.queue, AutosaveBatchSize).Result()
		if err != nil || len(raws) == 0 {
			break
		}
		if !w.flush(ctx, raws) {
			break
		}
		drained += len(raws)
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

// decodeDrafts parses queue payloads. When a batch holds several answers for
// the same question of the same attempt only the latest is kept.
func decodeDrafts(raws []string) (drafts []repository.DraftAnswer, bad int) {
	type key struct{ attempt, question uuid.UUID }
	index := make(map[key]int, len(raws))

	for _, raw := range raws {
		var msg model.DraftAnswerMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil ||
			msg.AttemptID == uuid.Nil || msg.QuestionID == uuid.Nil {
			bad++
			continue
		}

		d := repository.DraftAnswer{
			AttemptID:       msg.AttemptID,
			QuestionID:      msg.QuestionID,
			SelectedAnswers: msg.Answers,
		}
		k := key{msg.AttemptID, msg.QuestionID}
		if i, ok := index[k]; ok {
			drafts[i] = d
			continue
		}
		index[k] = len(drafts)
		drafts = append(drafts, d)
	}
	return drafts, bad
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
