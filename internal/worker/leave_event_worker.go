package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Redis BLPOP needs >= 1s
)

var leaveEventColumns = []string{"session_id", "course_id", "learner_id", "kind", "occurred_at"}

// LeaveEventWorker drains the leave event queue into exam_leave_events in
// batches. A failed COPY falls back to row inserts; rows that still fail are
// pushed back onto the queue.
type LeaveEventWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewLeaveEventWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *LeaveEventWorker {
	return &LeaveEventWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "leave_event_worker").Logger(),
	}
}

func (w *LeaveEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaveEventWorker started")

	buffer := make([]model.LeaveEvent, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistLeaveEventsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		ev, ok := decodeLeaveEvent(result[1])
		if !ok {
			w.log.Error().Str("data", result[1]).Msg("Discarding malformed leave event")
			continue
		}
		buffer = append(buffer, ev)
	}
}

// decodeLeaveEvent parses a queued event. Malformed payloads cannot be
// retried and are reported as !ok.
func decodeLeaveEvent(raw string) (model.LeaveEvent, bool) {
	var ev model.LeaveEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return ev, false
	}
	return ev, ev.Kind.Valid()
}

func leaveEventRow(ev model.LeaveEvent) []any {
	return []any{ev.SessionID, ev.CourseID, ev.LearnerID, string(ev.Kind), ev.OccurredAt}
}

func (w *LeaveEventWorker) flushSafe(ctx context.Context, batch []model.LeaveEvent) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Leave events persisted")
}

func (w *LeaveEventWorker) bulkInsert(ctx context.Context, batch []model.LeaveEvent) error {
	rows := make([][]any, 0, len(batch))
	for _, ev := range batch {
		rows = append(rows, leaveEventRow(ev))
	}
	_, err := w.pool.CopyFrom(ctx,
		pgx.Identifier{"exam_leave_events"},
		leaveEventColumns,
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *LeaveEventWorker) fallbackInsert(ctx context.Context, batch []model.LeaveEvent) {
	var requeue []model.LeaveEvent
	for _, ev := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO exam_leave_events (session_id, course_id, learner_id, kind, occurred_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			leaveEventRow(ev)...,
		)
		if err != nil {
			w.log.Error().Err(err).Int("learner_id", ev.LearnerID).Msg("Insert failed, requeueing")
			requeue = append(requeue, ev)
		}
	}
	if len(requeue) > 0 {
		w.requeue(ctx, requeue)
	}
}

func (w *LeaveEventWorker) requeue(ctx context.Context, items []model.LeaveEvent) {
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.PersistLeaveEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue leave events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed leave events")
	// Back off so a database outage does not spin the loop.
	sleepCtx(ctx, 2*time.Second)
}

func (w *LeaveEventWorker) shutdown(buffer []model.LeaveEvent) {
	w.log.Info().Int("pending", len(buffer)).Msg("Worker stopping, flushing remaining buffer")
	if len(buffer) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.flushSafe(ctx, buffer)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
