package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/model"
)

var ErrInvalidLeaveEvent = errors.New("invalid leave event")

// maxClockSkew bounds how far a client timestamp may run ahead of the server.
const maxClockSkew = 5 * time.Minute

// LeaveEventService queues leave events for LeaveEventWorker. Events are
// review data only and never change an attempt.
type LeaveEventService struct {
	rdb *redis.Client
	now func() time.Time
	log zerolog.Logger
}

// NewLeaveEventService creates a new LeaveEventService.
func NewLeaveEventService(rdb *redis.Client, log zerolog.Logger) *LeaveEventService {
	return &LeaveEventService{
		rdb: rdb,
		now: time.Now,
		log: log.With().Str("component", "leave_event_service").Logger(),
	}
}

// Record validates ev and pushes it onto the persistence queue.
func (s *LeaveEventService) Record(ctx context.Context, ev model.LeaveEvent) error {
	ev, err := NormalizeLeaveEvent(ev, s.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal leave event: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistLeaveEventsQueue, data).Err(); err != nil {
		return fmt.Errorf("queue leave event: %w", err)
	}

	s.log.Debug().
		Int("learner_id", ev.LearnerID).
		Int("course_id", ev.CourseID).
		Str("kind", string(ev.Kind)).
		Msg("Leave event queued")
	return nil
}

// NormalizeLeaveEvent rejects malformed events and clamps timestamps that are
// missing or too far in the future to now.
func NormalizeLeaveEvent(ev model.LeaveEvent, now time.Time) (model.LeaveEvent, error) {
	if !ev.Kind.Valid() {
		return ev, fmt.Errorf("%w: unknown kind %q", ErrInvalidLeaveEvent, ev.Kind)
	}
	if ev.CourseID <= 0 || ev.LearnerID <= 0 {
		return ev, fmt.Errorf("%w: course and learner are required", ErrInvalidLeaveEvent)
	}
	if ev.SessionID == uuid.Nil {
		return ev, fmt.Errorf("%w: session id is required", ErrInvalidLeaveEvent)
	}
	if ev.OccurredAt.IsZero() || ev.OccurredAt.After(now.Add(maxClockSkew)) {
		ev.OccurredAt = now
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	return ev, nil
}
