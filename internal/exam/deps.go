package exam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-learn/internal/model"
)

// Backend is the exam service the session talks to.
type Backend interface {
	RandomQuestions(ctx context.Context, courseID int) ([]model.Question, error)
	// Submit records the attempt. idempotencyKey is stable for the session so
	// a retried submission cannot create a second attempt server-side.
	Submit(ctx context.Context, req model.SubmitRequest, idempotencyKey string) (*model.Attempt, error)
}

// Navigator moves the learner to the result view of an accepted attempt.
type Navigator interface {
	ShowResult(attemptID uuid.UUID)
}

// LeaveDecision is a guard handler's answer to a leave attempt.
type LeaveDecision int

const (
	// LeaveAllow lets the leave proceed without prompting.
	LeaveAllow LeaveDecision = iota
	// LeaveConfirm asks the runtime to confirm with the learner first.
	LeaveConfirm
)

// LeaveHandler is invoked by a LeaveGuard on every leave attempt.
type LeaveHandler func(kind model.LeaveKind) LeaveDecision

// LeaveGuard is the runtime capability that detects close attempts and
// focus loss. Register returns a release func that unregisters h.
type LeaveGuard interface {
	Register(h LeaveHandler) (release func())
}

// LeaveReporter receives leave events for review. Implementations must not
// block; delivery is best-effort.
type LeaveReporter interface {
	ReportLeave(ev model.LeaveEvent)
}

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts time for the countdown.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealClock is the wall clock.
var RealClock Clock = realClock{}
