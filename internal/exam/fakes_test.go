package exam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/model"
)

// fakeBackend records calls. When gate is set, Submit blocks until a value
// arrives on it.
type fakeBackend struct {
	mu         sync.Mutex
	questions  []model.Question
	fetchErr   error
	submitErrs []error
	submits    []model.SubmitRequest
	keys       []string
	gate       chan struct{}
	entered    chan struct{}
	attemptID  uuid.UUID
}

func newFakeBackend(n int) *fakeBackend {
	return &fakeBackend{
		questions: makeQuestions(n),
		attemptID: uuid.New(),
	}
}

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		id := i + 1
		qs[i] = model.Question{
			ID:           id,
			QuestionText: fmt.Sprintf("Question %d", id),
			OptionA:      "first",
			OptionB:      "second",
			OptionC:      "third",
			OptionD:      "fourth",
		}
	}
	return qs
}

func (b *fakeBackend) RandomQuestions(ctx context.Context, courseID int) ([]model.Question, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return b.questions, nil
}

func (b *fakeBackend) Submit(ctx context.Context, req model.SubmitRequest, key string) (*model.Attempt, error) {
	b.mu.Lock()
	b.submits = append(b.submits, req)
	b.keys = append(b.keys, key)
	var err error
	if len(b.submitErrs) > 0 {
		err = b.submitErrs[0]
		b.submitErrs = b.submitErrs[1:]
	}
	gate, entered := b.gate, b.entered
	b.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &model.Attempt{ID: b.attemptID, UserID: req.UserID, CourseID: req.CourseID}, nil
}

func (b *fakeBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submits)
}

func (b *fakeBackend) lastSubmit() model.SubmitRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits[len(b.submits)-1]
}

type fakeNavigator struct {
	mu    sync.Mutex
	shown []uuid.UUID
}

func (n *fakeNavigator) ShowResult(id uuid.UUID) {
	n.mu.Lock()
	n.shown = append(n.shown, id)
	n.mu.Unlock()
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) ticker(i int) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

type fakeGuard struct {
	mu       sync.Mutex
	handler  LeaveHandler
	released bool
}

func (g *fakeGuard) Register(h LeaveHandler) func() {
	g.mu.Lock()
	g.handler = h
	g.released = false
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.handler = nil
		g.released = true
		g.mu.Unlock()
	}
}

func (g *fakeGuard) fire(kind model.LeaveKind) (LeaveDecision, bool) {
	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	if h == nil {
		return LeaveAllow, false
	}
	return h(kind), true
}

type fakeReporter struct {
	mu     sync.Mutex
	events []model.LeaveEvent
}

func (r *fakeReporter) ReportLeave(ev model.LeaveEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

var errBoom = errors.New("boom")

type harness struct {
	backend  *fakeBackend
	nav      *fakeNavigator
	clock    *fakeClock
	guard    *fakeGuard
	reporter *fakeReporter
	session  *Session
}

func newHarness(n int, duration time.Duration) *harness {
	h := &harness{
		backend:  newFakeBackend(n),
		nav:      &fakeNavigator{},
		clock:    newFakeClock(),
		guard:    &fakeGuard{},
		reporter: &fakeReporter{},
	}
	h.session = NewSession(Options{
		CourseID:  7,
		UserID:    42,
		Duration:  duration,
		Backend:   h.backend,
		Navigator: h.nav,
		Guard:     h.guard,
		Reporter:  h.reporter,
		Clock:     h.clock,
		Log:       zerolog.Nop(),
	})
	return h
}

// started loads and starts the session.
func (h *harness) started(t interface {
	Helper()
	Fatalf(string, ...any)
}) *Session {
	t.Helper()
	if err := h.session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return h.session
}
