package exam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/model"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestLoadMovesToNotStarted checks a successful fetch, including an empty set.
func TestLoadMovesToNotStarted(t *testing.T) {
	for _, n := range []int{0, 5} {
		h := newHarness(n, time.Minute)
		if got := h.session.Snapshot().State; got != StateLoading {
			t.Fatalf("expected LOADING before load, got %s", got)
		}
		if err := h.session.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
		snap := h.session.Snapshot()
		if snap.State != StateNotStarted {
			t.Fatalf("expected NOT_STARTED, got %s", snap.State)
		}
		if len(snap.Questions) != n {
			t.Fatalf("expected %d questions, got %d", n, len(snap.Questions))
		}
	}
}

// TestLoadFailureIsFatal ensures a fetch error parks the session in Error.
func TestLoadFailureIsFatal(t *testing.T) {
	h := newHarness(3, time.Minute)
	h.backend.fetchErr = errBoom

	err := h.session.Load(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if got := h.session.Snapshot().State; got != StateError {
		t.Fatalf("expected ERROR, got %s", got)
	}
	if err := h.session.Load(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected no reload on the same session, got %v", err)
	}
	if err := h.session.Start(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected start to be refused, got %v", err)
	}
}

// TestStartPreconditions covers starting twice and starting an empty exam.
func TestStartPreconditions(t *testing.T) {
	h := newHarness(0, time.Minute)
	if err := h.session.Start(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected start before load to fail, got %v", err)
	}
	if err := h.session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.session.Start(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	h = newHarness(2, 40*time.Minute)
	s := h.started(t)
	snap := s.Snapshot()
	if snap.State != StateInProgress || snap.Index != 0 {
		t.Fatalf("unexpected state after start: %s index %d", snap.State, snap.Index)
	}
	if snap.Clock() != "40:00" {
		t.Fatalf("expected 40:00 on the clock, got %s", snap.Clock())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second start to fail, got %v", err)
	}
}

// TestNavigationStaysInBounds hammers next/previous and out-of-range jumps.
func TestNavigationStaysInBounds(t *testing.T) {
	h := newHarness(5, time.Minute)
	s := h.started(t)

	for i := 0; i < 20; i++ {
		s.NextQuestion()
		if idx := s.Snapshot().Index; idx < 0 || idx > 4 {
			t.Fatalf("index out of range: %d", idx)
		}
	}
	if idx := s.Snapshot().Index; idx != 4 {
		t.Fatalf("expected to stop at last question, got %d", idx)
	}
	if s.NextQuestion() {
		t.Fatal("expected no wraparound past the last question")
	}

	for i := 0; i < 20; i++ {
		s.PreviousQuestion()
	}
	if idx := s.Snapshot().Index; idx != 0 {
		t.Fatalf("expected to stop at first question, got %d", idx)
	}

	s.GoToQuestion(2)
	if s.GoToQuestion(-1) {
		t.Fatal("GoToQuestion(-1) should be a no-op")
	}
	if s.GoToQuestion(999) {
		t.Fatal("GoToQuestion(999) should be a no-op")
	}
	if idx := s.Snapshot().Index; idx != 2 {
		t.Fatalf("expected index 2 to be kept, got %d", idx)
	}
}

// TestNavigationIgnoredOutsideInProgress checks navigation before start.
func TestNavigationIgnoredOutsideInProgress(t *testing.T) {
	h := newHarness(3, time.Minute)
	if err := h.session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if h.session.GoToQuestion(1) || h.session.NextQuestion() {
		t.Fatal("navigation must be ignored before start")
	}
	if err := h.session.SelectAnswer(1, model.OptionA); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
	if got := h.session.Snapshot().Answered(); got != 0 {
		t.Fatalf("expected no answers, got %d", got)
	}
}

// TestSelectAnswerIsIdempotent verifies upsert semantics and validation.
func TestSelectAnswerIsIdempotent(t *testing.T) {
	h := newHarness(3, time.Minute)
	s := h.started(t)

	if err := s.SelectAnswer(2, model.OptionC); err != nil {
		t.Fatalf("select: %v", err)
	}
	first := s.Snapshot().Answers
	if err := s.SelectAnswer(2, model.OptionC); err != nil {
		t.Fatalf("select again: %v", err)
	}
	second := s.Snapshot().Answers
	if len(first) != 1 || len(second) != 1 || second[2] != model.OptionC {
		t.Fatalf("expected a single C answer, got %v then %v", first, second)
	}

	if err := s.SelectAnswer(2, model.OptionA); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := s.Snapshot().Answers[2]; got != model.OptionA {
		t.Fatalf("expected overwrite to A, got %s", got)
	}

	if err := s.SelectAnswer(2, model.OptionUnanswered); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected E to be rejected, got %v", err)
	}
	if err := s.SelectAnswer(99, model.OptionA); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected unknown question, got %v", err)
	}
}

// TestProgressTracksAnswers checks the completion percentage after each select.
func TestProgressTracksAnswers(t *testing.T) {
	h := newHarness(4, time.Minute)
	s := h.started(t)

	if got := s.Snapshot().Progress(); got != 0 {
		t.Fatalf("expected 0%%, got %v", got)
	}
	want := []float64{25, 50, 75, 100}
	for i, q := range s.Snapshot().Questions {
		if err := s.SelectAnswer(q.ID, model.OptionB); err != nil {
			t.Fatalf("select: %v", err)
		}
		if got := s.Snapshot().Progress(); got != want[i] {
			t.Fatalf("after %d answers expected %v%%, got %v", i+1, want[i], got)
		}
	}
}

// TestCurrentAnswered follows the current question's answered flag.
func TestCurrentAnswered(t *testing.T) {
	h := newHarness(2, time.Minute)
	s := h.started(t)

	if s.Snapshot().CurrentAnswered() {
		t.Fatal("fresh question should not be answered")
	}
	_ = s.SelectAnswer(1, model.OptionD)
	if !s.Snapshot().CurrentAnswered() {
		t.Fatal("current question should be answered")
	}
	s.NextQuestion()
	if s.Snapshot().CurrentAnswered() {
		t.Fatal("second question should not be answered")
	}
}

// TestSubmitFillsUnansweredWithE is the five-question, three-answer scenario.
func TestSubmitFillsUnansweredWithE(t *testing.T) {
	h := newHarness(5, time.Minute)
	s := h.started(t)

	_ = s.SelectAnswer(1, model.OptionA)
	_ = s.SelectAnswer(3, model.OptionC)
	_ = s.SelectAnswer(5, model.OptionD)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := h.backend.lastSubmit()
	want := map[int]string{1: "A", 2: "E", 3: "C", 4: "E", 5: "D"}
	if len(req.Answers) != len(want) {
		t.Fatalf("expected %d answers, got %d", len(want), len(req.Answers))
	}
	for id, letter := range want {
		if req.Answers[id] != letter {
			t.Fatalf("question %d: expected %s, got %s", id, letter, req.Answers[id])
		}
	}
	if req.UserID != 42 || req.CourseID != 7 {
		t.Fatalf("unexpected identity in payload: %+v", req)
	}

	snap := s.Snapshot()
	if snap.State != StateTerminal {
		t.Fatalf("expected TERMINAL, got %s", snap.State)
	}
	if snap.AttemptID != h.backend.attemptID {
		t.Fatalf("attempt id not recorded")
	}
	if len(h.nav.shown) != 1 || h.nav.shown[0] != h.backend.attemptID {
		t.Fatalf("expected navigation to the attempt result, got %v", h.nav.shown)
	}
	if !h.guard.released {
		t.Fatal("leave guard should be released after submission")
	}
	if snap.Answered() != 3 {
		t.Fatal("the sentinel must not leak into the session answers")
	}
}

// TestSubmitIsSingleFlight calls submit twice while the first is pending.
func TestSubmitIsSingleFlight(t *testing.T) {
	h := newHarness(3, time.Minute)
	h.backend.gate = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)
	s := h.started(t)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-h.backend.entered

	if got := s.Snapshot(); got.State != StateSubmitting || !got.Submitting {
		t.Fatalf("expected SUBMITTING with in-flight flag, got %s", got.State)
	}
	if err := s.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	if err := s.SelectAnswer(1, model.OptionA); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("answers must be frozen while submitting, got %v", err)
	}

	close(h.backend.gate)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if n := h.backend.submitCount(); n != 1 {
		t.Fatalf("expected exactly one submission, got %d", n)
	}
}

// TestSubmitFailureIsRetryable checks the Submitting → InProgress path.
func TestSubmitFailureIsRetryable(t *testing.T) {
	h := newHarness(2, time.Minute)
	h.backend.submitErrs = []error{errBoom}
	s := h.started(t)
	_ = s.SelectAnswer(1, model.OptionB)

	err := s.Submit(context.Background())
	var subErr *SubmissionError
	if !errors.As(err, &subErr) || !errors.Is(err, errBoom) {
		t.Fatalf("expected SubmissionError wrapping cause, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateInProgress || snap.Submitting {
		t.Fatalf("expected IN_PROGRESS with flag cleared, got %s/%v", snap.State, snap.Submitting)
	}
	if !errors.As(snap.Err, &subErr) {
		t.Fatalf("expected the error to be surfaced on the snapshot, got %v", snap.Err)
	}
	if snap.Answers[1] != model.OptionB {
		t.Fatal("answers must survive a failed submission")
	}

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if h.backend.keys[0] != h.backend.keys[1] || h.backend.keys[0] != s.ID().String() {
		t.Fatalf("retries must reuse the session idempotency key, got %v", h.backend.keys)
	}
	if s.Snapshot().Err != nil {
		t.Fatal("error should clear once the retry succeeds")
	}
}

// TestRequestSubmitWarnsOnGaps checks the unanswered confirmation step.
func TestRequestSubmitWarnsOnGaps(t *testing.T) {
	h := newHarness(4, time.Minute)
	s := h.started(t)
	_ = s.SelectAnswer(1, model.OptionA)

	err := s.RequestSubmit(context.Background(), false)
	var warn *ValidationWarning
	if !errors.As(err, &warn) {
		t.Fatalf("expected ValidationWarning, got %v", err)
	}
	if warn.Unanswered != 3 || warn.Total != 4 {
		t.Fatalf("unexpected warning: %+v", warn)
	}
	if h.backend.submitCount() != 0 {
		t.Fatal("warning must not submit")
	}
	if err := s.RequestSubmit(context.Background(), true); err != nil {
		t.Fatalf("confirmed submit: %v", err)
	}
	if h.backend.submitCount() != 1 {
		t.Fatal("confirmed submit should post once")
	}
}

// TestCountdownSubmitsAtZero lets the clock run out without interaction.
func TestCountdownSubmitsAtZero(t *testing.T) {
	h := newHarness(3, 3*time.Second)
	s := h.started(t)
	ctx := context.Background()

	s.tick(ctx)
	s.tick(ctx)
	if got := s.Snapshot().Remaining; got != 1 {
		t.Fatalf("expected 1s left, got %d", got)
	}
	if h.backend.submitCount() != 0 {
		t.Fatal("no submission before zero")
	}

	s.tick(ctx)
	if h.backend.submitCount() != 1 {
		t.Fatalf("expected automatic submission at zero, got %d", h.backend.submitCount())
	}
	for id, letter := range h.backend.lastSubmit().Answers {
		if letter != model.OptionUnanswered {
			t.Fatalf("question %d: expected E, got %s", id, letter)
		}
	}

	s.tick(ctx)
	snap := s.Snapshot()
	if snap.Remaining != 0 {
		t.Fatalf("remaining must not go negative, got %d", snap.Remaining)
	}
	if snap.State != StateTerminal {
		t.Fatalf("expected TERMINAL, got %s", snap.State)
	}
	if h.backend.submitCount() != 1 {
		t.Fatal("expected a single submission")
	}
}

// TestCountdownZeroWhileSubmitting reaches zero with a submission pending.
func TestCountdownZeroWhileSubmitting(t *testing.T) {
	h := newHarness(2, 2*time.Second)
	h.backend.gate = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)
	s := h.started(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Submit(ctx) }()
	<-h.backend.entered

	s.tick(ctx)
	s.tick(ctx)
	if got := s.Snapshot().Remaining; got != 0 {
		t.Fatalf("expected the clock to reach zero, got %d", got)
	}
	s.tick(ctx)

	close(h.backend.gate)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n := h.backend.submitCount(); n != 1 {
		t.Fatalf("expected one submission, got %d", n)
	}
}

// TestCountdownFailedAutoSubmitAllowsManualRetry keeps the session usable.
func TestCountdownFailedAutoSubmitAllowsManualRetry(t *testing.T) {
	h := newHarness(2, time.Second)
	h.backend.submitErrs = []error{errBoom}
	s := h.started(t)

	s.tick(context.Background())
	snap := s.Snapshot()
	if snap.State != StateInProgress || snap.Remaining != 0 {
		t.Fatalf("expected IN_PROGRESS at 00:00, got %s %s", snap.State, snap.Clock())
	}
	s.tick(context.Background())
	if h.backend.submitCount() != 1 {
		t.Fatal("automatic submission fires only once")
	}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("manual retry: %v", err)
	}
}

// TestAnswersLockedAfterFailedAutoSubmit stops edits past 00:00.
func TestAnswersLockedAfterFailedAutoSubmit(t *testing.T) {
	h := newHarness(3, time.Second)
	h.backend.submitErrs = []error{errBoom}
	s := h.started(t)
	if err := s.SelectAnswer(1, model.OptionA); err != nil {
		t.Fatalf("select before time is up: %v", err)
	}

	s.tick(context.Background())
	if err := s.SelectAnswer(2, model.OptionC); !errors.Is(err, ErrTimeUp) {
		t.Fatalf("expected ErrTimeUp, got %v", err)
	}
	s.HandleKey(Key2)
	snap := s.Snapshot()
	if !snap.TimeUp || len(snap.Answers) != 1 || snap.Answers[1] != model.OptionA {
		t.Fatalf("answers changed after time was up: %+v", snap.Answers)
	}

	// Gaps need no confirmation once time is up.
	if err := s.RequestSubmit(context.Background(), false); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := h.backend.lastSubmit().Answers; got[1] != model.OptionA || got[2] != model.OptionUnanswered {
		t.Fatalf("unexpected resubmitted answers: %v", got)
	}
}

// TestAnswersLockedWhenManualSubmitFailsAtZero covers a manual submit that
// was in flight when the clock ran out.
func TestAnswersLockedWhenManualSubmitFailsAtZero(t *testing.T) {
	h := newHarness(2, time.Second)
	h.backend.gate = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)
	h.backend.submitErrs = []error{errBoom}
	s := h.started(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Submit(ctx) }()
	<-h.backend.entered
	s.tick(ctx)
	close(h.backend.gate)
	<-done

	if snap := s.Snapshot(); snap.State != StateInProgress || !snap.TimeUp {
		t.Fatalf("expected IN_PROGRESS with time up, got %s timeUp=%v", snap.State, snap.TimeUp)
	}
	if err := s.SelectAnswer(1, model.OptionB); !errors.Is(err, ErrTimeUp) {
		t.Fatalf("expected ErrTimeUp, got %v", err)
	}
}

// TestCountdownGoroutineDrivesTicks checks the real goroutine wiring and teardown.
func TestCountdownGoroutineDrivesTicks(t *testing.T) {
	h := newHarness(2, time.Minute)
	s := h.started(t)
	ticker := h.clock.ticker(0)

	ticker.ch <- time.Now()
	ticker.ch <- time.Now()
	waitFor(t, "two ticks", func() bool { return s.Snapshot().Remaining == 58 })

	if err := s.Exit(false); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if !ticker.isStopped() {
		t.Fatal("ticker should be stopped on exit")
	}
	if got := s.Snapshot().Remaining; got != 58 {
		t.Fatalf("remaining changed after exit: %d", got)
	}
}

// TestCountdownStopsWithContext ends the goroutine when the context is done.
func TestCountdownStopsWithContext(t *testing.T) {
	h := newHarness(2, time.Minute)
	if err := h.session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := h.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	ticker := h.clock.ticker(0)
	select {
	case ticker.ch <- time.Now():
		// The goroutine may still win the race once; it must not keep going.
		select {
		case ticker.ch <- time.Now():
			t.Fatal("countdown kept running after cancel")
		case <-time.After(100 * time.Millisecond):
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// TestExitNeedsConfirmationWithAnswers checks the discard confirmation.
func TestExitNeedsConfirmationWithAnswers(t *testing.T) {
	h := newHarness(2, time.Minute)
	s := h.started(t)
	_ = s.SelectAnswer(1, model.OptionA)

	if err := s.Exit(false); !errors.Is(err, ErrExitNeedsConfirm) {
		t.Fatalf("expected confirmation to be required, got %v", err)
	}
	if got := s.Snapshot().State; got != StateInProgress {
		t.Fatalf("expected to stay IN_PROGRESS, got %s", got)
	}
	if err := s.Exit(true); err != nil {
		t.Fatalf("confirmed exit: %v", err)
	}
	if got := s.Snapshot().State; got != StateTerminal {
		t.Fatalf("expected TERMINAL, got %s", got)
	}
	if h.backend.submitCount() != 0 {
		t.Fatal("exit must not submit")
	}
}

// TestLeaveGuardOnlyWithAnswers checks the guard activation conditions.
func TestLeaveGuardOnlyWithAnswers(t *testing.T) {
	h := newHarness(2, time.Minute)
	if _, ok := h.guard.fire(model.LeaveUnload); ok {
		t.Fatal("guard must not be registered before start")
	}
	s := h.started(t)

	if d, _ := h.guard.fire(model.LeaveUnload); d != LeaveAllow {
		t.Fatal("leaving without answers should not need confirmation")
	}
	if s.Snapshot().LeaveWarning || len(h.reporter.events) != 0 {
		t.Fatal("no warning or report without answers")
	}

	_ = s.SelectAnswer(1, model.OptionA)
	if d, _ := h.guard.fire(model.LeaveUnload); d != LeaveConfirm {
		t.Fatal("leaving with answers should need confirmation")
	}
	if d, _ := h.guard.fire(model.LeaveHidden); d != LeaveAllow {
		t.Fatal("focus loss only warns")
	}
	if !s.Snapshot().LeaveWarning {
		t.Fatal("expected the leave warning banner")
	}
	if len(h.reporter.events) != 2 {
		t.Fatalf("expected two reported events, got %d", len(h.reporter.events))
	}
	ev := h.reporter.events[1]
	if ev.Kind != model.LeaveHidden || ev.CourseID != 7 || ev.LearnerID != 42 || ev.SessionID != s.ID() {
		t.Fatalf("unexpected event: %+v", ev)
	}

	_ = s.Exit(true)
	if _, ok := h.guard.fire(model.LeaveUnload); ok {
		t.Fatal("guard should be released after exit")
	}
	if !s.Snapshot().LeaveWarning {
		t.Fatal("warning stays for the rest of the session")
	}
}

// TestHandleKeyDispatch routes arrows and digits through the key map.
func TestHandleKeyDispatch(t *testing.T) {
	h := newHarness(3, time.Minute)
	if h.session.HandleKey(KeyRight) {
		t.Fatal("keys are inactive before start")
	}
	s := h.started(t)

	if !s.HandleKey(KeyRight) || s.Snapshot().Index != 1 {
		t.Fatal("right arrow should move forward")
	}
	if !s.HandleKey(Key2) {
		t.Fatal("digit 2 should be bound")
	}
	if got := s.Snapshot().Answers[2]; got != model.OptionB {
		t.Fatalf("expected B on question 2, got %q", got)
	}
	if !s.HandleKey(KeyLeft) || s.Snapshot().Index != 0 {
		t.Fatal("left arrow should move back")
	}
	if s.HandleKey(Key("5")) {
		t.Fatal("5 is not bound")
	}
}

// TestCloseAbandonsInFlightSubmission tears down while a request is pending.
func TestCloseAbandonsInFlightSubmission(t *testing.T) {
	h := newHarness(2, time.Minute)
	h.backend.gate = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)
	s := h.started(t)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-h.backend.entered

	s.Close()
	close(h.backend.gate)
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(h.nav.shown) != 0 {
		t.Fatal("a closed session must not navigate")
	}
	if !h.clock.ticker(0).isStopped() || !h.guard.released {
		t.Fatal("close must release the countdown and guard")
	}
}

// TestOnChangeObservesTransitions checks the change callback sees each state.
func TestOnChangeObservesTransitions(t *testing.T) {
	var states []State
	s := NewSession(Options{
		CourseID: 1,
		UserID:   1,
		Backend:  newFakeBackend(1),
		Clock:    newFakeClock(),
		Log:      zerolog.Nop(),
		OnChange: func(snap Snapshot) {
			if len(states) == 0 || states[len(states)-1] != snap.State {
				states = append(states, snap.State)
			}
		},
	})
	ctx := context.Background()
	_ = s.Load(ctx)
	_ = s.Start(ctx)
	_ = s.Submit(ctx)

	want := []State{StateNotStarted, StateInProgress, StateSubmitting, StateTerminal}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, states)
		}
	}
}
