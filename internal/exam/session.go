package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/model"
)

// Options configures a Session. Backend is required; everything else has a
// usable zero value.
type Options struct {
	CourseID  int
	UserID    int
	Duration  time.Duration
	Backend   Backend
	Navigator Navigator
	Guard     LeaveGuard
	Reporter  LeaveReporter
	Clock     Clock
	KeyMap    KeyMap
	Log       zerolog.Logger
	// OnChange is called after every observable change, outside the
	// session lock. It may be called from the countdown goroutine.
	OnChange func(Snapshot)
}

// Session is one learner's run through one exam. It is safe for concurrent
// use; the countdown goroutine and the UI drive it at the same time.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	courseID  int
	userID    int
	duration  time.Duration
	backend   Backend
	navigator Navigator
	guard     LeaveGuard
	reporter  LeaveReporter
	clock     Clock
	keys      KeyMap
	log       zerolog.Logger
	onChange  func(Snapshot)

	state        State
	fetching     bool
	questions    []model.Question
	questionIDs  map[int]struct{}
	answers      map[int]string
	index        int
	remaining    int
	inFlight     bool
	autoFired    bool
	leaveWarning bool
	lastErr      error
	attemptID    uuid.UUID

	stopCountdown func()
	releaseGuard  func()
}

// NewSession builds a session in the Loading state.
func NewSession(opts Options) *Session {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.KeyMap == nil {
		opts.KeyMap = DefaultKeyMap()
	}
	id := uuid.New()
	log := opts.Log.With().
		Str("component", "exam_session").
		Str("session_id", id.String()).
		Int("course_id", opts.CourseID).
		Logger()

	return &Session{
		id:        id,
		courseID:  opts.CourseID,
		userID:    opts.UserID,
		duration:  opts.Duration,
		backend:   opts.Backend,
		navigator: opts.Navigator,
		guard:     opts.Guard,
		reporter:  opts.Reporter,
		clock:     opts.Clock,
		keys:      opts.KeyMap,
		log:       log,
		onChange:  opts.OnChange,
		state:     StateLoading,
		answers:   make(map[int]string),
		remaining: int(opts.Duration / time.Second),
	}
}

// ID is the session id, also used as the submission idempotency key.
func (s *Session) ID() uuid.UUID { return s.id }

// Load fetches the question set. A failure moves the session to Error for
// good; build a new session to retry.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading || s.fetching {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.fetching = true
	s.mu.Unlock()

	questions, err := s.backend.RandomQuestions(ctx, s.courseID)

	s.mu.Lock()
	s.fetching = false
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		s.lastErr = &FetchError{CourseID: s.courseID, Err: err}
		s.transitionLocked(StateError)
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("Question fetch failed")
		s.notify()
		return s.lastErr
	}

	s.questions = questions
	s.questionIDs = make(map[int]struct{}, len(questions))
	for _, q := range questions {
		s.questionIDs[q.ID] = struct{}{}
	}
	s.transitionLocked(StateNotStarted)
	s.mu.Unlock()

	s.log.Info().Int("questions", len(questions)).Msg("Questions loaded")
	s.notify()
	return nil
}

// Start begins the exam: the countdown starts and leave guards are
// registered. ctx bounds the countdown and the automatic submission.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if len(s.questions) == 0 {
		s.mu.Unlock()
		return ErrNoQuestions
	}
	s.index = 0
	s.remaining = int(s.duration / time.Second)
	s.transitionLocked(StateInProgress)

	s.stopCountdown = startCountdown(ctx, s.clock, time.Second, func() { s.tick(ctx) })
	if s.guard != nil {
		s.releaseGuard = s.guard.Register(s.onLeave)
	}
	s.mu.Unlock()

	s.log.Info().Dur("duration", s.duration).Msg("Exam started")
	s.notify()
	return nil
}

// SelectAnswer records letter for questionID. Selecting the same letter
// again changes nothing. Once the countdown has fired, answers are locked
// and only a resubmit is possible.
func (s *Session) SelectAnswer(questionID int, letter string) error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	if s.autoFired {
		s.mu.Unlock()
		return ErrTimeUp
	}
	if !model.IsOption(letter) {
		s.mu.Unlock()
		return ErrInvalidOption
	}
	if _, ok := s.questionIDs[questionID]; !ok {
		s.mu.Unlock()
		return ErrUnknownQuestion
	}
	if s.answers[questionID] == letter {
		s.mu.Unlock()
		return nil
	}
	s.answers[questionID] = letter
	s.mu.Unlock()

	s.notify()
	return nil
}

// GoToQuestion moves to index. Out-of-range indexes are ignored.
func (s *Session) GoToQuestion(index int) bool {
	s.mu.Lock()
	moved := s.goToLocked(index)
	s.mu.Unlock()

	if moved {
		s.notify()
	}
	return moved
}

// NextQuestion moves forward one question, stopping at the last.
func (s *Session) NextQuestion() bool {
	s.mu.Lock()
	moved := s.goToLocked(s.index + 1)
	s.mu.Unlock()

	if moved {
		s.notify()
	}
	return moved
}

// PreviousQuestion moves back one question, stopping at the first.
func (s *Session) PreviousQuestion() bool {
	s.mu.Lock()
	moved := s.goToLocked(s.index - 1)
	s.mu.Unlock()

	if moved {
		s.notify()
	}
	return moved
}

func (s *Session) goToLocked(index int) bool {
	if s.state != StateInProgress {
		return false
	}
	if index < 0 || index >= len(s.questions) || index == s.index {
		return false
	}
	s.index = index
	return true
}

// HandleKey applies the action bound to k. It reports whether anything was
// bound and the session was in progress.
func (s *Session) HandleKey(k Key) bool {
	action, ok := s.keys.Lookup(k)
	if !ok {
		return false
	}

	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return false
	}
	current := s.questions[s.index].ID
	s.mu.Unlock()

	switch action.Kind {
	case ActionPrevious:
		s.PreviousQuestion()
	case ActionNext:
		s.NextQuestion()
	case ActionSelect:
		_ = s.SelectAnswer(current, action.Option)
	}
	return true
}

// RequestSubmit submits unless questions are unanswered and the learner has
// not confirmed; in that case it returns a *ValidationWarning. After time
// is up there is nothing left to confirm.
func (s *Session) RequestSubmit(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	unanswered := len(s.questions) - len(s.answers)
	total := len(s.questions)
	timeUp := s.autoFired
	s.mu.Unlock()

	if unanswered > 0 && !confirmed && !timeUp {
		return &ValidationWarning{Unanswered: unanswered, Total: total}
	}
	return s.Submit(ctx)
}

// Submit sends the attempt. Only one submission can be in flight; a second
// call returns ErrSubmitInFlight without touching the backend. On failure
// the session returns to InProgress and the error is a *SubmissionError.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	s.inFlight = true
	s.lastErr = nil
	req := BuildSubmission(s.userID, s.courseID, s.questions, s.answers)
	s.transitionLocked(StateSubmitting)
	s.mu.Unlock()
	s.notify()

	attempt, err := s.backend.Submit(ctx, req, s.id.String())

	s.mu.Lock()
	s.inFlight = false
	if s.state != StateSubmitting {
		// Closed while the request was out; the server record stands.
		s.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		s.lastErr = &SubmissionError{Err: err}
		s.transitionLocked(StateInProgress)
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("Submission failed")
		s.notify()
		return s.lastErr
	}

	s.attemptID = attempt.ID
	s.transitionLocked(StateTerminal)
	s.releaseLocked()
	s.mu.Unlock()

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("answered", countAnswered(req.Answers)).
		Int("total", len(req.Answers)).
		Msg("Exam submitted")
	s.notify()
	if s.navigator != nil {
		s.navigator.ShowResult(attempt.ID)
	}
	return nil
}

// Exit abandons the exam. When answers exist it requires confirmed.
func (s *Session) Exit(confirmed bool) error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	if len(s.answers) > 0 && !confirmed {
		s.mu.Unlock()
		return ErrExitNeedsConfirm
	}
	s.transitionLocked(StateTerminal)
	s.releaseLocked()
	s.mu.Unlock()

	s.log.Info().Msg("Exam exited without submitting")
	s.notify()
	return nil
}

// Close releases the countdown and guards. A session closed while active
// becomes Terminal; an in-flight submission is abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	s.releaseLocked()
	changed := false
	if s.state != StateTerminal && s.state != StateError {
		s.transitionLocked(StateTerminal)
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// tick is one countdown step. Reaching zero submits exactly once.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	if !s.state.active() {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	fire := s.remaining == 0 && !s.autoFired
	if fire {
		s.autoFired = true
		if s.stopCountdown != nil {
			s.stopCountdown()
			s.stopCountdown = nil
		}
	}
	s.mu.Unlock()
	s.notify()

	if fire {
		s.log.Info().Msg("Time is up, submitting")
		if err := s.Submit(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Automatic submission did not complete")
		}
	}
}

// onLeave is the handler registered with the LeaveGuard.
func (s *Session) onLeave(kind model.LeaveKind) LeaveDecision {
	s.mu.Lock()
	if s.state != StateInProgress || len(s.answers) == 0 {
		s.mu.Unlock()
		return LeaveAllow
	}
	if kind == model.LeaveHidden {
		s.leaveWarning = true
	}
	ev := model.LeaveEvent{
		CourseID:   s.courseID,
		LearnerID:  s.userID,
		SessionID:  s.id,
		Kind:       kind,
		OccurredAt: s.clock.Now().UTC(),
	}
	s.mu.Unlock()

	s.log.Warn().Str("kind", string(kind)).Msg("Leave attempt during exam")
	if s.reporter != nil {
		s.reporter.ReportLeave(ev)
	}
	s.notify()

	if kind == model.LeaveUnload {
		return LeaveConfirm
	}
	return LeaveAllow
}

func (s *Session) releaseLocked() {
	if s.stopCountdown != nil {
		s.stopCountdown()
		s.stopCountdown = nil
	}
	if s.releaseGuard != nil {
		s.releaseGuard()
		s.releaseGuard = nil
	}
}

func (s *Session) transitionLocked(to State) {
	s.log.Debug().
		Str("from", s.state.String()).
		Str("to", to.String()).
		Msg("Session transition")
	s.state = to
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}

func countAnswered(answers map[int]string) int {
	n := 0
	for _, letter := range answers {
		if letter != model.OptionUnanswered {
			n++
		}
	}
	return n
}
