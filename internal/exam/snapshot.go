package exam

import (
	"maps"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-learn/internal/model"
)

// Snapshot is a consistent copy of session state for rendering.
type Snapshot struct {
	SessionID    uuid.UUID
	CourseID     int
	State        State
	Questions    []model.Question
	Answers      map[int]string
	Index        int
	Remaining    int
	TimeUp       bool
	Submitting   bool
	LeaveWarning bool
	Err          error
	AttemptID    uuid.UUID
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		SessionID:    s.id,
		CourseID:     s.courseID,
		State:        s.state,
		Questions:    s.questions,
		Answers:      maps.Clone(s.answers),
		Index:        s.index,
		Remaining:    s.remaining,
		TimeUp:       s.autoFired,
		Submitting:   s.inFlight,
		LeaveWarning: s.leaveWarning,
		Err:          s.lastErr,
		AttemptID:    s.attemptID,
	}
}

// Answered is the number of questions with a recorded answer.
func (s Snapshot) Answered() int { return len(s.Answers) }

// Unanswered is the number of questions still blank.
func (s Snapshot) Unanswered() int { return len(s.Questions) - len(s.Answers) }

// Progress is the completion percentage.
func (s Snapshot) Progress() float64 {
	return CompletionPercent(len(s.Answers), len(s.Questions))
}

// Current returns the question at the current index.
func (s Snapshot) Current() (model.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return model.Question{}, false
	}
	return s.Questions[s.Index], true
}

// CurrentAnswer is the recorded letter for the current question, if any.
func (s Snapshot) CurrentAnswer() (string, bool) {
	q, ok := s.Current()
	if !ok {
		return "", false
	}
	letter, ok := s.Answers[q.ID]
	return letter, ok
}

// CurrentAnswered reports whether the current question has an answer.
func (s Snapshot) CurrentAnswered() bool {
	_, ok := s.CurrentAnswer()
	return ok
}

// Clock renders the remaining time as mm:ss.
func (s Snapshot) Clock() string { return FormatClock(s.Remaining) }
