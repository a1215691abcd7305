package exam

import (
	"errors"
	"fmt"
)

var (
	ErrNotInProgress     = errors.New("exam session is not in progress")
	ErrInvalidTransition = errors.New("invalid exam session transition")
	ErrSubmitInFlight    = errors.New("a submission is already in flight")
	ErrNoQuestions       = errors.New("exam has no questions")
	ErrInvalidOption     = errors.New("option must be one of A, B, C, D")
	ErrUnknownQuestion   = errors.New("question is not part of this exam")
	ErrExitNeedsConfirm  = errors.New("answers would be discarded, confirmation required")
	ErrClosed            = errors.New("exam session closed")
	ErrTimeUp            = errors.New("time is up, answers are locked")
)

// FetchError means the question set could not be loaded. The session is
// unusable afterwards; a new session has to be built to try again.
type FetchError struct {
	CourseID int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load questions for course %d: %v", e.CourseID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError means the submit request failed. The session is back in
// progress and the learner may submit again.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit exam: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ValidationWarning is returned by RequestSubmit when questions are still
// unanswered. It does not block submission; resubmit with confirmation.
type ValidationWarning struct {
	Unanswered int
	Total      int
}

func (w *ValidationWarning) Error() string {
	return fmt.Sprintf("%d of %d questions unanswered", w.Unanswered, w.Total)
}
