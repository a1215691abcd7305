package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaveKind classifies a leave attempt during an exam.
type LeaveKind string

const (
	// LeaveUnload is an attempt to close or quit the exam view.
	LeaveUnload LeaveKind = "unload"
	// LeaveHidden is a loss of focus or visibility of the exam view.
	LeaveHidden LeaveKind = "hidden"
)

// Valid reports whether k is a known kind.
func (k LeaveKind) Valid() bool {
	return k == LeaveUnload || k == LeaveHidden
}

// LeaveEvent records a leave attempt for later review. It never affects the
// attempt's score.
type LeaveEvent struct {
	CourseID   int       `json:"course_id"`
	LearnerID  int       `json:"learner_id"`
	SessionID  uuid.UUID `json:"session_id"`
	Kind       LeaveKind `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}
