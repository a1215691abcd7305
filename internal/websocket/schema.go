package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-learn/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionLeave Action = "leave"
	ActionPing  Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// LeaveRequest reports that the learner left or hid the exam screen.
type LeaveRequest struct {
	Action     Action          `json:"action"`
	CourseID   int             `json:"course_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Kind       model.LeaveKind `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewLeaveRequest wraps a leave event for the wire.
func NewLeaveRequest(ev model.LeaveEvent) LeaveRequest {
	return LeaveRequest{
		Action:     ActionLeave,
		CourseID:   ev.CourseID,
		SessionID:  ev.SessionID,
		Kind:       ev.Kind,
		OccurredAt: ev.OccurredAt,
	}
}

// PingRequest keeps the monitor connection alive.
type PingRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventRecorded Event = "recorded"
	EventPong     Event = "pong"
)

type RecordedResponse struct {
	Event Event           `json:"event"`
	Kind  model.LeaveKind `json:"kind"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// ResponseEnvelope is used by clients to peek at the event type.
type ResponseEnvelope struct {
	Event Event  `json:"event"`
	Error string `json:"error,omitempty"`
}
