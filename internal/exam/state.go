// Package exam implements the client-side exam session: a timed,
// single-attempt run through a randomized course question set.
//
// A Session moves through Loading → NotStarted → InProgress → Submitting →
// Terminal, with Error as the dead end of a failed question fetch. The
// countdown, keyboard map and leave guards are held only while the session
// is active and are released when it ends or is closed.
package exam

// State enumerates exam session states.
type State int

const (
	StateLoading State = iota
	StateNotStarted
	StateInProgress
	StateSubmitting
	StateError
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateNotStarted:
		return "NOT_STARTED"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateSubmitting:
		return "SUBMITTING"
	case StateError:
		return "ERROR"
	case StateTerminal:
		return "TERMINAL"
	default:
		return "UNKNOWN"
	}
}

// active reports whether the session holds its countdown and guards.
func (s State) active() bool {
	return s == StateInProgress || s == StateSubmitting
}
