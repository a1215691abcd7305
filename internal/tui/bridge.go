package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-learn/internal/exam"
)

// Bridge carries session callbacks into the Bubble Tea loop. Session
// changes are coalesced: the model re-reads the snapshot on every signal,
// so a dropped signal never loses state.
type Bridge struct {
	changed chan struct{}
	results chan uuid.UUID
}

var _ exam.Navigator = (*Bridge)(nil)

// NewBridge creates a bridge.
func NewBridge() *Bridge {
	return &Bridge{
		changed: make(chan struct{}, 1),
		results: make(chan uuid.UUID, 1),
	}
}

// OnChange is the session's change callback. It never blocks.
func (b *Bridge) OnChange(exam.Snapshot) {
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// ShowResult routes an accepted attempt to the result view.
func (b *Bridge) ShowResult(attemptID uuid.UUID) {
	select {
	case b.results <- attemptID:
	default:
	}
}

// changedMsg asks the model to re-read the session snapshot.
type changedMsg struct{}

// resultMsg names the attempt to show.
type resultMsg struct {
	AttemptID uuid.UUID
}

// waitForChange blocks until the session reports a change.
func (b *Bridge) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-b.changed
		return changedMsg{}
	}
}

// waitForResult blocks until the session navigates to a result.
func (b *Bridge) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return resultMsg{AttemptID: <-b.results}
	}
}
