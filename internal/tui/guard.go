package tui

import (
	"sync"

	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/model"
)

// TerminalGuard is the terminal's exam.LeaveGuard. The model triggers it on
// quit keys (unload) and on terminal focus loss (hidden).
type TerminalGuard struct {
	mu       sync.Mutex
	next     int
	handlers map[int]exam.LeaveHandler
}

var _ exam.LeaveGuard = (*TerminalGuard)(nil)

// NewTerminalGuard returns a guard with no handlers.
func NewTerminalGuard() *TerminalGuard {
	return &TerminalGuard{handlers: make(map[int]exam.LeaveHandler)}
}

// Register adds h until the returned release func is called.
func (g *TerminalGuard) Register(h exam.LeaveHandler) (release func()) {
	g.mu.Lock()
	id := g.next
	g.next++
	g.handlers[id] = h
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.handlers, id)
			g.mu.Unlock()
		})
	}
}

// Trigger runs every registered handler. Any handler asking for
// confirmation wins.
func (g *TerminalGuard) Trigger(kind model.LeaveKind) exam.LeaveDecision {
	g.mu.Lock()
	hs := make([]exam.LeaveHandler, 0, len(g.handlers))
	for _, h := range g.handlers {
		hs = append(hs, h)
	}
	g.mu.Unlock()

	decision := exam.LeaveAllow
	for _, h := range hs {
		if h(kind) == exam.LeaveConfirm {
			decision = exam.LeaveConfirm
		}
	}
	return decision
}

// Active is the number of registered handlers.
func (g *TerminalGuard) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handlers)
}
