// Package tui is the terminal front end of an exam session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/model"
)

const resultTimeout = 15 * time.Second

// AttemptFetcher loads a recorded attempt for the result view.
type AttemptFetcher interface {
	Attempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
}

// SessionFactory builds a fresh session wired to the model's Bridge and
// Guard. Reloading after a fetch error calls it again.
type SessionFactory func() *exam.Session

// Options configures a Model.
type Options struct {
	Context  context.Context
	Sessions SessionFactory
	Bridge   *Bridge
	Guard    *TerminalGuard
	Attempts AttemptFetcher
	Log      zerolog.Logger
}

type prompt int

const (
	promptNone prompt = iota
	promptSubmit
	promptExit
)

// Model renders one exam session and forwards input to it.
type Model struct {
	ctx        context.Context
	newSession SessionFactory
	session    *exam.Session
	bridge     *Bridge
	guard      *TerminalGuard
	attempts   AttemptFetcher
	log        zerolog.Logger

	snap      exam.Snapshot
	keys      keyMap
	help      help.Model
	bar       progress.Model
	spinner   spinner.Model
	focus     FocusRing
	prompt    prompt
	notice    string
	altScreen bool
	quitting  bool

	attempt    *model.Attempt
	attemptErr error
}

type loadedMsg struct{ err error }

type submitDoneMsg struct{ err error }

type attemptMsg struct {
	attempt *model.Attempt
	err     error
}

// NewModel builds the first session and a model around it.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		newSession: opts.Sessions,
		bridge:     opts.Bridge,
		guard:      opts.Guard,
		attempts:   opts.Attempts,
		log:        opts.Log.With().Str("component", "tui").Logger(),
		keys:       defaultKeys(),
		help:       help.New(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:    sp,
	}
	m.session = m.newSession()
	m.snap = m.session.Snapshot()
	return m
}

// Session is the session currently shown.
func (m Model) Session() *exam.Session { return m.session }

// Init loads the questions and starts listening to the session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.load(),
		m.bridge.waitForChange(),
		m.bridge.waitForResult(),
		m.spinner.Tick,
	)
}

// Update applies session changes and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-24, 10), 60)
		return m, nil
	case changedMsg:
		m, cmd := m.refresh()
		return m, tea.Batch(cmd, m.bridge.waitForChange())
	case loadedMsg:
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("Load finished with error")
		}
		return m.refresh()
	case submitDoneMsg:
		return m.submitDone(msg.err)
	case resultMsg:
		return m, m.fetchAttempt(msg.AttemptID)
	case attemptMsg:
		m.attempt, m.attemptErr = msg.attempt, msg.err
		return m, nil
	case tea.BlurMsg:
		if m.guard != nil {
			m.guard.Trigger(model.LeaveHidden)
		}
		return m.refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// refresh re-reads the session and enters or leaves the alternate screen
// with the active exam.
func (m Model) refresh() (Model, tea.Cmd) {
	m.snap = m.session.Snapshot()
	if m.snap.State != exam.StateInProgress {
		m.prompt = promptNone
	}

	active := m.snap.State == exam.StateInProgress || m.snap.State == exam.StateSubmitting
	switch {
	case active && !m.altScreen:
		m.altScreen = true
		return m, tea.EnterAltScreen
	case !active && m.altScreen:
		m.altScreen = false
		return m, tea.ExitAltScreen
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.answerPrompt(msg)
	}

	switch m.snap.State {
	case exam.StateLoading:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
	case exam.StateError:
		switch {
		case key.Matches(msg, m.keys.Reload):
			return m.reload()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	case exam.StateNotStarted:
		switch {
		case key.Matches(msg, m.keys.Activate):
			return m.start()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	case exam.StateInProgress:
		return m.handleExamKey(msg)
	case exam.StateSubmitting:
		// The server record stands; the pending response is abandoned.
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
	case exam.StateTerminal:
		if key.Matches(msg, m.keys.Quit) || key.Matches(msg, m.keys.Activate) {
			return m.quit()
		}
	}
	return m, nil
}

func (m Model) handleExamKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.leave()
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit(false)
	case key.Matches(msg, m.keys.FocusFwd):
		m.focus = m.focus.Next()
		return m, nil
	case key.Matches(msg, m.keys.FocusBck):
		m.focus = m.focus.Prev()
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	}

	if m.session.HandleKey(examKey(msg)) {
		m.notice = ""
		return m.refresh()
	}
	return m, nil
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	switch m.focus.Current() {
	case ControlPrevious:
		m.session.PreviousQuestion()
	case ControlNext:
		m.session.NextQuestion()
	case ControlSubmit:
		return m, m.submit(false)
	case ControlExit:
		return m.leave()
	}
	return m.refresh()
}

func (m Model) start() (tea.Model, tea.Cmd) {
	if err := m.session.Start(m.ctx); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	m.focus = NewFocusRing(ControlPrevious, ControlNext, ControlSubmit, ControlExit)
	return m.refresh()
}

// leave handles a quit attempt during the exam through the leave guard.
func (m Model) leave() (tea.Model, tea.Cmd) {
	if m.guard != nil && m.guard.Trigger(model.LeaveUnload) == exam.LeaveConfirm {
		m.prompt = promptExit
		return m, nil
	}
	if err := m.session.Exit(false); err != nil {
		if errors.Is(err, exam.ErrExitNeedsConfirm) {
			m.prompt = promptExit
			return m, nil
		}
		m.notice = err.Error()
		return m, nil
	}
	return m.quit()
}

func (m Model) answerPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		p := m.prompt
		m.prompt = promptNone
		m.notice = ""
		if p == promptSubmit {
			return m, m.submit(true)
		}
		if err := m.session.Exit(true); err != nil && !errors.Is(err, exam.ErrNotInProgress) {
			m.notice = err.Error()
			return m, nil
		}
		return m.quit()
	case key.Matches(msg, m.keys.No):
		m.prompt = promptNone
		m.notice = ""
	}
	return m, nil
}

// submit runs RequestSubmit off the UI goroutine.
func (m Model) submit(confirmed bool) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: s.RequestSubmit(ctx, confirmed)}
	}
}

func (m Model) submitDone(err error) (tea.Model, tea.Cmd) {
	var warn *exam.ValidationWarning
	switch {
	case err == nil:
		m.notice = ""
	case errors.As(err, &warn):
		m.prompt = promptSubmit
		m.notice = fmt.Sprintf("%d of %d questions are unanswered and will be submitted blank. Submit anyway?",
			warn.Unanswered, warn.Total)
		m.snap = m.session.Snapshot()
		return m, nil
	case errors.Is(err, exam.ErrSubmitInFlight), errors.Is(err, exam.ErrNotInProgress):
	default:
		m.log.Warn().Err(err).Msg("Submit failed")
	}
	return m.refresh()
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.session.Close()
	m.session = m.newSession()
	m.notice = ""
	m, cmd := m.refresh()
	return m, tea.Batch(cmd, m.load())
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.session.Close()
	return m, tea.Quit
}

func (m Model) load() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: s.Load(ctx)}
	}
}

func (m Model) fetchAttempt(id uuid.UUID) tea.Cmd {
	attempts, ctx := m.attempts, m.ctx
	return func() tea.Msg {
		if attempts == nil {
			return attemptMsg{}
		}
		ctx, cancel := context.WithTimeout(ctx, resultTimeout)
		defer cancel()
		a, err := attempts.Attempt(ctx, id)
		return attemptMsg{attempt: a, err: err}
	}
}
