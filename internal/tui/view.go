package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/model"
)

// View renders the screen for the current session state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.snap.State {
	case exam.StateLoading:
		return m.spinner.View() + " Loading questions for course " + fmt.Sprint(m.snap.CourseID) + "...\n"
	case exam.StateError:
		return m.viewError()
	case exam.StateNotStarted:
		return m.viewIntro()
	case exam.StateInProgress, exam.StateSubmitting:
		return m.viewExam()
	case exam.StateTerminal:
		return m.viewResult()
	}
	return ""
}

func (m Model) viewError() string {
	msg := "the exam could not be loaded"
	if m.snap.Err != nil {
		msg = m.snap.Err.Error()
	}
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("Could not load the exam"),
		msg,
		"",
		mutedStyle.Render("r reload · q quit"),
	)) + "\n"
}

func (m Model) viewIntro() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Course %d exam", m.snap.CourseID))}
	if len(m.snap.Questions) == 0 {
		lines = append(lines, "This course has no questions yet.")
	} else {
		lines = append(lines,
			fmt.Sprintf("%d questions · %s", len(m.snap.Questions), m.snap.Clock()),
			"One attempt only. Unanswered questions are submitted blank when time runs out.",
		)
	}
	if m.notice != "" {
		lines = append(lines, errorStyle.Render(m.notice))
	}
	lines = append(lines, "", mutedStyle.Render("enter start · q quit"))
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func (m Model) viewExam() string {
	q, ok := m.snap.Current()
	if !ok {
		return ""
	}

	clock := clockStyle
	if m.snap.Remaining <= lowTimeSeconds {
		clock = lowClock
	}
	header := titleStyle.Render(fmt.Sprintf("Question %d/%d", m.snap.Index+1, len(m.snap.Questions))) +
		"  " + clock.Render(m.snap.Clock())

	var b strings.Builder
	if m.snap.LeaveWarning {
		b.WriteString(bannerStyle.Render("You left the exam window. This has been recorded."))
		b.WriteString("\n\n")
	}
	b.WriteString(header + "\n\n")
	b.WriteString(q.QuestionText + "\n\n")

	current, _ := m.snap.CurrentAnswer()
	for i, letter := range model.Options {
		line := fmt.Sprintf("%d) %s. %s", i+1, letter, q.Option(letter))
		if letter == current {
			b.WriteString(selectedStyle.Render("● "+line) + "\n")
			continue
		}
		b.WriteString(optionStyle.Render("○ "+line) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.snap.Progress() / 100))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d answered", m.snap.Answered(), len(m.snap.Questions))))
	b.WriteString("\n\n")
	b.WriteString(m.viewControls())
	b.WriteString("\n")

	switch {
	case m.snap.Submitting:
		b.WriteString(m.spinner.View() + " Submitting...\n")
	case m.prompt == promptSubmit:
		b.WriteString(promptStyle.Render(m.notice+" (y/n)") + "\n")
	case m.prompt == promptExit:
		b.WriteString(promptStyle.Render("Quit now? Your answers will be discarded. (y/n)") + "\n")
	case m.notice != "":
		b.WriteString(errorStyle.Render(m.notice) + "\n")
	}

	if m.snap.TimeUp && !m.snap.Submitting {
		b.WriteString(errorStyle.Render("Time is up. Answers are locked.") + "\n")
	}

	var subErr *exam.SubmissionError
	if errors.As(m.snap.Err, &subErr) && !m.snap.Submitting {
		b.WriteString(errorStyle.Render("Submission failed: "+subErr.Err.Error()+". Press s to try again.") + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return dialogStyle.Render(b.String()) + "\n"
}

func (m Model) viewControls() string {
	controls := m.focus.Controls()
	rendered := make([]string, 0, len(controls))
	for _, c := range controls {
		style := controlStyle
		if c == m.focus.Current() {
			style = focusedStyle
		}
		label := c.String()
		if c == ControlSubmit && m.snap.Submitting {
			label = "Submitting"
		}
		rendered = append(rendered, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewResult() string {
	if m.snap.AttemptID == uuid.Nil {
		return mutedStyle.Render("Exam closed without submitting.") + "\n"
	}

	lines := []string{
		titleStyle.Render("Exam submitted"),
		mutedStyle.Render("Attempt " + m.snap.AttemptID.String()),
	}
	switch {
	case m.attempt != nil:
		lines = append(lines,
			"",
			fmt.Sprintf("Score: %.2f", m.attempt.Score),
			fmt.Sprintf("Correct: %d of %d", m.attempt.CorrectCount, m.attempt.TotalQuestions),
		)
	case m.attemptErr != nil:
		lines = append(lines, "", errorStyle.Render("Could not load the result: "+m.attemptErr.Error()))
	default:
		lines = append(lines, "", m.spinner.View()+" Loading result...")
	}
	lines = append(lines, "", mutedStyle.Render("enter or q to exit"))
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}
