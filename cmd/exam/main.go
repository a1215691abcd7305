package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/examclient"
	"github.com/stemsi/exstem-learn/internal/logger"
	"github.com/stemsi/exstem-learn/internal/monitor"
	"github.com/stemsi/exstem-learn/internal/tui"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	var (
		courseID int
		email    string
	)
	flag.IntVar(&courseID, "course", 0, "Course ID to take the exam for")
	flag.StringVar(&email, "email", "", "Learner email (prompted when empty)")
	flag.Parse()

	if courseID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: exam -course <id> [-email <email>]")
		return 2
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// The screen belongs to the exam UI, so logs go to a file.
	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()
	log := logger.SetupWriter(logFile, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// ─── Login ─────────────────────────────────────────────────────────
	client := examclient.New(cfg.ExamAPIURL, cfg.HTTPTimeout, log)

	if email == "" {
		fmt.Print("Email: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading password")
		return 1
	}

	login, err := client.Login(ctx, email, string(password))
	if err != nil {
		var apiErr *examclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			fmt.Fprintln(os.Stderr, "Invalid email or password.")
		} else {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		}
		log.Error().Err(err).Msg("Login failed")
		return 1
	}
	log.Info().Int("learner_id", login.Learner.ID).Int("course_id", courseID).Msg("Logged in")

	// ─── Leave Reporter ────────────────────────────────────────────────
	reporter := monitor.New(monitor.Options{
		BaseURL: cfg.ExamWSURL,
		Token:   client.Token,
		Log:     log,
	})
	go reporter.Run(ctx)
	defer reporter.Close()

	// ─── Exam UI ───────────────────────────────────────────────────────
	bridge := tui.NewBridge()
	guard := tui.NewTerminalGuard()
	sessions := func() *exam.Session {
		return exam.NewSession(exam.Options{
			CourseID:  courseID,
			UserID:    login.Learner.ID,
			Duration:  cfg.ExamDuration,
			Backend:   client,
			Navigator: bridge,
			Guard:     guard,
			Reporter:  reporter,
			Log:       log,
			OnChange:  bridge.OnChange,
		})
	}

	model := tui.NewModel(tui.Options{
		Context:  ctx,
		Sessions: sessions,
		Bridge:   bridge,
		Guard:    guard,
		Attempts: client,
		Log:      log,
	})

	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithReportFocus())
	final, err := program.Run()
	if m, ok := final.(tui.Model); ok {
		m.Session().Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error().Err(err).Msg("Exam UI stopped")
		fmt.Fprintf(os.Stderr, "Exam UI error: %v\n", err)
		return 1
	}

	log.Info().
		Int64("leave_events_sent", reporter.Sent()).
		Int64("leave_events_dropped", reporter.Dropped()).
		Msg("Exam client exiting")
	return 0
}
