// Package monitor streams leave events from the terminal client to the
// exam backend over a WebSocket. Delivery is best-effort.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/exam"
	"github.com/stemsi/exstem-learn/internal/model"
	wsutil "github.com/stemsi/exstem-learn/internal/websocket"
)

const (
	defaultBuffer       = 32
	defaultPingInterval = 30 * time.Second
	defaultRetryDelay   = time.Second
	maxRetryDelay       = 30 * time.Second
)

var _ exam.LeaveReporter = (*Reporter)(nil)

// Options configures a Reporter.
type Options struct {
	// BaseURL is the WebSocket root, e.g. ws://host:8080/ws/v1.
	BaseURL string
	// Token returns the bearer token at dial time.
	Token        func() string
	Buffer       int
	PingInterval time.Duration
	RetryDelay   time.Duration
	Dialer       *websocket.Dialer
	Log          zerolog.Logger
}

// Reporter queues leave events and writes them to the monitor socket from a
// single goroutine started by Run.
type Reporter struct {
	endpoint     string
	token        func() string
	dialer       *websocket.Dialer
	pingInterval time.Duration
	retryDelay   time.Duration
	log          zerolog.Logger

	events  chan model.LeaveEvent
	pending *model.LeaveEvent
	dropped atomic.Int64
	sent    atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

func New(opts Options) *Reporter {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	return &Reporter{
		endpoint:     opts.BaseURL + "/exam/monitor",
		token:        opts.Token,
		dialer:       opts.Dialer,
		pingInterval: opts.PingInterval,
		retryDelay:   opts.RetryDelay,
		log:          opts.Log.With().Str("component", "leave_reporter").Logger(),
		events:       make(chan model.LeaveEvent, opts.Buffer),
		done:         make(chan struct{}),
	}
}

// ReportLeave enqueues ev without blocking. Events are dropped when the
// buffer is full.
func (r *Reporter) ReportLeave(ev model.LeaveEvent) {
	select {
	case <-r.done:
		r.dropped.Add(1)
		return
	default:
	}
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
		r.log.Warn().Str("kind", string(ev.Kind)).Msg("Leave event dropped, buffer full")
	}
}

// Dropped reports how many events were discarded.
func (r *Reporter) Dropped() int64 { return r.dropped.Load() }

// Sent reports how many events were written to the socket.
func (r *Reporter) Sent() int64 { return r.sent.Load() }

// Close stops Run. Queued events that were not yet written are discarded.
func (r *Reporter) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Run dials the monitor endpoint and forwards events until ctx is done or
// Close is called. Connection failures are retried with backoff.
func (r *Reporter) Run(ctx context.Context) {
	delay := r.retryDelay
	for {
		conn, err := r.dial(ctx)
		if err == nil {
			delay = r.retryDelay
			err = r.serve(ctx, conn)
			conn.Close()
			if err == nil {
				return
			}
			r.log.Warn().Err(err).Msg("Monitor connection lost")
		} else {
			r.log.Warn().Err(err).Dur("retry_in", delay).Msg("Monitor dial failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (r *Reporter) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse monitor url: %w", err)
	}
	q := u.Query()
	q.Set("token", r.token())
	u.RawQuery = q.Encode()

	conn, _, err := r.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial monitor: %w", err)
	}
	r.log.Debug().Msg("Monitor connected")
	return conn, nil
}

// serve returns nil on a requested shutdown and an error when the
// connection breaks.
func (r *Reporter) serve(ctx context.Context, conn *websocket.Conn) error {
	readErr := make(chan error, 1)
	go func() {
		for {
			var resp wsutil.ResponseEnvelope
			if err := wsutil.ReadJSON(conn, &resp); err != nil {
				readErr <- err
				return
			}
			if resp.Event == wsutil.EventError {
				r.log.Warn().Str("error", resp.Error).Msg("Monitor rejected message")
			}
		}
	}()

	ping := time.NewTicker(r.pingInterval)
	defer ping.Stop()

	if r.pending != nil {
		if err := r.write(conn, *r.pending); err != nil {
			return err
		}
		r.pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			r.closeConn(conn)
			return nil
		case <-r.done:
			r.closeConn(conn)
			return nil
		case err := <-readErr:
			if err == nil {
				err = errors.New("monitor reader stopped")
			}
			return err
		case ev := <-r.events:
			if err := r.write(conn, ev); err != nil {
				r.pending = &ev
				return err
			}
		case <-ping.C:
			if err := wsutil.WriteTyped(conn, wsutil.PingRequest{Action: wsutil.ActionPing}); err != nil {
				return err
			}
		}
	}
}

func (r *Reporter) write(conn *websocket.Conn, ev model.LeaveEvent) error {
	if err := wsutil.WriteTyped(conn, wsutil.NewLeaveRequest(ev)); err != nil {
		return err
	}
	r.sent.Add(1)
	r.log.Info().
		Str("kind", string(ev.Kind)).
		Str("session_id", ev.SessionID.String()).
		Msg("Leave event reported")
	return nil
}

func (r *Reporter) closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
