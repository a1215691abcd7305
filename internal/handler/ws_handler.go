package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/middleware"
	"github.com/stemsi/exstem-learn/internal/model"
	"github.com/stemsi/exstem-learn/internal/response"
	"github.com/stemsi/exstem-learn/internal/service"
	ws "github.com/stemsi/exstem-learn/internal/websocket"
)

// LeaveRecorder stores leave events for review.
type LeaveRecorder interface {
	Record(ctx context.Context, ev model.LeaveEvent) error
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode). Requests
// without an Origin header (non-browser clients) are always accepted.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowedOrigins) == 0 || origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the exam monitor WebSocket.
type WSHandler struct {
	leaves   LeaveRecorder
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(leaves LeaveRecorder, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		leaves:   leaves,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamMonitor godoc
// WS /ws/v1/exam/monitor?token=...
// Receives leave events and keepalive pings from an exam client.
func (h *WSHandler) ExamMonitor(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	learnerID := claims.UserID
	wsLog := h.log.With().Int("learner_id", learnerID).Logger()
	wsLog.Info().Msg("Monitor connected")

	for {
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			_ = ws.WriteError(conn, "malformed message")
			continue
		}

		switch env.Action {
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionLeave:
			h.handleLeave(c.Request.Context(), conn, wsLog, learnerID, raw)
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(env.Action))
		}
	}
}

func (h *WSHandler) handleLeave(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, learnerID int, raw []byte) {
	var req ws.LeaveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		_ = ws.WriteError(conn, "malformed leave event")
		return
	}

	ev := model.LeaveEvent{
		CourseID:   req.CourseID,
		LearnerID:  learnerID,
		SessionID:  req.SessionID,
		Kind:       req.Kind,
		OccurredAt: req.OccurredAt,
	}
	if err := h.leaves.Record(ctx, ev); err != nil {
		if errors.Is(err, service.ErrInvalidLeaveEvent) {
			_ = ws.WriteError(conn, err.Error())
			return
		}
		wsLog.Error().Err(err).Msg("Record leave event failed")
		_ = ws.WriteError(conn, "record failed")
		return
	}

	wsLog.Info().
		Int("course_id", ev.CourseID).
		Str("session_id", ev.SessionID.String()).
		Str("kind", string(ev.Kind)).
		Msg("Leave event received")
	_ = ws.WriteTyped(conn, ws.RecordedResponse{Event: ws.EventRecorded, Kind: ev.Kind})
}
