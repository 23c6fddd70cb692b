package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/scoring"
	"github.com/stemsi/quizhub-backend/internal/service"
	ws "github.com/stemsi/quizhub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the real-time attempt stream.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
		now:            time.Now,
	}
}

// attemptStream is the state of one connected attempt.
type attemptStream struct {
	conn     *ws.Conn
	attempt  *model.Attempt
	userID   uuid.UUID
	deadline time.Time
	timed    bool
	log      zerolog.Logger

	mu       sync.Mutex
	finished bool
}

// finish marks the attempt as done and reports whether the caller won the race.
func (s *attemptStream) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	return true
}

func (s *attemptStream) isFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// AttemptStream godoc
// WS /ws/v1/attempts/:id/stream?token=
// Upgrades to WebSocket for autosave and grading. Timed quizzes are
// submitted automatically at the deadline.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	attempt, err := h.attemptService.Get(ctx, attemptID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}
	if attempt.IsCompleted {
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		return
	}
	deadline, timed, err := h.attemptService.Deadline(ctx, attempt)
	if err != nil {
		failWithError(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	stream := &attemptStream{
		conn:     conn,
		attempt:  attempt,
		userID:   user.ID,
		deadline: deadline,
		timed:    timed,
		log: h.log.With().
			Str("user_id", user.ID.String()).
			Str("attempt_id", attempt.ID.String()).
			Logger(),
	}
	stream.log.Info().Msg("Taker connected")

	if timed {
		timer := time.AfterFunc(deadline.Sub(h.now()), func() {
			h.expire(context.Background(), stream)
		})
		defer timer.Stop()
	}

	for {
		action, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, ws.ErrMalformedMessage) {
				conn.WriteError(string(response.ErrInvalidPayload), "message must be a JSON object")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				stream.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				stream.log.Debug().Msg("Connection closed")
			}
			return
		}

		switch action {
		case ws.ActionAutosave:
			h.handleAutosave(ctx, stream, data)
		case ws.ActionSubmit:
			if h.handleSubmit(ctx, stream, data) {
				conn.CloseNormal("submitted")
				return
			}
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			stream.log.Warn().Str("action", string(action)).Msg("Unknown action")
			conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(action))
		}
	}
}

// handleAutosave stores one answer and acknowledges it.
func (h *WSHandler) handleAutosave(ctx context.Context, s *attemptStream, data []byte) {
	var req ws.AutosaveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.conn.WriteError(string(response.ErrInvalidPayload), "invalid autosave payload")
		return
	}

	// Parsing also keeps arbitrary strings out of Redis hash fields.
	questionID, err := uuid.Parse(req.QID)
	if err != nil {
		s.conn.WriteError(string(response.ErrInvalidID), "invalid q_id format")
		return
	}

	if s.isFinished() {
		s.conn.WriteError(string(response.ErrAttemptCompleted), response.GetMessage(response.ErrAttemptCompleted))
		return
	}
	if s.timed && !h.now().Before(s.deadline) {
		s.conn.WriteError(string(response.ErrDeadlinePassed), response.GetMessage(response.ErrDeadlinePassed))
		return
	}

	if err := h.attemptService.Autosave(ctx, s.attempt, questionID, req.Answers); err != nil {
		h.writeServiceError(s, err)
		return
	}

	s.conn.WriteTyped(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved", QID: req.QID})
}

// handleSubmit grades the attempt. It reports whether the stream is finished.
func (h *WSHandler) handleSubmit(ctx context.Context, s *attemptStream, data []byte) bool {
	var req ws.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.conn.WriteError(string(response.ErrInvalidPayload), "invalid submit payload")
		return false
	}
	if !s.finish() {
		return true
	}

	submission, err := h.attemptService.Submit(ctx, s.attempt.ID, s.userID, req.Answers)
	if err != nil {
		h.writeServiceError(s, err)
		if errors.Is(err, service.ErrAttemptCompleted) {
			return true
		}
		s.mu.Lock()
		s.finished = false
		s.mu.Unlock()
		return false
	}

	h.writeGraded(s, submission)
	return true
}

// expire force-submits the autosaved answers once the deadline passes.
func (h *WSHandler) expire(ctx context.Context, s *attemptStream) {
	if !s.finish() {
		return
	}

	s.conn.WriteTyped(ws.ExpiredResponse{Event: ws.EventExpired, Deadline: s.deadline})

	submission, err := h.attemptService.ForceSubmit(ctx, s.attempt)
	if err != nil {
		if !errors.Is(err, service.ErrAttemptCompleted) {
			s.log.Error().Err(err).Msg("Forced submit failed")
		}
		h.writeServiceError(s, err)
	} else {
		s.log.Info().Msg("Attempt submitted at deadline")
		h.writeGraded(s, submission)
	}
	s.conn.CloseNormal("deadline passed")
}

func (h *WSHandler) writeGraded(s *attemptStream, submission *model.AttemptSubmission) {
	s.conn.WriteTyped(ws.GradedResponse{
		Event:       ws.EventGraded,
		Status:      "completed",
		Score:       submission.Attempt.Score,
		TotalPoints: submission.Attempt.TotalPoints,
		Results:     submission.Results,
	})
}

func (h *WSHandler) writeServiceError(s *attemptStream, err error) {
	code := response.ErrInternal
	switch {
	case errors.Is(err, service.ErrAttemptCompleted):
		code = response.ErrAttemptCompleted
	case errors.Is(err, scoring.ErrUnknownQuestion):
		code = response.ErrUnknownQuestion
	case errors.Is(err, service.ErrNotFound):
		code = response.ErrNotFound
	default:
		s.log.Error().Err(err).Msg("Stream operation failed")
	}
	s.conn.WriteError(string(code), response.GetMessage(code))
}
