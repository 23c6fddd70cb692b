package websocket

import (
	"time"

	"github.com/stemsi/quizhub-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save the answer of one question.
type AutosaveRequest struct {
	Action  Action   `json:"action"`
	QID     string   `json:"q_id"`
	Answers []string `json:"answers"`
}

// SubmitRequest is sent by the client to finish and grade the attempt.
// Without answers the autosaved answers are graded.
type SubmitRequest struct {
	Action  Action                `json:"action"`
	Answers []model.AttemptAnswer `json:"answers,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventExpired Event = "expired"
	EventPong    Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	QID    string `json:"q_id"`
}

type GradedResponse struct {
	Event       Event                  `json:"event"`
	Status      string                 `json:"status"`
	Score       float64                `json:"score"`
	TotalPoints float64                `json:"total_points"`
	Results     []model.QuestionResult `json:"results"`
}

type ExpiredResponse struct {
	Event    Event     `json:"event"`
	Deadline time.Time `json:"deadline"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
