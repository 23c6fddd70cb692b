package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz represents a quiz authored by a quiz master.
type Quiz struct {
	ID          uuid.UUID `json:"id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Duration    *int      `json:"duration,omitempty"` // minutes
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuizSummary is a quiz row enriched with list-view counters.
type QuizSummary struct {
	Quiz
	QuestionCount int `json:"question_count"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Duration    *int   `json:"duration" binding:"omitempty,min=1,max=600"`
}

// UpdateQuizRequest is the payload for updating quiz metadata.
type UpdateQuizRequest struct {
	Title       string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Duration    *int    `json:"duration" binding:"omitempty,min=0,max=600"`
}

// DuplicateQuizRequest optionally overrides the title of the copy.
type DuplicateQuizRequest struct {
	Title string `json:"title" binding:"omitempty,min=1,max=255"`
}

// QuizPaper is the Redis-cached view sent to attempt takers (no correct answers).
type QuizPaper struct {
	QuizID      uuid.UUID          `json:"quiz_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Duration    *int               `json:"duration,omitempty"`
	TotalPoints float64            `json:"total_points"`
	Questions   []QuestionForTaker `json:"questions"`
}

// QuestionForTaker is a question without its correct answers.
type QuestionForTaker struct {
	ID           uuid.UUID    `json:"id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options,omitempty"`
	Points       float64      `json:"points"`
	OrderNum     int          `json:"order_num"`
}
