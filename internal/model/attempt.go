package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents one user's instance of taking one quiz.
type Attempt struct {
	ID          uuid.UUID       `json:"id"`
	QuizID      uuid.UUID       `json:"quiz_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Answers     []AttemptAnswer `json:"answers"`
	Score       float64         `json:"score"`
	TotalPoints float64         `json:"total_points"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	IsCompleted bool            `json:"is_completed"`
}

// AttemptAnswer is the set of answers selected for one question.
type AttemptAnswer struct {
	QuestionID      uuid.UUID `json:"question_id"`
	SelectedAnswers []string  `json:"selected_answers"`
}

// AttemptWithQuiz is an attempt joined with its quiz title, used in history lists.
type AttemptWithQuiz struct {
	Attempt
	QuizTitle string `json:"quiz_title"`
}

// SubmitAttemptRequest is the payload for submitting an attempt.
// When Answers is nil the autosaved draft answers are graded.
type SubmitAttemptRequest struct {
	Answers []AttemptAnswerRequest `json:"answers" binding:"omitempty,dive"`
}

// AttemptAnswerRequest is one submitted answer.
type AttemptAnswerRequest struct {
	QuestionID      uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswers []string  `json:"selected_answers" binding:"omitempty,dive,max=500"`
}

// AttemptSubmission is the outcome of a graded submission.
type AttemptSubmission struct {
	Attempt Attempt          `json:"attempt"`
	Results []QuestionResult `json:"results"`
}

// QuestionResult reports how one question was graded.
type QuestionResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Correct       bool      `json:"correct"`
	PointsAwarded float64   `json:"points_awarded"`
	Points        float64   `json:"points"`
}

// DraftAnswerMessage is the queue payload for one autosaved answer.
type DraftAnswerMessage struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	QuestionID uuid.UUID `json:"q_id"`
	Answers    []string  `json:"answers"`
}
