package model

import (
	"github.com/google/uuid"
)

// Question represents a single quiz question.
type Question struct {
	ID             uuid.UUID    `json:"id"`
	QuizID         uuid.UUID    `json:"quiz_id"`
	QuestionText   string       `json:"question_text"`
	QuestionType   QuestionType `json:"question_type"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correct_answers"`
	Points         float64      `json:"points"`
	OrderNum       int          `json:"order_num"`
}

type QuestionType string

const (
	QuestionTypeMCQSingle   QuestionType = "mcq_single"
	QuestionTypeMCQMultiple QuestionType = "mcq_multiple"
	QuestionTypeShortAnswer QuestionType = "short_answer"
)

// Valid reports whether t is one of the recognized question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQSingle, QuestionTypeMCQMultiple, QuestionTypeShortAnswer:
		return true
	}
	return false
}

// IsChoice reports whether questions of this type carry an option list.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMCQSingle || t == QuestionTypeMCQMultiple
}

// QuestionRequest is the payload for adding or updating a question.
type QuestionRequest struct {
	QuestionText   string   `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType   string   `json:"question_type" binding:"required,oneof=mcq_single mcq_multiple short_answer"`
	Options        []string `json:"options" binding:"omitempty,max=26,dive,required,max=500"`
	CorrectAnswers []string `json:"correct_answers" binding:"required,min=1,dive,required,max=500"`
	Points         float64  `json:"points" binding:"required,gt=0"`
	OrderNum       *int     `json:"order_num" binding:"omitempty,min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"dive"`
}

// ToQuestion converts the request into a Question belonging to quizID.
// A missing order number becomes fallbackOrder.
func (r QuestionRequest) ToQuestion(quizID uuid.UUID, fallbackOrder int) Question {
	order := fallbackOrder
	if r.OrderNum != nil {
		order = *r.OrderNum
	}
	return Question{
		QuizID:         quizID,
		QuestionText:   r.QuestionText,
		QuestionType:   QuestionType(r.QuestionType),
		Options:        r.Options,
		CorrectAnswers: r.CorrectAnswers,
		Points:         r.Points,
		OrderNum:       order,
	}
}
