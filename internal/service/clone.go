package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// copySuffix is appended to the title of a duplicated quiz when no title is given.
const copySuffix = " (Copy)"

// CloneQuiz returns a structural copy of quiz and its questions with fresh IDs.
// The copy is always unpublished. An empty title yields "<title> (Copy)".
// The returned slices share no memory with the inputs.
func CloneQuiz(quiz model.Quiz, questions []model.Question, title string) (model.Quiz, []model.Question) {
	if title == "" {
		title = quiz.Title + copySuffix
	}

	clone := model.Quiz{
		ID:          uuid.New(),
		CreatorID:   quiz.CreatorID,
		Title:       title,
		Description: quiz.Description,
		IsPublished: false,
	}
	if quiz.Duration != nil {
		d := *quiz.Duration
		clone.Duration = &d
	}

	copies := make([]model.Question, len(questions))
	for i, q := range questions {
		copies[i] = model.Question{
			ID:             uuid.New(),
			QuizID:         clone.ID,
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			Options:        cloneStrings(q.Options),
			CorrectAnswers: cloneStrings(q.CorrectAnswers),
			Points:         q.Points,
			OrderNum:       q.OrderNum,
		}
	}
	return clone, copies
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
