// Package scoring grades attempts and aggregates completed attempts into
// per-user statistics and leaderboards. Everything here is pure: callers
// fetch the data and persist the results.
package scoring

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// ErrUnknownQuestion is returned by a strict Grader when a submission
// references a question that is not part of the quiz.
var ErrUnknownQuestion = errors.New("submission references an unknown question")

// Result is the outcome of grading one attempt.
type Result struct {
	Score       float64
	TotalPoints float64
	Results     []model.QuestionResult
}

// Grader grades attempts. The zero value skips answers to unknown questions.
type Grader struct {
	Strict bool
}

// GradeQuestion returns q.Points when answers is set-equal to the correct
// answers, 0 otherwise. An empty answer set never scores.
func GradeQuestion(q model.Question, answers []string) float64 {
	if !matches(q.CorrectAnswers, answers) {
		return 0
	}
	return q.Points
}

func matches(correct, answers []string) bool {
	if len(answers) == 0 {
		return false
	}
	got := toSet(answers)
	want := toSet(correct)
	if len(got) != len(want) {
		return false
	}
	for a := range got {
		if _, ok := want[a]; !ok {
			return false
		}
	}
	return true
}

// GradeAttempt grades submissions with the lenient default Grader.
func GradeAttempt(questions []model.Question, submissions []model.AttemptAnswer) Result {
	res, _ := Grader{}.Grade(questions, submissions)
	return res
}

// Grade scores every question that has at least one submission. Repeated
// submissions for the same question are merged, so neither duplicates nor
// ordering change the result. Only answered questions count towards TotalPoints.
func (g Grader) Grade(questions []model.Question, submissions []model.AttemptAnswer) (Result, error) {
	known := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	merged := make(map[uuid.UUID][]string, len(submissions))
	for _, s := range submissions {
		if _, ok := known[s.QuestionID]; !ok {
			if g.Strict {
				return Result{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, s.QuestionID)
			}
			continue
		}
		merged[s.QuestionID] = append(merged[s.QuestionID], s.SelectedAnswers...)
	}

	var res Result
	for _, q := range questions {
		answers, ok := merged[q.ID]
		if !ok {
			continue
		}
		// A question listed twice in the quiz is graded once.
		delete(merged, q.ID)

		correct := matches(q.CorrectAnswers, answers)
		var awarded float64
		if correct {
			awarded = q.Points
		}
		res.Score += awarded
		res.TotalPoints += q.Points
		res.Results = append(res.Results, model.QuestionResult{
			QuestionID:    q.ID,
			Correct:       correct,
			PointsAwarded: awarded,
			Points:        q.Points,
		})
	}
	return res, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
