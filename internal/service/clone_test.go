package service

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

func cloneFixture() (model.Quiz, []model.Question) {
	duration := 15
	quiz := model.Quiz{
		ID:          uuid.New(),
		CreatorID:   uuid.New(),
		Title:       "Fractions",
		Description: "Warm-up",
		Duration:    &duration,
		IsPublished: true,
	}
	questions := []model.Question{
		{
			ID:             uuid.New(),
			QuizID:         quiz.ID,
			QuestionText:   "1/2 + 1/4?",
			QuestionType:   model.QuestionTypeMCQSingle,
			Options:        []string{"3/4", "2/6"},
			CorrectAnswers: []string{"3/4"},
			Points:         2,
			OrderNum:       0,
		},
		{
			ID:             uuid.New(),
			QuizID:         quiz.ID,
			QuestionText:   "Write one half as a decimal",
			QuestionType:   model.QuestionTypeShortAnswer,
			CorrectAnswers: []string{"0.5"},
			Points:         1,
			OrderNum:       1,
		},
	}
	return quiz, questions
}

func TestCloneQuizDefaults(t *testing.T) {
	quiz, questions := cloneFixture()

	clone, copies := CloneQuiz(quiz, questions, "")

	if clone.Title != "Fractions (Copy)" {
		t.Fatalf("expected default copy title, got %q", clone.Title)
	}
	if clone.IsPublished {
		t.Fatal("expected clone to be unpublished")
	}
	if clone.ID == quiz.ID || clone.ID == uuid.Nil {
		t.Fatalf("expected a fresh quiz id, got %s", clone.ID)
	}
	if clone.CreatorID != quiz.CreatorID || clone.Description != quiz.Description {
		t.Fatalf("expected metadata to carry over, got %+v", clone)
	}
	if clone.Duration == nil || *clone.Duration != 15 {
		t.Fatalf("expected duration 15, got %v", clone.Duration)
	}
	if len(copies) != len(questions) {
		t.Fatalf("expected %d questions, got %d", len(questions), len(copies))
	}

	for i, c := range copies {
		src := questions[i]
		if c.ID == src.ID {
			t.Fatalf("question %d kept its id", i)
		}
		if c.QuizID != clone.ID {
			t.Fatalf("question %d: expected quiz id %s, got %s", i, clone.ID, c.QuizID)
		}
		if c.QuestionText != src.QuestionText || c.QuestionType != src.QuestionType ||
			c.Points != src.Points || c.OrderNum != src.OrderNum {
			t.Fatalf("question %d content differs: %+v vs %+v", i, c, src)
		}
		if !reflect.DeepEqual(c.Options, src.Options) || !reflect.DeepEqual(c.CorrectAnswers, src.CorrectAnswers) {
			t.Fatalf("question %d answers differ: %+v vs %+v", i, c, src)
		}
	}
}

func TestCloneQuizTitleOverride(t *testing.T) {
	quiz, questions := cloneFixture()

	clone, _ := CloneQuiz(quiz, questions, "Fractions II")
	if clone.Title != "Fractions II" {
		t.Fatalf("expected override title, got %q", clone.Title)
	}
}

func TestCloneQuizIsDeep(t *testing.T) {
	quiz, questions := cloneFixture()

	clone, copies := CloneQuiz(quiz, questions, "")

	*clone.Duration = 99
	copies[0].Options[0] = "changed"
	copies[0].CorrectAnswers[0] = "changed"

	if *quiz.Duration != 15 {
		t.Fatalf("source duration mutated to %d", *quiz.Duration)
	}
	if questions[0].Options[0] != "3/4" || questions[0].CorrectAnswers[0] != "3/4" {
		t.Fatalf("source question mutated: %+v", questions[0])
	}
	if copies[1].Options != nil {
		t.Fatalf("expected nil options for short answer, got %v", copies[1].Options)
	}
}

func TestCloneQuizEmpty(t *testing.T) {
	quiz, _ := cloneFixture()
	quiz.Duration = nil

	clone, copies := CloneQuiz(quiz, nil, "")
	if clone.Duration != nil {
		t.Fatalf("expected nil duration, got %v", *clone.Duration)
	}
	if len(copies) != 0 {
		t.Fatalf("expected no questions, got %d", len(copies))
	}
}
