package codec

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

func sampleDocument() Document {
	duration := 30
	return Document{
		Quiz: QuizMeta{
			Title:       "World Capitals",
			Description: "A short geography warm-up",
			Duration:    &duration,
			IsPublished: true,
		},
		Questions: []QuestionEntry{
			{
				QuestionText:   "What is the capital of France?",
				QuestionType:   model.QuestionTypeMCQSingle,
				Options:        []string{"Berlin", "Paris", "Madrid"},
				CorrectAnswers: []string{"Paris"},
				Points:         2,
				Order:          0,
			},
			{
				QuestionText:   "Which of these are in Europe?",
				QuestionType:   model.QuestionTypeMCQMultiple,
				Options:        []string{"Lisbon", "Lima", "Oslo"},
				CorrectAnswers: []string{"Lisbon", "Oslo"},
				Points:         1.5,
				Order:          1,
			},
			{
				QuestionText:   "Name the capital of Japan.",
				QuestionType:   model.QuestionTypeShortAnswer,
				CorrectAnswers: []string{"Tokyo", "tokyo"},
				Points:         1,
				Order:          2,
			},
		},
		ExportedAt: "2026-01-02T03:04:05Z",
		Version:    FormatVersion,
	}
}

func TestNewDocument_SortsByOrderAndStampsVersion(t *testing.T) {
	quiz := model.Quiz{ID: uuid.New(), Title: "Q", IsPublished: true}
	questions := []model.Question{
		{QuestionText: "second", QuestionType: model.QuestionTypeShortAnswer, CorrectAnswers: []string{"b"}, Points: 1, OrderNum: 5},
		{QuestionText: "first", QuestionType: model.QuestionTypeShortAnswer, CorrectAnswers: []string{"a"}, Points: 1, OrderNum: 1},
	}
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("WIB", 7*3600))

	doc := NewDocument(quiz, questions, now)

	if doc.Version != FormatVersion {
		t.Fatalf("expected version %q, got %q", FormatVersion, doc.Version)
	}
	if doc.ExportedAt != "2026-03-03T22:06:07Z" {
		t.Fatalf("expected UTC timestamp, got %q", doc.ExportedAt)
	}
	if doc.Questions[0].QuestionText != "first" || doc.Questions[1].QuestionText != "second" {
		t.Fatalf("questions not sorted by order: %+v", doc.Questions)
	}
	if questions[0].QuestionText != "second" {
		t.Fatalf("input slice was reordered")
	}
}

func TestDocumentToModel_CopiesQuestions(t *testing.T) {
	doc := sampleDocument()
	creator := uuid.New()

	quiz, questions := doc.ToModel(creator)

	if quiz.CreatorID != creator {
		t.Fatalf("expected creator %s, got %s", creator, quiz.CreatorID)
	}
	if quiz.Duration == nil || *quiz.Duration != 30 {
		t.Fatalf("expected duration 30, got %v", quiz.Duration)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	questions[0].Options[0] = "changed"
	if doc.Questions[0].Options[0] != "Berlin" {
		t.Fatalf("ToModel shares option storage with the document")
	}
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Document)
		field  string
	}{
		{"valid", func(d *Document) {}, ""},
		{"empty title", func(d *Document) { d.Quiz.Title = "  " }, "quiz.title"},
		{"zero duration", func(d *Document) { zero := 0; d.Quiz.Duration = &zero }, "quiz.duration"},
		{"no questions", func(d *Document) { d.Questions = nil }, "questions"},
		{"bad type", func(d *Document) { d.Questions[0].QuestionType = "essay" }, "questions[0].questionType"},
		{"zero points", func(d *Document) { d.Questions[1].Points = 0 }, "questions[1].points"},
		{"answer not an option", func(d *Document) { d.Questions[0].CorrectAnswers = []string{"Rome"} }, "questions[0].correctAnswers"},
		{"single with two answers", func(d *Document) { d.Questions[0].CorrectAnswers = []string{"Paris", "Berlin"} }, "questions[0].correctAnswers"},
		{"short answer with options", func(d *Document) { d.Questions[2].Options = []string{"Tokyo"} }, "questions[2].options"},
		{"duplicate order", func(d *Document) { d.Questions[2].Order = 0 }, "questions[2].order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			tt.mutate(&doc)
			err := doc.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestValidateQuestionSet_DuplicateOrder(t *testing.T) {
	qs := []model.Question{
		{QuestionText: "a", QuestionType: model.QuestionTypeShortAnswer, CorrectAnswers: []string{"x"}, Points: 1, OrderNum: 0},
		{QuestionText: "b", QuestionType: model.QuestionTypeShortAnswer, CorrectAnswers: []string{"y"}, Points: 1, OrderNum: 0},
	}
	if err := ValidateQuestionSet(qs); err == nil {
		t.Fatalf("expected duplicate order error")
	}
	qs[1].OrderNum = 1
	if err := ValidateQuestionSet(qs); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// sameSet reports whether a and b hold the same distinct values.
func sameSet(a, b []string) bool {
	x := slices.Clone(dedupe(a))
	y := slices.Clone(dedupe(b))
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func requireFormatError(t *testing.T, err error, reason string) {
	t.Helper()
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FormatError(%q), got %v", reason, err)
	}
	if ferr.Reason != reason {
		t.Fatalf("expected reason %q, got %q (%v)", reason, ferr.Reason, ferr)
	}
}
