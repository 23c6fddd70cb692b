// Package codec converts quizzes to and from their interchange documents (JSON, Markdown
// and YAML) and validates imported documents before anything is persisted.
package codec

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// FormatVersion is stamped on every exported document.
const FormatVersion = "1.0"

// Document is the transient export snapshot of one quiz and its questions.
type Document struct {
	Quiz       QuizMeta        `json:"quiz" yaml:"quiz"`
	Questions  []QuestionEntry `json:"questions" yaml:"questions"`
	ExportedAt string          `json:"exportedAt" yaml:"exportedAt"`
	Version    string          `json:"version" yaml:"version"`
}

// QuizMeta holds the quiz-level fields of a document.
type QuizMeta struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Duration    *int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	IsPublished bool   `json:"isPublished" yaml:"isPublished"`
}

// QuestionEntry is one question of a document.
type QuestionEntry struct {
	QuestionText   string             `json:"questionText" yaml:"questionText"`
	QuestionType   model.QuestionType `json:"questionType" yaml:"questionType"`
	Options        []string           `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswers []string           `json:"correctAnswers" yaml:"correctAnswers"`
	Points         float64            `json:"points" yaml:"points"`
	Order          int                `json:"order" yaml:"order"`
}

// NewDocument snapshots a quiz and its questions, ordered by OrderNum.
func NewDocument(quiz model.Quiz, questions []model.Question, now time.Time) Document {
	sorted := slices.Clone(questions)
	slices.SortStableFunc(sorted, func(a, b model.Question) int {
		return a.OrderNum - b.OrderNum
	})

	entries := make([]QuestionEntry, len(sorted))
	for i, q := range sorted {
		entries[i] = QuestionEntry{
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			Options:        slices.Clone(q.Options),
			CorrectAnswers: slices.Clone(q.CorrectAnswers),
			Points:         q.Points,
			Order:          q.OrderNum,
		}
	}

	var duration *int
	if quiz.Duration != nil {
		d := *quiz.Duration
		duration = &d
	}

	return Document{
		Quiz: QuizMeta{
			Title:       quiz.Title,
			Description: quiz.Description,
			Duration:    duration,
			IsPublished: quiz.IsPublished,
		},
		Questions:  entries,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Version:    FormatVersion,
	}
}

// ToModel converts the document into a quiz owned by creatorID and its questions.
// Identities are left zero for the persistence layer to assign.
func (d Document) ToModel(creatorID uuid.UUID) (model.Quiz, []model.Question) {
	quiz := model.Quiz{
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(d.Quiz.Title),
		Description: d.Quiz.Description,
		IsPublished: d.Quiz.IsPublished,
	}
	if d.Quiz.Duration != nil {
		v := *d.Quiz.Duration
		quiz.Duration = &v
	}

	questions := make([]model.Question, len(d.Questions))
	for i, q := range d.Questions {
		questions[i] = model.Question{
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			Options:        slices.Clone(q.Options),
			CorrectAnswers: slices.Clone(q.CorrectAnswers),
			Points:         q.Points,
			OrderNum:       q.Order,
		}
	}
	return quiz, questions
}

// Validate checks the invariants a document must satisfy before it is persisted.
// It returns a *ValidationError for the first offending field.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Quiz.Title) == "" {
		return &ValidationError{Field: "quiz.title", Reason: "must not be empty"}
	}
	if d.Quiz.Duration != nil && *d.Quiz.Duration <= 0 {
		return &ValidationError{Field: "quiz.duration", Reason: "must be a positive number of minutes"}
	}
	if len(d.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "must contain at least one question"}
	}

	orders := make(map[int]struct{}, len(d.Questions))
	for i, q := range d.Questions {
		prefix := fmt.Sprintf("questions[%d].", i)
		if err := validateQuestion(prefix, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswers, q.Points); err != nil {
			return err
		}
		if _, dup := orders[q.Order]; dup {
			return &ValidationError{Field: prefix + "order", Reason: "must be unique within the quiz"}
		}
		orders[q.Order] = struct{}{}
	}
	return nil
}

// ValidateQuestion applies the document question rules to a single stored question.
func ValidateQuestion(q model.Question) error {
	return validateQuestion("", q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswers, q.Points)
}

// ValidateQuestionSet validates every question and the uniqueness of their order numbers.
func ValidateQuestionSet(questions []model.Question) error {
	orders := make(map[int]struct{}, len(questions))
	for i, q := range questions {
		prefix := fmt.Sprintf("questions[%d].", i)
		if err := validateQuestion(prefix, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswers, q.Points); err != nil {
			return err
		}
		if _, dup := orders[q.OrderNum]; dup {
			return &ValidationError{Field: prefix + "order_num", Reason: "must be unique within the quiz"}
		}
		orders[q.OrderNum] = struct{}{}
	}
	return nil
}

func validateQuestion(prefix, text string, qt model.QuestionType, options, correct []string, points float64) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: prefix + "questionText", Reason: "must not be empty"}
	}
	if !qt.Valid() {
		return &ValidationError{Field: prefix + "questionType", Reason: fmt.Sprintf("unrecognized type %q", qt)}
	}
	if !(points > 0) {
		return &ValidationError{Field: prefix + "points", Reason: "must be positive"}
	}
	if len(correct) == 0 {
		return &ValidationError{Field: prefix + "correctAnswers", Reason: "must contain at least one answer"}
	}

	if !qt.IsChoice() {
		if len(options) > 0 {
			return &ValidationError{Field: prefix + "options", Reason: "short answer questions take no options"}
		}
		return nil
	}

	if len(options) == 0 {
		return &ValidationError{Field: prefix + "options", Reason: "choice questions need at least one option"}
	}
	for _, ans := range correct {
		if !slices.Contains(options, ans) {
			return &ValidationError{Field: prefix + "correctAnswers", Reason: fmt.Sprintf("%q is not one of the options", ans)}
		}
	}
	if qt == model.QuestionTypeMCQSingle && len(dedupe(correct)) != 1 {
		return &ValidationError{Field: prefix + "correctAnswers", Reason: "single answer questions need exactly one correct answer"}
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
