package codec

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/model"
)

// EncodeJSON renders the document as indented JSON. Output is deterministic.
func EncodeJSON(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses a JSON export document. It fails with a *FormatError and returns no
// partial result when a required field is missing or a question is malformed.
func DecodeJSON(data []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Document{}, formatErr(ReasonInvalidJSON, "%v", err)
	}
	return decodeTree(top)
}

// jsonQuiz and jsonQuestion use pointers so absent fields can be told apart from zero values.
type jsonQuiz struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Duration    *int    `json:"duration"`
	IsPublished *bool   `json:"isPublished"`
}

type jsonQuestion struct {
	QuestionText   *string         `json:"questionText"`
	QuestionType   *string         `json:"questionType"`
	Options        []string        `json:"options"`
	CorrectAnswers json.RawMessage `json:"correctAnswers"`
	Points         *float64        `json:"points"`
	Order          *int            `json:"order"`
}

// decodeTree validates and assembles a document from its top-level JSON members.
// The YAML decoder funnels through here as well.
func decodeTree(top map[string]json.RawMessage) (Document, error) {
	var doc Document

	var quiz *jsonQuiz
	if raw, ok := top["quiz"]; ok {
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return Document{}, formatErr(ReasonMissingFields, "quiz: %v", err)
		}
	}
	if quiz == nil || quiz.Title == nil || strings.TrimSpace(*quiz.Title) == "" {
		return Document{}, formatErr(ReasonMissingFields, "quiz.title")
	}
	doc.Quiz.Title = *quiz.Title
	if quiz.Description != nil {
		doc.Quiz.Description = *quiz.Description
	}
	doc.Quiz.Duration = quiz.Duration
	if quiz.IsPublished != nil {
		doc.Quiz.IsPublished = *quiz.IsPublished
	}

	var rawQuestions []json.RawMessage
	raw, ok := top["questions"]
	if !ok || isNull(raw) {
		return Document{}, formatErr(ReasonMissingFields, "questions")
	}
	if err := json.Unmarshal(raw, &rawQuestions); err != nil {
		return Document{}, formatErr(ReasonMissingFields, "questions must be a list")
	}

	doc.Questions = make([]QuestionEntry, 0, len(rawQuestions))
	for i, rq := range rawQuestions {
		entry, err := decodeQuestion(i, rq)
		if err != nil {
			return Document{}, err
		}
		doc.Questions = append(doc.Questions, entry)
	}

	if v, ok := top["exportedAt"]; ok {
		_ = json.Unmarshal(v, &doc.ExportedAt)
	}
	if v, ok := top["version"]; ok {
		_ = json.Unmarshal(v, &doc.Version)
	}
	return doc, nil
}

func decodeQuestion(index int, raw json.RawMessage) (QuestionEntry, error) {
	var q jsonQuestion
	if isNull(raw) {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestion, "question %d", index+1)
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestion, "question %d: %v", index+1, err)
	}

	if q.QuestionText == nil || strings.TrimSpace(*q.QuestionText) == "" || q.QuestionType == nil {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestion, "question %d", index+1)
	}

	var correct []string
	if len(q.CorrectAnswers) == 0 || isNull(q.CorrectAnswers) {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestion, "question %d: correctAnswers", index+1)
	}
	if err := json.Unmarshal(q.CorrectAnswers, &correct); err != nil || len(correct) == 0 {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestion, "question %d: correctAnswers", index+1)
	}

	qt := model.QuestionType(*q.QuestionType)
	if !qt.Valid() {
		return QuestionEntry{}, formatErr(ReasonInvalidQuestionType, "question %d: %q", index+1, *q.QuestionType)
	}

	entry := QuestionEntry{
		QuestionText:   *q.QuestionText,
		QuestionType:   qt,
		Options:        q.Options,
		CorrectAnswers: correct,
		Points:         1,
		Order:          index,
	}
	if q.Points != nil {
		entry.Points = *q.Points
	}
	if q.Order != nil {
		entry.Order = *q.Order
	}
	return entry, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
