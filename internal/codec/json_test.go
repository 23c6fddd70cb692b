package codec

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stemsi/quizhub-backend/internal/model"
)

func TestJSONRoundTrip(t *testing.T) {
	doc := sampleDocument()

	data, err := EncodeJSON(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch\nwant %+v\ngot  %+v", doc, got)
	}
}

func TestEncodeJSON_Deterministic(t *testing.T) {
	a, _ := EncodeJSON(sampleDocument())
	b, _ := EncodeJSON(sampleDocument())
	if string(a) != string(b) {
		t.Fatalf("encoding is not deterministic")
	}
	if !strings.Contains(string(a), `"questionText": "What is the capital of France?"`) {
		t.Fatalf("unexpected layout:\n%s", a)
	}
}

func TestDecodeJSON_Defaults(t *testing.T) {
	input := `{
		"quiz": {"title": "Defaults"},
		"questions": [
			{"questionText": "One?", "questionType": "short_answer", "correctAnswers": ["1"]},
			{"questionText": "Two?", "questionType": "short_answer", "correctAnswers": ["2"]}
		]
	}`
	doc, err := DecodeJSON([]byte(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Quiz.IsPublished {
		t.Fatalf("expected isPublished to default to false")
	}
	if doc.Quiz.Duration != nil {
		t.Fatalf("expected no duration, got %d", *doc.Quiz.Duration)
	}
	for i, q := range doc.Questions {
		if q.Points != 1 {
			t.Fatalf("question %d: expected default points 1, got %v", i, q.Points)
		}
		if q.Order != i {
			t.Fatalf("question %d: expected order %d, got %d", i, i, q.Order)
		}
	}
	if doc.Questions[0].QuestionType != model.QuestionTypeShortAnswer {
		t.Fatalf("unexpected type %q", doc.Questions[0].QuestionType)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"not json", `{"quiz":`, ReasonInvalidJSON},
		{"top-level array", `[]`, ReasonInvalidJSON},
		{"missing title", `{"quiz": {"description": "x"}, "questions": []}`, ReasonMissingFields},
		{"missing quiz", `{"questions": []}`, ReasonMissingFields},
		{"null questions", `{"quiz": {"title": "T"}, "questions": null}`, ReasonMissingFields},
		{"questions not a list", `{"quiz": {"title": "T"}, "questions": {}}`, ReasonMissingFields},
		{"missing question text", `{"quiz": {"title": "T"}, "questions": [{"questionType": "mcq_single", "correctAnswers": ["a"]}]}`, ReasonInvalidQuestion},
		{"missing correct answers", `{"quiz": {"title": "T"}, "questions": [{"questionText": "Q", "questionType": "mcq_single"}]}`, ReasonInvalidQuestion},
		{"empty correct answers", `{"quiz": {"title": "T"}, "questions": [{"questionText": "Q", "questionType": "mcq_single", "correctAnswers": []}]}`, ReasonInvalidQuestion},
		{"unknown type", `{"quiz": {"title": "T"}, "questions": [{"questionText": "Q", "questionType": "essay", "correctAnswers": ["a"]}]}`, ReasonInvalidQuestionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.input))
			requireFormatError(t, err, tt.reason)
		})
	}
}

func TestDecodeJSON_EmptyQuestionListIsAccepted(t *testing.T) {
	doc, err := DecodeJSON([]byte(`{"quiz": {"title": "T"}, "questions": []}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(doc.Questions))
	}
	if doc.Validate() == nil {
		t.Fatalf("expected validation to reject an empty question list")
	}
}
