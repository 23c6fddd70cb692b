package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stemsi/quizhub-backend/internal/codec"
)

const sampleJSON = `{
  "quiz": {"title": "Capitals", "description": "Europe"},
  "questions": [
    {"questionText": "Capital of France?", "questionType": "mcq_single",
     "options": ["Paris", "Rome"], "correctAnswers": ["Paris"], "points": 2, "order": 0},
    {"questionText": "Pick the Italian cities", "questionType": "mcq_multiple",
     "options": ["Rome", "Milan", "Lyon"], "correctAnswers": ["Rome", "Milan"], "points": 1, "order": 1}
  ]
}`

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       codec.Format
		wantErr    bool
	}{
		{"", "", codec.FormatJSON, false},
		{"", "quiz.md", codec.FormatMarkdown, false},
		{"", "quiz.yaml", codec.FormatYAML, false},
		{"json", "quiz.md", codec.FormatJSON, false},
		{"", "quiz.txt", "", true},
		{"xml", "", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.name, tt.path)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("resolveFormat(%q, %q): expected error, got %s", tt.name, tt.path, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("resolveFormat(%q, %q): expected %s, got %s (%v)", tt.name, tt.path, tt.want, got, err)
		}
	}
}

func TestConvertJSONToMarkdownAndBack(t *testing.T) {
	md, err := convert(codec.FormatJSON, codec.FormatMarkdown, []byte(sampleJSON))
	if err != nil {
		t.Fatalf("convert to markdown: %v", err)
	}
	if !strings.HasPrefix(string(md), "# Capitals") {
		t.Fatalf("expected markdown title heading, got %q", string(md))
	}

	back, err := convert(codec.FormatMarkdown, codec.FormatJSON, md)
	if err != nil {
		t.Fatalf("convert back to json: %v", err)
	}
	doc, err := codec.DecodeJSON(back)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Quiz.Title != "Capitals" || len(doc.Questions) != 2 {
		t.Fatalf("expected 2 questions titled Capitals, got %q with %d", doc.Quiz.Title, len(doc.Questions))
	}
	if doc.Questions[0].Points != 2 {
		t.Fatalf("expected points 2, got %v", doc.Questions[0].Points)
	}
	if doc.Version != codec.FormatVersion {
		t.Fatalf("expected version %s, got %q", codec.FormatVersion, doc.Version)
	}
}

func TestConvertRejectsInvalidDocuments(t *testing.T) {
	_, err := convert(codec.FormatJSON, codec.FormatYAML, []byte(`{"quiz": {"title": "x"}, "questions": "nope"}`))
	var fe *codec.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}

	_, err = convert(codec.FormatJSON, codec.FormatYAML, []byte(`{"quiz": {"title": "Empty"}, "questions": []}`))
	var ve *codec.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	doc, err := codec.DecodeJSON([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := describe("capitals.json", 1500, doc)
	want := `capitals.json (1.5 kB): ok, "Capitals", 2 questions, 3 points`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
