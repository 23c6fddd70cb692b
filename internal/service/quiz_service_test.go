package service

import (
	"encoding/json"
	"testing"

	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
)

func TestQuestionCacheEntries(t *testing.T) {
	tests := []struct {
		name      string
		published bool
		wantPaper bool
	}{
		{"published quiz caches paper", true, true},
		{"unpublished quiz never caches paper", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, questions := cloneFixture()
			quiz.IsPublished = tt.published

			entries, err := questionCacheEntries(&quiz, questions)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			keys := make(map[string][]byte)
			for _, e := range entries {
				keys[e.key] = e.value
			}
			if _, ok := keys[config.CacheKey.QuizQuestionsKey(quiz.ID.String())]; !ok {
				t.Fatalf("expected question set entry, got %d entries", len(entries))
			}

			paper, ok := keys[config.CacheKey.QuizPaperKey(quiz.ID.String())]
			if ok != tt.wantPaper {
				t.Fatalf("expected paper cached=%v, got %v", tt.wantPaper, ok)
			}
			if !ok {
				return
			}
			var decoded model.QuizPaper
			if err := json.Unmarshal(paper, &decoded); err != nil {
				t.Fatalf("decode paper: %v", err)
			}
			if decoded.QuizID != quiz.ID || len(decoded.Questions) != len(questions) {
				t.Fatalf("expected paper for %s with %d questions, got %+v", quiz.ID, len(questions), decoded)
			}
		})
	}
}
