package codec

import (
	"slices"
	"strconv"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/model"
)

const (
	correctMark  = "✓"
	sectionBreak = "---"
)

// Type labels written to Markdown documents.
var typeLabels = map[model.QuestionType]string{
	model.QuestionTypeMCQSingle:   "Multiple Choice (Single Answer)",
	model.QuestionTypeMCQMultiple: "Multiple Choice (Multiple Answers)",
	model.QuestionTypeShortAnswer: "Short Answer",
}

// EncodeMarkdown renders the document as Markdown. Questions are written in order of their
// Order field. Line breaks inside single-line fields are folded into spaces.
func EncodeMarkdown(doc Document) []byte {
	var b strings.Builder

	b.WriteString("# " + oneLine(doc.Quiz.Title) + "\n\n")

	if doc.Quiz.Description != "" {
		b.WriteString("**Description:** " + oneLine(doc.Quiz.Description) + "\n\n")
	}
	if doc.Quiz.Duration != nil {
		b.WriteString("**Duration:** " + strconv.Itoa(*doc.Quiz.Duration) + " minutes\n\n")
	}
	status := "Draft"
	if doc.Quiz.IsPublished {
		status = "Published"
	}
	b.WriteString("**Status:** " + status + "\n\n")
	if doc.ExportedAt != "" {
		b.WriteString("**Exported:** " + oneLine(doc.ExportedAt) + "\n\n")
	}

	b.WriteString(sectionBreak + "\n\n## Questions\n\n")

	questions := slices.Clone(doc.Questions)
	slices.SortStableFunc(questions, func(a, b QuestionEntry) int {
		return a.Order - b.Order
	})

	for i, q := range questions {
		if i > 0 {
			b.WriteString(sectionBreak + "\n\n")
		}
		writeQuestion(&b, i+1, q)
	}
	return []byte(b.String())
}

func writeQuestion(b *strings.Builder, n int, q QuestionEntry) {
	label, ok := typeLabels[q.QuestionType]
	if !ok {
		label = string(q.QuestionType)
	}

	b.WriteString("### Question " + strconv.Itoa(n) + "\n\n")
	b.WriteString("**Type:** " + label + "\n\n")
	b.WriteString("**Points:** " + strconv.FormatFloat(q.Points, 'f', -1, 64) + "\n\n")
	b.WriteString("**Question:** " + oneLine(q.QuestionText) + "\n\n")

	if q.QuestionType.IsChoice() {
		b.WriteString("**Options:**\n\n")
		for i, opt := range q.Options {
			line := "- " + optionLetter(i) + ". " + oneLine(opt)
			if slices.Contains(q.CorrectAnswers, opt) {
				line += " " + correctMark
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
		return
	}

	answers := make([]string, len(q.CorrectAnswers))
	for i, a := range q.CorrectAnswers {
		answers[i] = escapeAnswer(a)
	}
	b.WriteString("**Correct Answer(s):** " + strings.Join(answers, ", ") + "\n\n")
}

// optionLetter maps 0, 1, ... 25, 26 to A, B, ... Z, AA.
func optionLetter(i int) string {
	var letters []byte
	for i >= 0 {
		letters = append([]byte{byte('A' + i%26)}, letters...)
		i = i/26 - 1
	}
	return string(letters)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// oneLine folds line breaks into spaces. Inner spacing is kept.
func oneLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var answerEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`)

// escapeAnswer protects the list separator inside a short answer.
func escapeAnswer(s string) string {
	return answerEscaper.Replace(oneLine(s))
}
