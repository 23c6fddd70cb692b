package codec

import (
	"errors"
	"fmt"
)

// Format error reasons. They are surfaced verbatim to the importer.
const (
	ReasonInvalidJSON         = "invalid JSON"
	ReasonInvalidYAML         = "invalid YAML"
	ReasonMissingFields       = "missing required fields"
	ReasonInvalidQuestion     = "invalid question"
	ReasonInvalidQuestionType = "invalid question type"
	ReasonMissingTitle        = "missing title"
	ReasonMissingQuestions    = "missing questions section"
	ReasonNoValidQuestions    = "no valid questions found"
	ReasonUnsupportedFormat   = "unsupported format"
)

// ErrUnsupportedFormat is returned for an unknown interchange format name or extension.
var ErrUnsupportedFormat = errors.New(ReasonUnsupportedFormat)

// FormatError reports malformed or incomplete import text.
type FormatError struct {
	Reason string
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}

func formatErr(reason string, detailFormat string, args ...any) *FormatError {
	e := &FormatError{Reason: reason}
	if detailFormat != "" {
		e.Detail = fmt.Sprintf(detailFormat, args...)
	}
	return e
}

// ValidationError reports a structurally invalid field in an otherwise well-formed document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
