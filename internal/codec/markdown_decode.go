package codec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/model"
)

var (
	titlePattern     = regexp.MustCompile(`^#\s+(.+)$`)
	questionsPattern = regexp.MustCompile(`(?i)^##\s+questions\s*$`)
	questionPattern  = regexp.MustCompile(`^###\s+`)
	breakPattern     = regexp.MustCompile(`^-{3,}$`)
	labelPattern     = regexp.MustCompile(`^\*\*([^*]+?):\*\*\s*(.*)$`)
	optionPattern    = regexp.MustCompile(`^[-*]\s+([A-Za-z]+)[.)]\s*(.*?)\s*(✓|✔)?$`)
	leadingInt       = regexp.MustCompile(`^\d+`)
)

type mdState int

const (
	stateTitle mdState = iota
	stateMetadata
	stateQuestionsHeader
	stateQuestionBody
	stateOptionList
)

// mdDecoder walks the input one line at a time. A handler that does not advance the
// cursor hands the same line to the next state.
type mdDecoder struct {
	lines   []string
	pos     int
	state   mdState
	doc     Document
	current *mdQuestion
}

type mdQuestion struct {
	text    string
	qtype   model.QuestionType
	points  float64
	options []string
	marked  []string
	answers []string
}

// DecodeMarkdown parses a Markdown export document. Question order is renumbered 0..n-1 by
// position; questions without text are dropped.
func DecodeMarkdown(data []byte) (Document, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}

	d := &mdDecoder{lines: lines, state: stateTitle}
	return d.run()
}

func (d *mdDecoder) run() (Document, error) {
	for d.pos < len(d.lines) {
		line := d.lines[d.pos]
		var err error
		switch d.state {
		case stateTitle:
			err = d.title(line)
		case stateMetadata:
			d.metadata(line)
		case stateQuestionsHeader:
			d.questionsHeader(line)
		case stateQuestionBody:
			d.questionBody(line)
		case stateOptionList:
			d.optionList(line)
		}
		if err != nil {
			return Document{}, err
		}
	}

	switch d.state {
	case stateTitle:
		return Document{}, formatErr(ReasonMissingTitle, "")
	case stateMetadata, stateQuestionsHeader:
		return Document{}, formatErr(ReasonMissingQuestions, "")
	}

	d.finishQuestion()
	if len(d.doc.Questions) == 0 {
		return Document{}, formatErr(ReasonNoValidQuestions, "")
	}
	d.doc.Version = FormatVersion
	return d.doc, nil
}

func (d *mdDecoder) title(line string) error {
	if line == "" {
		d.pos++
		return nil
	}
	m := titlePattern.FindStringSubmatch(line)
	if m == nil {
		return formatErr(ReasonMissingTitle, "line %d", d.pos+1)
	}
	d.doc.Quiz.Title = strings.TrimSpace(m[1])
	d.state = stateMetadata
	d.pos++
	return nil
}

func (d *mdDecoder) metadata(line string) {
	if questionsPattern.MatchString(line) {
		d.state = stateQuestionsHeader
		return
	}
	d.pos++

	m := labelPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	value := strings.TrimSpace(m[2])
	switch strings.ToLower(strings.TrimSpace(m[1])) {
	case "description":
		d.doc.Quiz.Description = value
	case "duration":
		if n, err := strconv.Atoi(leadingInt.FindString(value)); err == nil {
			d.doc.Quiz.Duration = &n
		}
	case "status":
		d.doc.Quiz.IsPublished = strings.EqualFold(value, "published")
	case "exported":
		d.doc.ExportedAt = value
	}
}

func (d *mdDecoder) questionsHeader(line string) {
	if questionsPattern.MatchString(line) {
		d.state = stateQuestionBody
	}
	d.pos++
}

func (d *mdDecoder) questionBody(line string) {
	d.pos++

	switch {
	case questionPattern.MatchString(line):
		d.finishQuestion()
		d.current = &mdQuestion{qtype: model.QuestionTypeMCQSingle, points: 1}
		return
	case breakPattern.MatchString(line):
		d.finishQuestion()
		return
	}

	if d.current == nil {
		return
	}
	m := labelPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	label := strings.ToLower(strings.TrimSpace(m[1]))
	value := strings.TrimSpace(m[2])

	switch {
	case label == "type":
		d.current.qtype = typeFromLabel(value)
	case label == "points":
		if f := strings.Fields(value); len(f) > 0 {
			if p, err := strconv.ParseFloat(f[0], 64); err == nil {
				d.current.points = p
			}
		}
	case label == "question":
		d.current.text = value
	case label == "options":
		d.state = stateOptionList
	case strings.HasPrefix(label, "correct answer"):
		d.current.answers = splitAnswers(value)
	}
}

func (d *mdDecoder) optionList(line string) {
	if line == "" {
		d.pos++
		return
	}
	m := optionPattern.FindStringSubmatch(line)
	if m == nil {
		d.state = stateQuestionBody
		return
	}
	d.pos++

	text := m[2]
	if text == "" {
		return
	}
	d.current.options = append(d.current.options, text)
	if m[3] != "" {
		d.current.marked = append(d.current.marked, text)
	}
}

func (d *mdDecoder) finishQuestion() {
	q := d.current
	d.current = nil
	if d.state == stateOptionList {
		d.state = stateQuestionBody
	}
	if q == nil || q.text == "" {
		return
	}

	entry := QuestionEntry{
		QuestionText: q.text,
		QuestionType: q.qtype,
		Points:       q.points,
		Order:        len(d.doc.Questions),
	}
	if q.qtype.IsChoice() {
		entry.Options = q.options
		entry.CorrectAnswers = q.marked
	} else {
		entry.CorrectAnswers = q.answers
	}
	d.doc.Questions = append(d.doc.Questions, entry)
}

// typeFromLabel is lenient: anything it does not recognize is read as single choice.
func typeFromLabel(label string) model.QuestionType {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "multiple") && strings.Contains(l, "single"):
		return model.QuestionTypeMCQSingle
	case strings.Contains(l, "multiple"):
		return model.QuestionTypeMCQMultiple
	case strings.Contains(l, "short"):
		return model.QuestionTypeShortAnswer
	}
	return model.QuestionTypeMCQSingle
}

// splitAnswers splits on unescaped commas; `\,` and `\\` stand for a literal comma
// and backslash.
func splitAnswers(value string) []string {
	var (
		out  []string
		part strings.Builder
	)
	flush := func() {
		if p := strings.TrimSpace(part.String()); p != "" {
			out = append(out, p)
		}
		part.Reset()
	}
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == '\\' && i+1 < len(value) && (value[i+1] == ',' || value[i+1] == '\\'):
			i++
			part.WriteByte(value[i])
		case c == ',':
			flush()
		default:
			part.WriteByte(c)
		}
	}
	flush()
	return out
}
