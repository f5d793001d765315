package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QuestionType is the closed set of question kinds the parser and scorer understand.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	FillInBlank    QuestionType = "fill_in_blank"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, FillInBlank:
		return true
	}
	return false
}

// OptionKey labels a multiple-choice option.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys lists the option keys in display order.
var OptionKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

// Options maps option keys to their text.
type Options map[OptionKey]string

// Complete reports whether all four option keys carry text.
func (o Options) Complete() bool {
	if len(o) != len(OptionKeys) {
		return false
	}
	for _, key := range OptionKeys {
		if strings.TrimSpace(o[key]) == "" {
			return false
		}
	}
	return true
}

// Question is one parsed quiz question. Type decides which of the correctness
// fields are meaningful: CorrectChoice for multiple choice, CorrectTruth for
// true/false and CorrectAnswers for short answer and fill-in-the-blank.
type Question struct {
	Type           QuestionType
	Text           string
	Options        Options
	CorrectChoice  string
	CorrectTruth   *bool
	CorrectAnswers []string
	UserAnswer     string
	IsCorrect      bool
}

// Graded reports whether the question has a correctness reference.
func (q Question) Graded() bool {
	switch q.Type {
	case MultipleChoice:
		return q.CorrectChoice != ""
	case TrueFalse:
		return q.CorrectTruth != nil
	case ShortAnswer, FillInBlank:
		return len(q.CorrectAnswers) > 0
	}
	return false
}

// Answered reports whether a user answer has been recorded.
func (q Question) Answered() bool {
	return q.UserAnswer != ""
}

// WithoutKey returns a copy of the question with every correctness reference removed.
func (q Question) WithoutKey() Question {
	q.CorrectChoice = ""
	q.CorrectTruth = nil
	q.CorrectAnswers = nil
	q.IsCorrect = false
	return q
}

// Clone returns a deep copy so callers never share options or answer lists.
func (q Question) Clone() Question {
	if q.Options != nil {
		opts := make(Options, len(q.Options))
		for k, v := range q.Options {
			opts[k] = v
		}
		q.Options = opts
	}
	if q.CorrectTruth != nil {
		truth := *q.CorrectTruth
		q.CorrectTruth = &truth
	}
	if q.CorrectAnswers != nil {
		q.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	}
	return q
}

// HasAnswerKey reports whether any question carries a correctness reference.
func HasAnswerKey(questions []Question) bool {
	for _, q := range questions {
		if q.Graded() {
			return true
		}
	}
	return false
}

// CloneQuestions deep-copies a question slice.
func CloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}

type questionWire struct {
	Type           QuestionType `json:"type"`
	Question       string       `json:"question"`
	Options        Options      `json:"options,omitempty"`
	CorrectAnswer  any          `json:"correctAnswer,omitempty"`
	CorrectAnswers []string     `json:"correctAnswers,omitempty"`
	UserAnswer     string       `json:"userAnswer,omitempty"`
	IsCorrect      bool         `json:"isCorrect"`
}

// MarshalJSON writes the record in its wire form, where correctAnswer is a
// letter for multiple choice and a boolean for true/false.
func (q Question) MarshalJSON() ([]byte, error) {
	wire := questionWire{
		Type:       q.Type,
		Question:   q.Text,
		UserAnswer: q.UserAnswer,
		IsCorrect:  q.IsCorrect,
	}
	switch q.Type {
	case MultipleChoice:
		wire.Options = q.Options
		if q.CorrectChoice != "" {
			wire.CorrectAnswer = q.CorrectChoice
		}
	case TrueFalse:
		if q.CorrectTruth != nil {
			wire.CorrectAnswer = *q.CorrectTruth
		}
	case ShortAnswer, FillInBlank:
		wire.CorrectAnswers = q.CorrectAnswers
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the wire form. Unknown types are rejected.
func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, wire.Type)
	}
	out := Question{
		Type:       wire.Type,
		Text:       wire.Question,
		UserAnswer: wire.UserAnswer,
		IsCorrect:  wire.IsCorrect,
	}
	switch wire.Type {
	case MultipleChoice:
		if !wire.Options.Complete() {
			return fmt.Errorf("%w: multiple choice needs options A-D", ErrInvalidQuestion)
		}
		out.Options = wire.Options
		switch v := wire.CorrectAnswer.(type) {
		case nil:
		case string:
			out.CorrectChoice = strings.ToUpper(strings.TrimSpace(v))
		default:
			return fmt.Errorf("%w: multiple choice correctAnswer must be a string", ErrInvalidQuestion)
		}
	case TrueFalse:
		switch v := wire.CorrectAnswer.(type) {
		case nil:
		case bool:
			out.CorrectTruth = &v
		case string:
			truth := ParseTruth(v)
			out.CorrectTruth = &truth
		default:
			return fmt.Errorf("%w: true/false correctAnswer must be a boolean", ErrInvalidQuestion)
		}
	case ShortAnswer, FillInBlank:
		out.CorrectAnswers = wire.CorrectAnswers
	}
	*q = out
	return nil
}

// ParseTruth maps an answer token to a boolean. Only true, t, 1 and yes
// (any case, surrounding space ignored) are true; everything else is false,
// including typos such as "flase".
func ParseTruth(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "true", "t", "1", "yes":
		return true
	}
	return false
}

// QuizDefinition is a catalog entry: a titled, ready-made question set.
type QuizDefinition struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Questions   []Question `json:"questions"`
}

// QuizSummary is the catalog listing view of a quiz.
type QuizSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Icon          string `json:"icon,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

// Summary returns the listing view of the definition.
func (d QuizDefinition) Summary() QuizSummary {
	return QuizSummary{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Icon:          d.Icon,
		QuestionCount: len(d.Questions),
	}
}

// ResultSummary is the scored outcome of a finished session.
type ResultSummary struct {
	Title          string     `json:"title"`
	SessionID      string     `json:"sessionId"`
	TotalQuestions int        `json:"totalQuestions"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
	Percentage     float64    `json:"percentage"`
	DurationMs     int64      `json:"durationMs"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     time.Time  `json:"finishedAt"`
	Questions      []Question `json:"questions"`
}

// ExportedQuestion is one row of a downloadable result.
type ExportedQuestion struct {
	Number        int          `json:"number"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	UserAnswer    string       `json:"userAnswer"`
	CorrectAnswer string       `json:"correctAnswer"`
	IsCorrect     bool         `json:"isCorrect"`
}

// ExportedResult is the human-readable download shape of a result summary.
type ExportedResult struct {
	Title      string             `json:"title"`
	SessionID  string             `json:"sessionId"`
	Date       string             `json:"date"`
	Score      string             `json:"score"`
	Percentage string             `json:"percentage"`
	Duration   string             `json:"duration"`
	Questions  []ExportedQuestion `json:"questions"`
}
