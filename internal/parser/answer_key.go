package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"quiz-reviewer/internal/domain"
)

// AnswerEntry is one answer-key item: either a single string or a list of
// acceptable strings.
type AnswerEntry struct {
	Text   string
	List   []string
	IsList bool
}

// TextAnswer wraps a single answer string.
func TextAnswer(text string) AnswerEntry {
	return AnswerEntry{Text: text}
}

// ListAnswer wraps a list of acceptable answers.
func ListAnswer(list []string) AnswerEntry {
	return AnswerEntry{Text: strings.Join(list, ","), List: list, IsList: true}
}

// ParseAnswerKey reads an answer key. A JSON array is used as-is; anything
// else is read as one answer per non-empty line.
func ParseAnswerKey(text string) []AnswerEntry {
	if entries, ok := parseArrayKey(text); ok {
		return entries
	}
	var entries []AnswerEntry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, TextAnswer(line))
	}
	return entries
}

// ApplyAnswerKey parses text and binds it to questions by position. It
// returns how many questions received an answer.
func ApplyAnswerKey(text string, questions []domain.Question) int {
	return ApplyAnswers(ParseAnswerKey(text), questions)
}

// ApplyAnswers binds entries[i] to questions[i] for every index both share.
// Extra entries are ignored; trailing questions stay ungraded.
func ApplyAnswers(entries []AnswerEntry, questions []domain.Question) int {
	n := min(len(entries), len(questions))
	for i := 0; i < n; i++ {
		bindAnswer(&questions[i], entries[i])
	}
	return n
}

func bindAnswer(q *domain.Question, entry AnswerEntry) {
	switch q.Type {
	case domain.MultipleChoice:
		// Not checked against the option keys; a letter outside A-D can never match.
		q.CorrectChoice = strings.ToUpper(strings.TrimSpace(entry.Text))
	case domain.TrueFalse:
		truth := domain.ParseTruth(entry.Text)
		q.CorrectTruth = &truth
	case domain.ShortAnswer, domain.FillInBlank:
		switch {
		case entry.IsList:
			q.CorrectAnswers = append([]string(nil), entry.List...)
		case strings.Contains(entry.Text, ","):
			parts := strings.Split(entry.Text, ",")
			answers := make([]string, len(parts))
			for i, part := range parts {
				answers[i] = strings.TrimSpace(part)
			}
			q.CorrectAnswers = answers
		default:
			q.CorrectAnswers = []string{entry.Text}
		}
	}
}

func parseArrayKey(text string) ([]AnswerEntry, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, false
	}
	entries := make([]AnswerEntry, 0, len(raw))
	for _, item := range raw {
		var list []json.RawMessage
		if bytes.HasPrefix(bytes.TrimSpace(item), []byte("[")) && json.Unmarshal(item, &list) == nil {
			values := make([]string, 0, len(list))
			for _, v := range list {
				values = append(values, scalarText(v))
			}
			entries = append(entries, ListAnswer(values))
			continue
		}
		entries = append(entries, TextAnswer(scalarText(item)))
	}
	return entries, true
}

// scalarText renders a JSON scalar the way it reads in the key: strings
// unquoted, numbers and booleans as written, null as empty.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
