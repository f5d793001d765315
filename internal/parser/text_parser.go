package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"quiz-reviewer/internal/domain"
)

// DefaultHeaderWords are bare section headers dropped before classification.
var DefaultHeaderWords = []string{"REVIEWER", "QUIZ", "QUESTIONS"}

var (
	optionLine      = regexp.MustCompile(`^([A-D])[.)\s]+(.+)$`)
	trueFalseMarker = regexp.MustCompile(`(?i)\((?:true/false|t/f)\)`)
	shortAnswerTag  = regexp.MustCompile(`(?i)\(short answer\)`)
	blankRun        = regexp.MustCompile(`_{3,}`)
)

// optionBlock is the question line plus its four option lines.
const optionBlock = 5

// TextParser turns free-form quiz text into question records using
// line-oriented heuristics. It never fails: unrecognized lines are dropped.
type TextParser struct {
	headers map[string]struct{}
	logger  *zap.Logger
}

// Option configures a TextParser.
type Option func(*TextParser)

// WithHeaderWords replaces the default header words.
func WithHeaderWords(words []string) Option {
	return func(p *TextParser) {
		p.headers = headerSet(words)
	}
}

// WithLogger attaches a logger for parse diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(p *TextParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewTextParser(opts ...Option) *TextParser {
	p := &TextParser{
		headers: headerSet(DefaultHeaderWords),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse classifies raw text into a freshly allocated question sequence.
// A document with nothing recognizable yields an empty slice.
func (p *TextParser) Parse(raw string) []domain.Question {
	lines := p.lines(raw)
	questions := make([]domain.Question, 0)

	for i := 0; i < len(lines); {
		if q, ok := tryMultipleChoice(lines, i); ok {
			questions = append(questions, q)
			i += optionBlock
			continue
		}

		line := lines[i]
		i++
		if q, ok := tryTrueFalse(line); ok {
			questions = append(questions, q)
			continue
		}
		if q, ok := tryFillInBlank(line); ok {
			questions = append(questions, q)
			continue
		}
		if q, ok := tryShortAnswer(line); ok {
			questions = append(questions, q)
		}
	}

	p.logger.Debug("parsed quiz text",
		zap.Int("lines", len(lines)),
		zap.Int("questions", len(questions)),
		zap.Any("byType", countByType(questions)),
	)
	return questions
}

func (p *TextParser) lines(raw string) []string {
	split := strings.Split(raw, "\n")
	out := make([]string, 0, len(split))
	for _, line := range split {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, header := p.headers[strings.ToUpper(line)]; header {
			continue
		}
		out = append(out, line)
	}
	return out
}

func tryMultipleChoice(lines []string, index int) (domain.Question, bool) {
	if index+optionBlock > len(lines) {
		return domain.Question{}, false
	}
	options := make(domain.Options, len(domain.OptionKeys))
	for j := 1; j < optionBlock; j++ {
		match := optionLine.FindStringSubmatch(lines[index+j])
		if match == nil {
			return domain.Question{}, false
		}
		key := domain.OptionKey(match[1])
		if _, dup := options[key]; dup {
			return domain.Question{}, false
		}
		options[key] = strings.TrimSpace(match[2])
	}
	if !options.Complete() {
		return domain.Question{}, false
	}
	return domain.Question{
		Type:    domain.MultipleChoice,
		Text:    lines[index],
		Options: options,
	}, true
}

func tryTrueFalse(line string) (domain.Question, bool) {
	if !trueFalseMarker.MatchString(line) {
		return domain.Question{}, false
	}
	return domain.Question{
		Type: domain.TrueFalse,
		Text: strings.TrimSpace(trueFalseMarker.ReplaceAllString(line, "")),
	}, true
}

func tryFillInBlank(line string) (domain.Question, bool) {
	if !blankRun.MatchString(line) {
		return domain.Question{}, false
	}
	return domain.Question{Type: domain.FillInBlank, Text: line}, true
}

func tryShortAnswer(line string) (domain.Question, bool) {
	if !shortAnswerTag.MatchString(line) {
		return domain.Question{}, false
	}
	return domain.Question{
		Type: domain.ShortAnswer,
		Text: strings.TrimSpace(shortAnswerTag.ReplaceAllString(line, "")),
	}, true
}

func headerSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func countByType(questions []domain.Question) map[domain.QuestionType]int {
	counts := make(map[domain.QuestionType]int)
	for _, q := range questions {
		counts[q.Type]++
	}
	return counts
}
