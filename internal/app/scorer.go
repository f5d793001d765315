package app

import (
	"math"
	"strings"

	"quiz-reviewer/internal/domain"
)

// Scorecard is the aggregate outcome of scoring a question sequence.
type Scorecard struct {
	Correct        []bool
	CorrectCount   int
	IncorrectCount int
	Percentage     float64
}

// Score marks every question's IsCorrect from its current user answer and
// returns the aggregate. It reads nothing but the questions themselves.
func Score(questions []domain.Question) Scorecard {
	card := Scorecard{Correct: make([]bool, len(questions))}
	for i := range questions {
		ok := IsCorrect(questions[i])
		questions[i].IsCorrect = ok
		card.Correct[i] = ok
		if ok {
			card.CorrectCount++
		}
	}
	card.IncorrectCount = len(questions) - card.CorrectCount
	card.Percentage = Percentage(card.CorrectCount, len(questions))
	return card
}

// IsCorrect applies the type-specific correctness rule. Unanswered and
// ungraded questions are never correct.
func IsCorrect(q domain.Question) bool {
	if q.UserAnswer == "" {
		return false
	}
	switch q.Type {
	case domain.MultipleChoice:
		if q.CorrectChoice == "" {
			return false
		}
		return strings.EqualFold(q.UserAnswer, q.CorrectChoice)
	case domain.TrueFalse:
		if q.CorrectTruth == nil {
			return false
		}
		return domain.ParseTruth(q.UserAnswer) == *q.CorrectTruth
	case domain.ShortAnswer, domain.FillInBlank:
		answer := strings.ToLower(strings.TrimSpace(q.UserAnswer))
		for _, accepted := range q.CorrectAnswers {
			if strings.ToLower(accepted) == answer {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Percentage returns correct/total as a percentage rounded to one decimal.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
