package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quiz-reviewer/internal/domain"
)

const notProvided = "Not provided"

// Export re-keys a result summary into its downloadable form.
func Export(summary domain.ResultSummary) domain.ExportedResult {
	rows := make([]domain.ExportedQuestion, len(summary.Questions))
	for i, q := range summary.Questions {
		rows[i] = domain.ExportedQuestion{
			Number:        i + 1,
			Type:          q.Type,
			Question:      q.Text,
			UserAnswer:    q.UserAnswer,
			CorrectAnswer: CorrectAnswerText(q),
			IsCorrect:     q.IsCorrect,
		}
	}
	return domain.ExportedResult{
		Title:      summary.Title,
		SessionID:  summary.SessionID,
		Date:       summary.FinishedAt.UTC().Format(time.RFC3339),
		Score:      fmt.Sprintf("%d/%d", summary.CorrectCount, summary.TotalQuestions),
		Percentage: strconv.FormatFloat(summary.Percentage, 'f', -1, 64) + "%",
		Duration:   FormatDuration(summary.DurationMs),
		Questions:  rows,
	}
}

// CorrectAnswerText renders the expected answer for display.
func CorrectAnswerText(q domain.Question) string {
	switch q.Type {
	case domain.MultipleChoice:
		if q.CorrectChoice == "" {
			return notProvided
		}
		return fmt.Sprintf("%s. %s", q.CorrectChoice, q.Options[domain.OptionKey(q.CorrectChoice)])
	case domain.TrueFalse:
		if q.CorrectTruth == nil {
			return notProvided
		}
		return strconv.FormatBool(*q.CorrectTruth)
	case domain.ShortAnswer, domain.FillInBlank:
		if len(q.CorrectAnswers) == 0 {
			return notProvided
		}
		return strings.Join(q.CorrectAnswers, ", ")
	default:
		return "Unknown"
	}
}

// FormatDuration renders milliseconds as "Xm Ys".
func FormatDuration(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
