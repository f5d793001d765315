package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/domain"
)

// NewTakeCmd runs a quiz session on the terminal.
func NewTakeCmd(opts *rootOptions) *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "take <file>",
		Short: "Take a quiz from a plain-text reviewer in the terminal",
		Long: `Take a quiz from a plain-text reviewer in the terminal.

Type an answer and press enter to record it and move on.
Commands: :next, :prev, :finish, :quit. End of input finishes the quiz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newOfflineService(opts)
			questions, err := loadDocument(cmd.Context(), service, args[0], answersPath)
			if err != nil {
				return err
			}
			session, err := service.NewSession(documentTitle(args[0]), questions)
			if err != nil {
				return err
			}
			return runTake(cmd.Context(), service, session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "answer key file (JSON array or one answer per line)")
	return cmd
}

func runTake(ctx context.Context, service *app.QuizService, session *app.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s: %d questions\n", session.Title(), session.Len())
	if !domain.HasAnswerKey(session.Questions()) {
		fmt.Fprintln(out, "No answer key loaded; every answer will be marked incorrect.")
	}
	session.Start()
	printQuestion(out, session)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q":
			fmt.Fprintln(out, "Quiz abandoned.")
			return nil
		case ":finish", ":f":
			return finishTake(ctx, service, session, out)
		case ":next", ":n":
			if !session.Advance() {
				fmt.Fprintln(out, "Already at the last question.")
			}
		case ":prev", ":p":
			if !session.Retreat() {
				fmt.Fprintln(out, "Already at the first question.")
			}
		default:
			if err := session.Answer(line); err != nil {
				return err
			}
			if !session.Advance() {
				fmt.Fprintln(out, "Last question answered. Type :finish to see your score.")
				continue
			}
		}
		printQuestion(out, session)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return finishTake(ctx, service, session, out)
}

func printQuestion(out io.Writer, session *app.Session) {
	q, err := session.CurrentQuestion()
	if err != nil {
		return
	}
	fmt.Fprintf(out, "\nQuestion %d of %d (%s)\n%s\n", session.Index()+1, session.Len(), typeLabel(q.Type), q.Text)
	switch q.Type {
	case domain.MultipleChoice:
		for _, key := range domain.OptionKeys {
			fmt.Fprintf(out, "  %s. %s\n", key, q.Options[key])
		}
	case domain.TrueFalse:
		fmt.Fprintln(out, "  answer true or false")
	}
	if q.Answered() {
		fmt.Fprintf(out, "  current answer: %s\n", q.UserAnswer)
	}
	fmt.Fprint(out, "> ")
}

func finishTake(ctx context.Context, service *app.QuizService, session *app.Session, out io.Writer) error {
	if n := session.Unanswered(); n > 0 {
		fmt.Fprintf(out, "\n%d question(s) left unanswered.\n", n)
	}
	outcome, err := service.FinishAndExport(ctx, session)
	if err != nil && outcome.Summary.SessionID == "" {
		return err
	}

	result := outcome.Export
	fmt.Fprintf(out, "\nScore: %s (%s)  Time: %s\n", result.Score, result.Percentage, result.Duration)
	for _, row := range result.Questions {
		mark := "wrong"
		if row.IsCorrect {
			mark = "correct"
		}
		fmt.Fprintf(out, "%2d. [%s] %s\n", row.Number, mark, row.Question)
		userAnswer := row.UserAnswer
		if userAnswer == "" {
			userAnswer = "(none)"
		}
		fmt.Fprintf(out, "    your answer: %s\n    expected:    %s\n", userAnswer, row.CorrectAnswer)
	}
	if outcome.Location != "" {
		fmt.Fprintf(out, "Results saved to %s\n", outcome.Location)
	}
	return err
}

func typeLabel(t domain.QuestionType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
