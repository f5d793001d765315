package app

import (
	"errors"
	"testing"
	"time"

	"quiz-reviewer/internal/domain"
)

// stepClock advances one second on every reading.
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClockedSession(t *testing.T, questions []domain.Question) (*Session, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
	session, err := NewSessionWithClock("Sample", questions, clock.now)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, clock
}

func threeQuestions() []domain.Question {
	return []domain.Question{
		{Type: domain.MultipleChoice, Text: "2+2?", Options: domain.Options{"A": "3", "B": "4", "C": "5", "D": "6"}, CorrectChoice: "B"},
		{Type: domain.TrueFalse, Text: "Go has generics", CorrectTruth: truth(true)},
		{Type: domain.ShortAnswer, Text: "Capital of France", CorrectAnswers: []string{"Paris"}},
	}
}

func TestNewSessionRequiresQuestions(t *testing.T) {
	if _, err := NewSession("empty", nil); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestCurrentQuestionOnEmptySession(t *testing.T) {
	var s Session
	if _, err := s.CurrentQuestion(); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := s.Answer("x"); !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestAnswerRequiresStart(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())

	if err := s.Answer("B"); !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted, got %v", err)
	}
	if _, err := s.Finish(); !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected finish before start to fail, got %v", err)
	}
}

func TestNavigationClamps(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()

	if s.Retreat() {
		t.Fatalf("retreat at index 0 must report false")
	}
	if s.Index() != 0 {
		t.Fatalf("index moved to %d", s.Index())
	}
	if !s.Advance() || !s.Advance() {
		t.Fatalf("expected two successful advances")
	}
	if !s.IsLast() {
		t.Fatalf("expected cursor on last question")
	}
	if s.Advance() {
		t.Fatalf("advance at last index must report false")
	}
	if s.Index() != 2 {
		t.Fatalf("expected index 2, got %d", s.Index())
	}
	if s.Progress() != 100 {
		t.Fatalf("expected progress 100, got %v", s.Progress())
	}
}

func TestFullAttemptScores(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()

	mustAnswer(t, s, "b")
	s.Advance()
	mustAnswer(t, s, "yes")
	s.Advance()
	mustAnswer(t, s, "  london ")

	summary, err := s.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if summary.TotalQuestions != 3 || summary.CorrectCount != 2 || summary.IncorrectCount != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.Percentage != 66.7 {
		t.Fatalf("expected 66.7, got %v", summary.Percentage)
	}
	if summary.DurationMs != 1000 {
		t.Fatalf("expected 1000ms from the step clock, got %d", summary.DurationMs)
	}
	if summary.SessionID == "" || summary.Title != "Sample" {
		t.Fatalf("summary missing identity: %+v", summary)
	}
	if !summary.Questions[0].IsCorrect || summary.Questions[2].IsCorrect {
		t.Fatalf("per-question correctness wrong: %+v", summary.Questions)
	}
}

func TestFinishedSessionIsFrozen(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()
	mustAnswer(t, s, "B")
	s.Advance()

	first, err := s.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := s.Answer("true"); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
	if s.Advance() || s.Retreat() {
		t.Fatalf("cursor must be frozen after finish")
	}

	second, err := s.Finish()
	if err != nil {
		t.Fatalf("refinish: %v", err)
	}
	if !second.FinishedAt.After(first.FinishedAt) || second.DurationMs <= first.DurationMs {
		t.Fatalf("refinish must restamp end time: first=%v second=%v", first.FinishedAt, second.FinishedAt)
	}
	if second.CorrectCount != first.CorrectCount {
		t.Fatalf("refinish changed the score")
	}
}

func TestResetClearsAttempt(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()
	firstStart := s.StartedAt()
	mustAnswer(t, s, "B")
	s.Advance()
	mustAnswer(t, s, "true")
	if _, err := s.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	s.Reset()
	if s.State() != StateIdle || s.Index() != 0 {
		t.Fatalf("expected idle session at index 0, got %s at %d", s.State(), s.Index())
	}
	if !s.StartedAt().IsZero() || !s.FinishedAt().IsZero() {
		t.Fatalf("timestamps must be cleared")
	}
	for i, q := range s.Questions() {
		if q.UserAnswer != "" || q.IsCorrect {
			t.Fatalf("question %d not cleared: %+v", i, q)
		}
	}
	if s.Unanswered() != 3 {
		t.Fatalf("expected 3 unanswered, got %d", s.Unanswered())
	}

	s.Start()
	if !s.StartedAt().After(firstStart) {
		t.Fatalf("expected fresh start time after %v, got %v", firstStart, s.StartedAt())
	}
	if err := s.Answer("A"); err != nil {
		t.Fatalf("answer after restart: %v", err)
	}
}

func TestStartTwiceRestartsClock(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()
	first := s.StartedAt()
	s.Start()
	if !s.StartedAt().After(first) {
		t.Fatalf("second start must restamp")
	}
	if s.State() != StateActive {
		t.Fatalf("expected active, got %s", s.State())
	}
}

func TestAnswerStoredVerbatim(t *testing.T) {
	s, _ := newClockedSession(t, threeQuestions())
	s.Start()
	mustAnswer(t, s, "  not even a letter ")

	q, err := s.CurrentQuestion()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if q.UserAnswer != "  not even a letter " {
		t.Fatalf("answer must be stored verbatim, got %q", q.UserAnswer)
	}
}

func mustAnswer(t *testing.T, s *Session, value string) {
	t.Helper()
	if err := s.Answer(value); err != nil {
		t.Fatalf("answer %q: %v", value, err)
	}
}
