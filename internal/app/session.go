package app

import (
	"time"

	"github.com/google/uuid"

	"quiz-reviewer/internal/domain"
)

// SessionState is the lifecycle phase of a quiz attempt.
type SessionState int

const (
	// StateIdle is a created or reset session waiting for Start.
	StateIdle SessionState = iota
	StateActive
	StateFinished
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Session is one user's attempt at an ordered question sequence. It owns the
// slice it was given and mutates UserAnswer and IsCorrect in place. A
// Session is driven by a single caller and is not safe for concurrent use.
type Session struct {
	id         string
	title      string
	questions  []domain.Question
	index      int
	state      SessionState
	startedAt  time.Time
	finishedAt time.Time
	now        func() time.Time
}

// NewSession wraps questions in an idle session.
func NewSession(title string, questions []domain.Question) (*Session, error) {
	return NewSessionWithClock(title, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(title string, questions []domain.Question, now func() time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return &Session{
		id:        uuid.NewString(),
		title:     title,
		questions: questions,
		now:       now,
	}, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Title() string { return s.title }
func (s *Session) State() SessionState { return s.state }
func (s *Session) Index() int { return s.index }
func (s *Session) Len() int { return len(s.questions) }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) FinishedAt() time.Time { return s.finishedAt }
func (s *Session) Questions() []domain.Question { return s.questions }

// Start stamps the start time and activates the session. Calling it again
// restarts the clock.
func (s *Session) Start() {
	s.startedAt = s.now()
	s.finishedAt = time.Time{}
	s.state = StateActive
}

// CurrentQuestion returns the record under the cursor.
func (s *Session) CurrentQuestion() (*domain.Question, error) {
	if s.index < 0 || s.index >= len(s.questions) {
		return nil, domain.ErrOutOfRange
	}
	return &s.questions[s.index], nil
}

// Answer stores value verbatim on the current question. Interpretation is
// left to scoring.
func (s *Session) Answer(value string) error {
	q, err := s.CurrentQuestion()
	if err != nil {
		return err
	}
	switch s.state {
	case StateIdle:
		return domain.ErrSessionNotStarted
	case StateFinished:
		return domain.ErrSessionFinished
	}
	q.UserAnswer = value
	return nil
}

// Advance moves the cursor forward and reports whether it moved.
func (s *Session) Advance() bool {
	if !s.CanAdvance() {
		return false
	}
	s.index++
	return true
}

// Retreat moves the cursor back and reports whether it moved.
func (s *Session) Retreat() bool {
	if !s.CanRetreat() {
		return false
	}
	s.index--
	return true
}

func (s *Session) CanAdvance() bool {
	return s.state != StateFinished && s.index < len(s.questions)-1
}

func (s *Session) CanRetreat() bool {
	return s.state != StateFinished && s.index > 0
}

func (s *Session) IsLast() bool {
	return s.index == len(s.questions)-1
}

// Progress is the cursor position as a percentage of the sequence.
func (s *Session) Progress() float64 {
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.index+1) / float64(len(s.questions)) * 100
}

// Unanswered counts questions without a user answer.
func (s *Session) Unanswered() int {
	n := 0
	for _, q := range s.questions {
		if !q.Answered() {
			n++
		}
	}
	return n
}

// Elapsed is the running time of an active session, or the final duration
// of a finished one.
func (s *Session) Elapsed() time.Duration {
	switch s.state {
	case StateActive:
		return s.now().Sub(s.startedAt)
	case StateFinished:
		return s.finishedAt.Sub(s.startedAt)
	}
	return 0
}

// Finish freezes the session and scores it. Finishing again re-stamps the
// end time and recomputes the summary.
func (s *Session) Finish() (domain.ResultSummary, error) {
	if s.state == StateIdle {
		return domain.ResultSummary{}, domain.ErrSessionNotStarted
	}
	s.finishedAt = s.now()
	s.state = StateFinished
	return s.summary(), nil
}

// Reset clears every answer and timestamp and returns the session to idle.
func (s *Session) Reset() {
	s.index = 0
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
	s.state = StateIdle
	for i := range s.questions {
		s.questions[i].UserAnswer = ""
		s.questions[i].IsCorrect = false
	}
}

func (s *Session) summary() domain.ResultSummary {
	card := Score(s.questions)
	return domain.ResultSummary{
		Title:          s.title,
		SessionID:      s.id,
		TotalQuestions: len(s.questions),
		CorrectCount:   card.CorrectCount,
		IncorrectCount: card.IncorrectCount,
		Percentage:     card.Percentage,
		DurationMs:     s.finishedAt.Sub(s.startedAt).Milliseconds(),
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
		Questions:      s.questions,
	}
}
