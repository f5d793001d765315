package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"quiz-reviewer/internal/domain"
	"quiz-reviewer/internal/extract"
	"quiz-reviewer/internal/metrics"
	"quiz-reviewer/internal/parser"
)

// QuizRepository loads catalog quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// ResultSink accepts an exported result and returns where it was written.
type ResultSink interface {
	Save(ctx context.Context, name string, result domain.ExportedResult) (string, error)
}

// QuizService contains the quiz use cases that sit around a single session.
type QuizService struct {
	parser    *parser.TextParser
	quizzes   QuizRepository
	extractor extract.Extractor
	sink      ResultSink
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*QuizService)

func WithQuizRepository(repo QuizRepository) ServiceOption {
	return func(s *QuizService) { s.quizzes = repo }
}

func WithExtractor(e extract.Extractor) ServiceOption {
	return func(s *QuizService) { s.extractor = e }
}

func WithResultSink(sink ResultSink) ServiceOption {
	return func(s *QuizService) { s.sink = sink }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *QuizService) { s.metrics = m }
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *QuizService) { s.logger = logger }
}

// WithClock is test-only for deterministic session timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(p *parser.TextParser, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		parser:    p,
		extractor: extract.NewTextExtractor(0),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	return s
}

// ParseDocument parses raw quiz text. An unproductive document is reported
// as domain.ErrNoQuestions.
func (s *QuizService) ParseDocument(raw string) ([]domain.Question, error) {
	questions := s.parser.Parse(raw)
	if len(questions) == 0 {
		s.metrics.DocumentsParsed.WithLabelValues("empty").Inc()
		s.logger.Info("document yielded no questions", zap.Int("bytes", len(raw)))
		return nil, domain.ErrNoQuestions
	}
	s.metrics.DocumentsParsed.WithLabelValues("ok").Inc()
	for _, q := range questions {
		s.metrics.QuestionsParsed.WithLabelValues(string(q.Type)).Inc()
	}
	s.logger.Info("document parsed", zap.Int("questions", len(questions)))
	return questions, nil
}

// ImportDocument extracts text from an uploaded document and parses it.
func (s *QuizService) ImportDocument(ctx context.Context, name string, r io.Reader) ([]domain.Question, error) {
	text, err := s.extractor.Extract(ctx, name, r)
	if err != nil {
		s.metrics.DocumentsParsed.WithLabelValues("unsupported").Inc()
		s.logger.Warn("document extraction failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return s.ParseDocument(text)
}

// ApplyAnswerKey binds an answer key to previously parsed questions.
func (s *QuizService) ApplyAnswerKey(text string, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, domain.ErrNoQuestions
	}
	bound := parser.ApplyAnswerKey(text, questions)
	if bound < len(questions) {
		s.logger.Info("answer key shorter than question list",
			zap.Int("answers", bound),
			zap.Int("questions", len(questions)),
		)
	}
	for _, q := range questions[:bound] {
		if q.Type == domain.MultipleChoice {
			if _, ok := q.Options[domain.OptionKey(q.CorrectChoice)]; !ok {
				s.logger.Warn("answer key names a missing option",
					zap.String("question", q.Text),
					zap.String("answer", q.CorrectChoice),
				)
			}
		}
	}
	return bound, nil
}

// NewSession wraps parsed questions in a fresh, idle session.
func (s *QuizService) NewSession(title string, questions []domain.Question) (*Session, error) {
	session, err := NewSessionWithClock(title, questions, s.now)
	if err != nil {
		return nil, err
	}
	s.metrics.SessionsStarted.WithLabelValues("document").Inc()
	s.logger.Info("session created",
		zap.String("session", session.ID()),
		zap.String("title", title),
		zap.Int("questions", len(questions)),
		zap.Bool("graded", domain.HasAnswerKey(questions)),
	)
	return session, nil
}

// StartCatalogQuiz opens a session over a copy of a catalog quiz so the
// cached definition is never mutated.
func (s *QuizService) StartCatalogQuiz(ctx context.Context, quizID string) (*Session, error) {
	if s.quizzes == nil {
		return nil, domain.ErrQuizNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	session, err := NewSessionWithClock(quiz.Title, domain.CloneQuestions(quiz.Questions), s.now)
	if err != nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	s.metrics.SessionsStarted.WithLabelValues("catalog").Inc()
	s.logger.Info("catalog session created", zap.String("session", session.ID()), zap.String("quiz", quizID))
	return session, nil
}

// Catalog lists the quizzes available to StartCatalogQuiz.
func (s *QuizService) Catalog(ctx context.Context) ([]domain.QuizSummary, error) {
	if s.quizzes == nil {
		return []domain.QuizSummary{}, nil
	}
	return s.quizzes.ListQuizzes(ctx)
}

// CatalogQuiz returns a catalog quiz with its answer key removed.
func (s *QuizService) CatalogQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	if s.quizzes == nil {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = q.Clone().WithoutKey()
	}
	quiz.Questions = questions
	return quiz, nil
}

// Finish finishes the session and records the outcome.
func (s *QuizService) Finish(session *Session) (domain.ResultSummary, error) {
	summary, err := session.Finish()
	if err != nil {
		return domain.ResultSummary{}, err
	}
	s.metrics.SessionsFinished.Inc()
	s.metrics.ScorePercent.Observe(summary.Percentage)
	s.logger.Info("session finished",
		zap.String("session", summary.SessionID),
		zap.Int("correct", summary.CorrectCount),
		zap.Int("total", summary.TotalQuestions),
		zap.Float64("percentage", summary.Percentage),
		zap.Int64("durationMs", summary.DurationMs),
	)
	return summary, nil
}

// Outcome is a finished session together with its export.
type Outcome struct {
	Summary  domain.ResultSummary
	Export   domain.ExportedResult
	Location string
}

// FinishAndExport finishes the session and hands the export to the sink.
// Location is empty when no sink is configured. A sink failure still returns
// the scored outcome alongside the error.
func (s *QuizService) FinishAndExport(ctx context.Context, session *Session) (Outcome, error) {
	summary, err := s.Finish(session)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Summary: summary, Export: Export(summary)}
	if s.sink == nil {
		return out, nil
	}
	name := fmt.Sprintf("quiz-results-%d-%s.json", summary.FinishedAt.UnixMilli(), summary.SessionID)
	location, err := s.sink.Save(ctx, name, out.Export)
	if err != nil {
		s.logger.Warn("result export failed", zap.String("session", summary.SessionID), zap.Error(err))
		return out, fmt.Errorf("save results: %w", err)
	}
	out.Location = location
	s.logger.Info("results exported", zap.String("session", summary.SessionID), zap.String("location", location))
	return out, nil
}
