package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-reviewer/internal/domain"
)

// QuizLoader fetches catalog quizzes from a backing store (file, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

const listKey = "\x00list"

// QuizRepository caches catalog quizzes with TTL to avoid repeated loads.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu      sync.RWMutex
	cache   map[string]cachedQuiz
	listing cachedList
}

type cachedQuiz struct {
	quiz      domain.QuizDefinition
	expiresAt time.Time
}

type cachedList struct {
	entries   []domain.QuizSummary
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	r.mu.RLock()
	if r.listing.expiresAt.After(r.clock()) {
		entries := r.listing.entries
		r.mu.RUnlock()
		return entries, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(listKey, func() (interface{}, error) {
		entries, err := r.loader.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.listing = cachedList{entries: entries, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSummary), nil
}

func (r *QuizRepository) cached(quizID string) (domain.QuizDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(r.clock()) {
		return entry.quiz, true
	}
	return domain.QuizDefinition{}, false
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.QuizDefinition
}

func NewStaticQuizLoader(quizzes map[string]domain.QuizDefinition) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.QuizDefinition{}, domain.ErrQuizNotFound
}

func (l *StaticQuizLoader) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	entries := make([]domain.QuizSummary, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		entries = append(entries, quiz.Summary())
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}
