package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quiz-reviewer/internal/domain"
)

// QuizLoader fetches catalog quizzes from a backing store (file, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// QuizRepository caches catalog quizzes in Redis and falls back to a loader on cache miss.
// Definitions are stored as: SET quiz:{quizID}:definition {json}
// The listing is stored as:  SET quiz:catalog {json}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration, logger *zap.Logger) *QuizRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	key := r.definitionKey(quizID)

	var quiz domain.QuizDefinition
	if r.load(ctx, key, &quiz) {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var cached domain.QuizDefinition
		if r.load(ctx, key, &cached) {
			return cached, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		r.store(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	key := r.catalogKey()

	var entries []domain.QuizSummary
	if r.load(ctx, key, &entries) {
		return entries, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		entries, err := r.loader.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		r.store(ctx, key, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSummary), nil
}

// Invalidate drops a cached definition and the listing.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.definitionKey(quizID), r.catalogKey()).Err()
}

func (r *QuizRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// store is best-effort: a failed write only costs a reload later.
func (r *QuizRepository) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err(); err != nil {
		r.logger.Warn("redis cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *QuizRepository) definitionKey(quizID string) string {
	return "quiz:" + quizID + ":definition"
}

func (r *QuizRepository) catalogKey() string {
	return "quiz:catalog"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
