package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-reviewer/internal/domain"
	"quiz-reviewer/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.QuizDefinition{
			"general": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute, nil)

	_, err = repo.GetQuiz(context.Background(), "general")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:general:definition") {
		t.Fatalf("expected definition cached in redis")
	}
	if ttl := mr.TTL("quiz:general:definition"); ttl < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	quiz, err := repo.GetQuiz(context.Background(), "general")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	// The cached copy must keep the typed answer key.
	tf := quiz.Questions[1]
	if tf.Type != domain.TrueFalse || tf.CorrectTruth == nil || *tf.CorrectTruth {
		t.Fatalf("true/false key lost in cache round trip: %+v", tf)
	}
	if quiz.Questions[0].CorrectChoice != "B" || quiz.Questions[0].Options["D"] != "Madrid" {
		t.Fatalf("multiple choice lost in cache round trip: %+v", quiz.Questions[0])
	}
}

func TestQuizRepositoryDiscardsCorruptEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	_ = mr.Set("quiz:general:definition", "{not json")
	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.QuizDefinition{"general": sampleQuiz()}),
	}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute, nil)

	if _, err := repo.GetQuiz(context.Background(), "general"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected corrupt entry to trigger a load, calls=%d", loader.calls)
	}
}

func TestQuizRepositoryListingAndInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(map[string]domain.QuizDefinition{
		"general": sampleQuiz(),
	}), time.Minute, nil)

	entries, err := repo.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].QuestionCount != 2 {
		t.Fatalf("unexpected listing %+v", entries)
	}
	if !mr.Exists("quiz:catalog") {
		t.Fatalf("expected listing cached")
	}

	if _, err := repo.GetQuiz(context.Background(), "general"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if err := repo.Invalidate(context.Background(), "general"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:catalog") || mr.Exists("quiz:general:definition") {
		t.Fatalf("expected keys removed")
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.QuizDefinition {
	correct := false
	return domain.QuizDefinition{
		ID:    "general",
		Title: "General Knowledge",
		Questions: []domain.Question{
			{
				Type:          domain.MultipleChoice,
				Text:          "What is the capital of France?",
				Options:       domain.Options{"A": "London", "B": "Paris", "C": "Berlin", "D": "Madrid"},
				CorrectChoice: "B",
			},
			{
				Type:         domain.TrueFalse,
				Text:         "The Great Wall of China is visible from space.",
				CorrectTruth: &correct,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
