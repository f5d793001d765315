package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/infra/file"
	pgloader "quiz-reviewer/internal/infra/postgres"
	infraredis "quiz-reviewer/internal/infra/redis"
	"quiz-reviewer/internal/parser"
)

func TestCatalogSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := pgloader.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewQuizLoader(pool)
	seedCatalog(t, ctx, loader)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute, nil)
	exportDir := t.TempDir()
	service := app.NewQuizService(parser.NewTextParser(),
		app.WithQuizRepository(quizRepo),
		app.WithResultSink(file.NewResultSink(exportDir)),
	)

	entries, err := service.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(entries) < 3 || entries[0].ID != "capitals-recall" {
		t.Fatalf("unexpected catalog listing %+v", entries)
	}

	session, err := service.StartCatalogQuiz(ctx, "general-knowledge")
	if err != nil {
		t.Fatalf("start catalog quiz: %v", err)
	}
	session.Start()
	for i, answer := range []string{"B", "C", "false", "A", "yes"} {
		if err := session.Answer(answer); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		session.Advance()
	}

	outcome, err := service.FinishAndExport(ctx, session)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if outcome.Summary.CorrectCount != 4 || outcome.Summary.Percentage != 80 {
		t.Fatalf("expected 4/5 (80%%), got %+v", outcome.Summary)
	}
	if filepath.Dir(outcome.Location) != exportDir {
		t.Fatalf("unexpected export location %s", outcome.Location)
	}

	exists, err := redisClient.Exists(ctx, "quiz:general-knowledge:definition").Result()
	if err != nil || exists != 1 {
		t.Fatalf("expected definition cached in redis: exists=%d err=%v", exists, err)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, loader *pgloader.QuizLoader) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "config", "quizzes.yaml"))
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	quizzes, err := file.ParseCatalog(data, nil)
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	for _, quiz := range quizzes {
		if err := loader.SaveQuiz(ctx, quiz); err != nil {
			t.Fatalf("save quiz %s: %v", quiz.ID, err)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
