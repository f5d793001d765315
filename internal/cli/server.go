package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/config"
	"quiz-reviewer/internal/extract"
	"quiz-reviewer/internal/infra/file"
	"quiz-reviewer/internal/infra/memory"
	"quiz-reviewer/internal/infra/minio"
	pgloader "quiz-reviewer/internal/infra/postgres"
	rediscache "quiz-reviewer/internal/infra/redis"
	"quiz-reviewer/internal/metrics"
	"quiz-reviewer/internal/parser"
	transport "quiz-reviewer/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := opts.port
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := metrics.New(reg)
	service, cleanup, err := buildService(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(service, transport.RouterOptions{
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService wires the quiz service from config. The catalog comes from
// Postgres when configured, otherwise from the catalog file; Redis fronts
// it when an address is set. Exports go to MinIO, then a local directory.
func buildService(ctx context.Context, cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	serviceOpts := []app.ServiceOption{
		app.WithLogger(logger),
		app.WithMetrics(m),
		app.WithExtractor(extract.NewTextExtractor(cfg.Parser.MaxBytes)),
	}

	var loader memory.QuizLoader
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		loader = pgloader.NewQuizLoader(pool)
	case cfg.Catalog.Path != "":
		catalog, err := file.NewCatalogLoader(cfg.Catalog.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		loader = catalog
	}

	if loader != nil {
		quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
		if cfg.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			closers = append(closers, func() { _ = client.Close() })
			serviceOpts = append(serviceOpts, app.WithQuizRepository(rediscache.NewQuizRepository(client, loader, quizTTL, logger)))
		} else {
			serviceOpts = append(serviceOpts, app.WithQuizRepository(memory.NewQuizRepository(loader, quizTTL)))
		}
	}

	switch {
	case cfg.Export.Minio.Enabled():
		sink, err := minio.NewResultSink(cfg.Export.Minio)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if err := sink.EnsureBucket(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		serviceOpts = append(serviceOpts, app.WithResultSink(sink))
	case cfg.Export.Dir != "":
		serviceOpts = append(serviceOpts, app.WithResultSink(file.NewResultSink(cfg.Export.Dir)))
	}

	return app.NewQuizService(newParser(cfg, logger), serviceOpts...), cleanup, nil
}

func newParser(cfg config.Config, logger *zap.Logger) *parser.TextParser {
	parserOpts := []parser.Option{parser.WithLogger(logger)}
	if len(cfg.Parser.HeaderWords) > 0 {
		parserOpts = append(parserOpts, parser.WithHeaderWords(cfg.Parser.HeaderWords))
	}
	return parser.NewTextParser(parserOpts...)
}
