package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-reviewer/internal/config"
	"quiz-reviewer/internal/infra/file"
	pgloader "quiz-reviewer/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrationsWithConfig(cmd.Context(), opts.cfg, opts.logger)
		},
	}
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	group, err := pgloader.Migrate(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("database schema is up to date")
		return nil
	}
	logger.Info("migrations applied", zap.String("group", group.String()))
	return nil
}

// NewImportCmd copies a catalog file into Postgres.
func NewImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [catalog-file]",
		Short: "Validate a quiz catalog and upsert it into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no catalog file given")
			}
			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, opts.cfg, opts.logger); err != nil {
				return err
			}

			catalog, err := file.NewCatalogLoader(path, opts.logger)
			if err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, opts.cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := pgloader.NewQuizLoader(pool)
			for _, quiz := range catalog.Quizzes() {
				if err := loader.SaveQuiz(ctx, quiz); err != nil {
					return err
				}
				opts.logger.Info("quiz imported", zap.String("quiz", quiz.ID), zap.Int("questions", len(quiz.Questions)))
			}
			return nil
		},
	}
}
