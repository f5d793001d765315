package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS quizzes_title_idx ON quizzes ((data->>'title'))`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP INDEX IF EXISTS quizzes_title_idx`)
			return err
		},
	)
}
