package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-reviewer/internal/domain"
)

// QuizLoader loads catalog quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.QuizDefinition
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = quizID
	return quiz, nil
}

func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id,
		       coalesce(data->>'title', ''),
		       coalesce(data->>'description', ''),
		       coalesce(data->>'icon', ''),
		       coalesce(jsonb_array_length(data->'questions'), 0)
		FROM quizzes
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var entry domain.QuizSummary
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.Icon, &entry.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan quiz row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return entries, nil
}

// SaveQuiz upserts a catalog quiz; used by the import command and tests.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.QuizDefinition) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		quiz.ID, string(data))
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	return nil
}
