package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/domain"
	"quiz-reviewer/internal/extract"
	"quiz-reviewer/internal/infra/file"
	"quiz-reviewer/internal/metrics"
)

// NewParseCmd prints the question records found in a document.
func NewParseCmd(opts *rootOptions) *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a plain-text reviewer and print its questions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newOfflineService(opts)
			questions, err := loadDocument(cmd.Context(), service, args[0], answersPath)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(questions)
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "answer key file (JSON array or one answer per line)")
	return cmd
}

// newOfflineService builds a service for the local commands: no catalog,
// results written to export.dir when configured.
func newOfflineService(opts *rootOptions) *app.QuizService {
	serviceOpts := []app.ServiceOption{
		app.WithLogger(opts.logger),
		app.WithMetrics(metrics.New(nil)),
		app.WithExtractor(extract.NewTextExtractor(opts.cfg.Parser.MaxBytes)),
	}
	if opts.cfg.Export.Dir != "" {
		serviceOpts = append(serviceOpts, app.WithResultSink(file.NewResultSink(opts.cfg.Export.Dir)))
	}
	return app.NewQuizService(newParser(opts.cfg, opts.logger), serviceOpts...)
}

func loadDocument(ctx context.Context, service *app.QuizService, path, answersPath string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	questions, err := service.ImportDocument(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	if answersPath == "" {
		return questions, nil
	}
	key, err := os.ReadFile(answersPath)
	if err != nil {
		return nil, err
	}
	if _, err := service.ApplyAnswerKey(string(key), questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func documentTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
