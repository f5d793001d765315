package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"quiz-reviewer/internal/domain"
)

// ResultSink writes exported results as indented JSON files under a directory.
type ResultSink struct {
	dir string
}

func NewResultSink(dir string) *ResultSink {
	return &ResultSink{dir: dir}
}

// Save writes result to dir/name and returns the file path.
func (s *ResultSink) Save(ctx context.Context, name string, result domain.ExportedResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid result name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
