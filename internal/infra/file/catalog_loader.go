package file

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"quiz-reviewer/internal/domain"
)

//go:embed catalog.schema.json
var catalogSchemaText string

const catalogSchemaURL = "catalog.schema.json"

var catalogSchema = compileCatalogSchema()

func compileCatalogSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(catalogSchemaURL, strings.NewReader(catalogSchemaText)); err != nil {
		panic(fmt.Sprintf("add catalog schema: %v", err))
	}
	return compiler.MustCompile(catalogSchemaURL)
}

type catalogDocument struct {
	Quizzes []catalogQuiz `json:"quizzes"`
}

type catalogQuiz struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Questions   []json.RawMessage `json:"questions"`
}

// ParseCatalog decodes a YAML or JSON quiz catalog and validates it. All
// problems are reported together in a *ValidationError.
func ParseCatalog(data []byte, logger *zap.Logger) ([]domain.QuizDefinition, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// YAML is a superset of JSON, so one decoder covers both formats.
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}

	var instance any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}
	collector := &issueCollector{}
	if err := catalogSchema.Validate(instance); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			collectSchemaIssues(collector, verr)
			return nil, collector.result()
		}
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	var doc catalogDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	quizzes := make([]domain.QuizDefinition, 0, len(doc.Quizzes))
	seenIDs := map[string]struct{}{}
	for i, entry := range doc.Quizzes {
		prefix := fmt.Sprintf("quizzes[%d]", i)
		if _, exists := seenIDs[entry.ID]; exists {
			collector.add(prefix+".id", fmt.Sprintf("duplicate id %q", entry.ID))
		}
		seenIDs[entry.ID] = struct{}{}

		quiz := domain.QuizDefinition{
			ID:          entry.ID,
			Title:       strings.TrimSpace(entry.Title),
			Description: entry.Description,
			Icon:        entry.Icon,
			Questions:   make([]domain.Question, 0, len(entry.Questions)),
		}
		for j, rawQuestion := range entry.Questions {
			field := fmt.Sprintf("%s.questions[%d]", prefix, j)
			var q domain.Question
			if err := json.Unmarshal(rawQuestion, &q); err != nil {
				collector.add(field, err.Error())
				continue
			}
			if q.Type == domain.MultipleChoice && q.CorrectChoice != "" {
				if _, ok := q.Options[domain.OptionKey(q.CorrectChoice)]; !ok {
					logger.Warn("catalog answer names a missing option",
						zap.String("field", field),
						zap.String("answer", q.CorrectChoice),
					)
				}
			}
			quiz.Questions = append(quiz.Questions, q)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := collector.result(); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// collectSchemaIssues flattens the schema error tree into its leaf causes.
func collectSchemaIssues(collector *issueCollector, verr *jsonschema.ValidationError) {
	if len(verr.Causes) == 0 {
		field := strings.TrimPrefix(verr.InstanceLocation, "/")
		if field == "" {
			field = "catalog"
		}
		collector.add(strings.ReplaceAll(field, "/", "."), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaIssues(collector, cause)
	}
}

// CatalogLoader serves quizzes from a catalog file. It satisfies the loader
// contract of the memory and Redis quiz repositories.
type CatalogLoader struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	quizzes map[string]domain.QuizDefinition
}

// NewCatalogLoader reads and validates the catalog at path.
func NewCatalogLoader(path string, logger *zap.Logger) (*CatalogLoader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &CatalogLoader{path: path, logger: logger}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the catalog file. The previous contents are kept when the
// new file fails validation.
func (l *CatalogLoader) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	quizzes, err := ParseCatalog(data, l.logger)
	if err != nil {
		return fmt.Errorf("%s: %w", l.path, err)
	}
	byID := make(map[string]domain.QuizDefinition, len(quizzes))
	for _, quiz := range quizzes {
		byID[quiz.ID] = quiz
	}
	l.mu.Lock()
	l.quizzes = byID
	l.mu.Unlock()
	l.logger.Info("quiz catalog loaded", zap.String("path", l.path), zap.Int("quizzes", len(byID)))
	return nil
}

// Quizzes returns every catalog quiz ordered by ID.
func (l *CatalogLoader) Quizzes() []domain.QuizDefinition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	quizzes := make([]domain.QuizDefinition, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes
}

func (l *CatalogLoader) LoadQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	quiz.Questions = domain.CloneQuestions(quiz.Questions)
	return quiz, nil
}

func (l *CatalogLoader) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	quizzes := l.Quizzes()
	entries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		entries = append(entries, quiz.Summary())
	}
	return entries, nil
}
