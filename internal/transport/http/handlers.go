package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/domain"
)

// Handler serves the request/response endpoints.
type Handler struct {
	service *app.QuizService
	logger  *zap.Logger
}

func NewHandler(service *app.QuizService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type parseRequest struct {
	Text      string `json:"text"`
	AnswerKey string `json:"answerKey"`
}

type parseResponse struct {
	Questions []domain.Question `json:"questions"`
	Graded    bool              `json:"graded"`
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	entries, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": entries})
}

// GetQuiz returns a catalog quiz without its answer key.
func (h *Handler) GetQuiz(c *gin.Context) {
	quiz, err := h.service.CatalogQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// Parse accepts either a JSON body or a multipart upload with a "file" part
// and an optional "answerKey" field.
func (h *Handler) Parse(c *gin.Context) {
	var (
		questions []domain.Question
		answerKey string
		err       error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
			return
		}
		defer file.Close()
		answerKey = c.PostForm("answerKey")
		questions, err = h.service.ImportDocument(c.Request.Context(), header.Filename, file)
	} else {
		var req parseRequest
		if berr := c.ShouldBindJSON(&req); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		answerKey = req.AnswerKey
		questions, err = h.service.ParseDocument(req.Text)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if strings.TrimSpace(answerKey) != "" {
		if _, err := h.service.ApplyAnswerKey(answerKey, questions); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, parseResponse{Questions: questions, Graded: domain.HasAnswerKey(questions)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnsupportedInput):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrSessionFinished):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
