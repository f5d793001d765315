package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/metrics"
)

// RouterOptions carries what NewRouter needs beyond the quiz service.
type RouterOptions struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter wires the REST endpoints, the websocket session endpoint and
// the metrics scrape endpoint.
func NewRouter(service *app.QuizService, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := NewHandler(service, logger)
	router.GET("/quizzes", api.ListQuizzes)
	router.GET("/quizzes/:id", api.GetQuiz)
	router.POST("/parse", api.Parse)

	ws := NewWSHandler(service, logger)
	router.GET("/ws", ws.ServeWS)
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
