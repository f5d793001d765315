package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors recorded by the quiz service and transport.
type Metrics struct {
	DocumentsParsed  *prometheus.CounterVec
	QuestionsParsed  *prometheus.CounterVec
	SessionsStarted  *prometheus.CounterVec
	SessionsFinished prometheus.Counter
	ScorePercent     prometheus.Histogram
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers collectors with reg. A nil reg creates unregistered
// collectors, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_documents_parsed_total",
			Help: "Quiz documents parsed, by outcome",
		}, []string{"outcome"}),
		QuestionsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_questions_parsed_total",
			Help: "Questions produced by the text parser, by type",
		}, []string{"type"}),
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Quiz sessions created, by question source",
		}, []string{"source"}),
		SessionsFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_finished_total",
			Help: "Quiz sessions finished and scored",
		}),
		ScorePercent: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_score_percent",
			Help:    "Distribution of finished session scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		RequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"method", "endpoint"}),
	}
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
