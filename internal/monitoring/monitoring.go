package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"method", "endpoint"},
	)

	// AICalls counts gateway operations by operation (generate|evaluate) and source (gemini|mock).
	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_ai_calls_total",
			Help: "AI gateway operations by source",
		},
		[]string{"operation", "source"},
	)

	QuestionJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_question_jobs_total",
			Help: "Question generation jobs by result",
		},
		[]string{"result"},
	)

	QuestionQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutor_question_queue_depth",
			Help: "Pending question generation jobs",
		},
	)
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
