package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	gradingJobsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	sseClientsActive   prometheus.Gauge
	quizAttemptsGraded prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guru_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guru_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guru_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guru_grading_jobs_total",
			Help: "Background grading jobs by outcome.",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guru_notifications_published_total",
			Help: "Notifications published, labelled by notification type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guru_sse_clients_active",
			Help: "Number of currently connected SSE notification clients.",
		})

		quizAttemptsGraded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guru_quiz_attempts_graded_total",
			Help: "Quiz attempts graded locally.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingJobsTotal,
			notificationsTotal,
			sseClientsActive,
			quizAttemptsGraded,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingJobs exposes the counter for background grading job outcomes.
func GradingJobs() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingJobsTotal
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SSEClientsActive exposes the gauge of connected SSE clients.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// QuizAttemptsGraded exposes the counter for locally graded quiz attempts.
func QuizAttemptsGraded() prometheus.Counter {
	RegisterMetrics()
	return quizAttemptsGraded
}
