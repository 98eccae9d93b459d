package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const OutcomeAccepted = "accepted"

var (
	admissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_decisions_total",
			Help: "Ticket purchase and edit decisions by outcome",
		},
		[]string{"operation", "outcome"},
	)

	activitiesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_activities_processed_total",
			Help: "Ticket activities consumed by the availability worker",
		},
		[]string{"kind", "result"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveAdmission outcome 為 OutcomeAccepted 或拒絕代碼
func ObserveAdmission(operation, outcome string) {
	admissionDecisions.WithLabelValues(operation, outcome).Inc()
}

func ObserveActivity(kind, result string) {
	activitiesProcessed.WithLabelValues(kind, result).Inc()
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler 給 /metrics 使用
func Handler() http.Handler {
	return promhttp.Handler()
}
