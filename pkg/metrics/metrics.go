package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FailedDeployment tracks verification failures per application.
	// Reset to 0 when the app reaches the expected version, incremented
	// when a task times out. "app not found" does not touch it.
	FailedDeployment = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "failed_deployment",
			Help: "Failed deployment",
		},
		[]string{"app_name"},
	)

	// TasksProcessed counts verification tasks by terminal status
	TasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollwatch_tasks_processed_total",
			Help: "Total number of verification tasks by terminal status",
		},
		[]string{"status"},
	)

	// TasksInProgress tracks currently running verification loops
	TasksInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollwatch_tasks_in_progress",
			Help: "Number of verification tasks currently polling ArgoCD",
		},
	)

	// APIRequestsTotal counts API requests by method and status
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollwatch_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	// APIRequestDuration observes API request latency
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollwatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ArgoRequestsTotal counts outgoing ArgoCD API calls by operation and status
	ArgoRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollwatch_argocd_requests_total",
			Help: "Total number of ArgoCD API calls by operation and status code",
		},
		[]string{"operation", "code"},
	)
)

func init() {
	prometheus.MustRegister(FailedDeployment)
	prometheus.MustRegister(TasksProcessed)
	prometheus.MustRegister(TasksInProgress)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ArgoRequestsTotal)
}

// ResetFailedDeployment zeroes the failure gauge for an application
func ResetFailedDeployment(app string) {
	FailedDeployment.WithLabelValues(app).Set(0)
}

// IncFailedDeployment increments the failure gauge for an application
func IncFailedDeployment(app string) {
	FailedDeployment.WithLabelValues(app).Inc()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
