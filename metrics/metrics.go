package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry and the collectors the service updates.
type Metrics struct {
	reg *prometheus.Registry

	Registrations   *prometheus.CounterVec
	CheckIns        *prometheus.CounterVec
	FailedLogins    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		reg: reg,
		Registrations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tahuri_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		CheckIns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tahuri_checkins_total",
			Help: "Check-in and undo operations by action and result.",
		}, []string{"action", "result"}),
		FailedLogins: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tahuri_failed_login_attempts_total",
			Help: "Total number of failed admin login attempts.",
		}),
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tahuri_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Result labels
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Action labels of CheckIns
const (
	ActionCheckIn = "checkin"
	ActionUndo    = "undo"
)
