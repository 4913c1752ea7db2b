// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into the coordinator, the notification bus, the scheduler and the HTTP host.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/infrastructure/messaging"
	"github.com/campus-agents/campus-hub/internal/infrastructure/scheduler"
)

const namespace = "campus"

var _ messaging.BusObserver = (*Metrics)(nil)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	actionsTotal     *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	stressLevel      prometheus.Gauge

	notificationsTotal *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec
	deliveryDuration   *prometheus.HistogramVec
	queueDropsTotal    *prometheus.CounterVec

	jobRunsTotal *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors. Runtime collectors are
// included when withRuntime is true.
func NewMetrics(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Student actions handled, by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent handling one action including follow-ups",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"action"},
		),
		stressLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "student_stress_level",
				Help:      "Current stress level of the student (0-100)",
			},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications emitted, by kind",
			},
			[]string{"kind"},
		),
		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Notification deliveries to bus subscribers, by subscriber, kind and outcome",
			},
			[]string{"subscriber", "kind", "outcome"},
		),
		deliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delivery_duration_seconds",
				Help:      "Time one subscriber spent handling one notification",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"subscriber"},
		),
		queueDropsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queue_drops_total",
				Help:      "Notifications evicted from a full subscriber queue",
			},
			[]string{"subscriber"},
		),
		jobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs, by job and status",
			},
			[]string{"job", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Scheduled job duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests, by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	m.registry.MustRegister(
		m.actionsTotal,
		m.dispatchDuration,
		m.stressLevel,
		m.notificationsTotal,
		m.deliveriesTotal,
		m.deliveryDuration,
		m.queueDropsTotal,
		m.jobRunsTotal,
		m.jobDuration,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAction records one handled action.
func (m *Metrics) ObserveAction(kind, outcome string, latency time.Duration) {
	m.actionsTotal.WithLabelValues(kind, outcome).Inc()
	if latency > 0 {
		m.dispatchDuration.WithLabelValues(kind).Observe(latency.Seconds())
	}
}

// SetStress records the current stress level.
func (m *Metrics) SetStress(level int) {
	m.stressLevel.Set(float64(level))
}

// CountingSink counts notifications by kind before passing them to next.
func (m *Metrics) CountingSink(next notification.Sink) notification.Sink {
	return notification.SinkFunc(func(n notification.Notification) {
		m.notificationsTotal.WithLabelValues(n.Kind().String()).Inc()
		next.Emit(n)
	})
}

// ObserveDelivery implements messaging.BusObserver.
func (m *Metrics) ObserveDelivery(subscriber string, kind notification.Kind, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.deliveriesTotal.WithLabelValues(subscriber, kind.String(), outcome).Inc()
	m.deliveryDuration.WithLabelValues(subscriber).Observe(d.Seconds())
}

// ObserveDrop implements messaging.BusObserver.
func (m *Metrics) ObserveDrop(subscriber string) {
	m.queueDropsTotal.WithLabelValues(subscriber).Inc()
}

// ObserveJob matches the scheduler completion hook.
func (m *Metrics) ObserveJob(result scheduler.JobResult) {
	status := "success"
	if !result.Success {
		status = "failure"
	}
	m.jobRunsTotal.WithLabelValues(result.JobName, status).Inc()
	m.jobDuration.WithLabelValues(result.JobName).Observe(result.Duration.Seconds())
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
