package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/svc/membership"
)

const namespace = "membership"

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	entitlementChecks *prometheus.CounterVec
	syncWriteFailures *prometheus.CounterVec
	recordLoads       *prometheus.CounterVec

	checkoutsCreated *prometheus.CounterVec
	paymentsApplied  *prometheus.CounterVec
	paymentsClosed   *prometheus.CounterVec

	gatewayDuration *prometheus.HistogramVec
	gatewayErrors   *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. A nil reg gets a fresh registry with the Go and
// process collectors attached.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		entitlementChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlements",
			Name:      "checks_total",
			Help:      "Entitlement checks by operation, kind and outcome.",
		}, []string{"operation", "kind", "allowed"}),

		syncWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "write_failures_total",
			Help:      "Failed membership record writes by store.",
		}, []string{"store"}),

		recordLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "record_loads_total",
			Help:      "Membership record loads by the store that served them.",
		}, []string{"source"}),

		checkoutsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "checkouts_created_total",
			Help:      "Checkout sessions opened by tier.",
		}, []string{"tier"}),

		paymentsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "applied_total",
			Help:      "Successful payments applied to memberships by confirmation path and tier.",
		}, []string{"path", "tier"}),

		paymentsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "closed_total",
			Help:      "Payment sessions closed without success by final status.",
		}, []string{"status"}),

		gatewayDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Payment gateway call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		gatewayErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Payment gateway call failures by operation and class.",
		}, []string{"operation", "class"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EntitlementChecked(operation, kind string, allowed bool) {
	m.entitlementChecks.WithLabelValues(operation, kind, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) SyncWriteFailed(store string) {
	m.syncWriteFailures.WithLabelValues(store).Inc()
}

func (m *Metrics) RecordLoaded(source membership.Source) {
	m.recordLoads.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) CheckoutCreated(tier string) {
	m.checkoutsCreated.WithLabelValues(tier).Inc()
}

func (m *Metrics) PaymentApplied(path, tier string) {
	m.paymentsApplied.WithLabelValues(path, tier).Inc()
}

func (m *Metrics) PaymentClosed(status string) {
	m.paymentsClosed.WithLabelValues(status).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// GatewayObserver returns an observer that records gateway latency and error classes.
func (m *Metrics) GatewayObserver() gateway.Observer {
	return func(operation string, d time.Duration, err error) {
		m.gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
		if err != nil {
			m.gatewayErrors.WithLabelValues(operation, errorClass(err)).Inc()
		}
	}
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, gateway.ErrProtocol):
		return "protocol"
	case errors.Is(err, gateway.ErrNetwork):
		return "network"
	case errors.Is(err, gateway.ErrRejected):
		return "rejected"
	case errors.Is(err, gateway.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "other"
	}
}
