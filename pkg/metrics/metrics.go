package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agenda"

// Metrics коллекторы Prometheus сервиса. nil *Metrics допустим
// и ничего не записывает.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration   *prometheus.HistogramVec
	dbQueryErrors     *prometheus.CounterVec
	dbOpenConnections *prometheus.GaugeVec

	appointmentsTotal      *prometheus.CounterVec
	bookingConflictsTotal  *prometheus.CounterVec
	auditFailuresTotal     *prometheus.CounterVec
	eventPublishFailures   *prometheus.CounterVec
	availabilityCacheTotal *prometheus.CounterVec
}

// New регистрирует коллекторы в registry по умолчанию
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует коллекторы в reg
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "path"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "query_duration_seconds",
			Help:        "Database query latency",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "query_errors_total",
			Help:        "Failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		dbOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "connections",
			Help:        "Database pool connections by state",
			ConstLabels: constLabels,
		}, []string{"state"}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "appointments_total",
			Help:        "Appointment lifecycle operations",
			ConstLabels: constLabels,
		}, []string{"action"}),
		bookingConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "booking_conflicts_total",
			Help:        "Rejected bookings by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		auditFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "audit_failures_total",
			Help:        "Audit entries that were dropped or failed to persist",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		eventPublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "event_publish_failures_total",
			Help:        "Appointment events that failed to publish",
			ConstLabels: constLabels,
		}, []string{"event_type"}),
		availabilityCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "availability_cache_total",
			Help:        "Availability cache lookups by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbOpenConnections,
		m.appointmentsTotal,
		m.bookingConflictsTotal,
		m.auditFailuresTotal,
		m.eventPublishFailures,
		m.availabilityCacheTotal,
	)
	return m
}

// ObserveHTTPRequest записывает один обработанный запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает один запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBConnections публикует статистику пула соединений
func (m *Metrics) SetDBConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbOpenConnections.WithLabelValues("open").Set(float64(open))
	m.dbOpenConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbOpenConnections.WithLabelValues("idle").Set(float64(idle))
}

// IncAppointment считает закоммиченную операцию с записью (create, update, delete)
func (m *Metrics) IncAppointment(action string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(action).Inc()
}

// IncBookingConflict считает отклоненную запись
func (m *Metrics) IncBookingConflict(reason string) {
	if m == nil {
		return
	}
	m.bookingConflictsTotal.WithLabelValues(reason).Inc()
}

// IncAuditFailure считает потерянную или несохраненную запись аудита
func (m *Metrics) IncAuditFailure(reason string) {
	if m == nil {
		return
	}
	m.auditFailuresTotal.WithLabelValues(reason).Inc()
}

// IncEventPublishFailure считает неопубликованное событие
func (m *Metrics) IncEventPublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.eventPublishFailures.WithLabelValues(eventType).Inc()
}

// IncAvailabilityCache считает обращение к кэшу: hit, miss или error
func (m *Metrics) IncAvailabilityCache(result string) {
	if m == nil {
		return
	}
	m.availabilityCacheTotal.WithLabelValues(result).Inc()
}
