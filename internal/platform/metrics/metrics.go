package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CardsCreated        *prometheus.CounterVec
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	Pickups             prometheus.Counter
	InvalidPickupCodes  prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CardsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardreturn_cards_created_total",
			Help: "Total number of found cards registered, by submission source",
		}, []string{"source"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardreturn_notifications_sent_total",
			Help: "Total owner notifications delivered successfully",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardreturn_notifications_failed_total",
			Help: "Total owner notifications that failed or timed out",
		}),
		Pickups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardreturn_pickups_total",
			Help: "Total cards transitioned to picked-up",
		}),
		InvalidPickupCodes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardreturn_invalid_pickup_codes_total",
			Help: "Total pickup requests with a code/box pair that matched nothing",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardreturn_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// IncCardsCreated increments the created counter for the given source.
func (m *Metrics) IncCardsCreated(source string) {
	m.CardsCreated.WithLabelValues(source).Inc()
}

// ObserveRequest records one HTTP request latency sample.
func (m *Metrics) ObserveRequest(method, route string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
