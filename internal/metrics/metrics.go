package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	APIRequests      *prometheus.CounterVec
	RosterCache      *prometheus.CounterVec
	PushReconnects   prometheus.Counter
	PushMessages     *prometheus.CounterVec
	ImportsCompleted *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg keeps them unregistered,
// which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "api_requests_total",
			Help:      "Requests sent to the roster API.",
		}, []string{"method", "path", "status"}),
		RosterCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "list_cache_total",
			Help:      "Roster list lookups by cache outcome.",
		}, []string{"result"}),
		PushReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "push_reconnects_total",
			Help:      "Reconnect attempts of the notification push channel.",
		}),
		PushMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "push_messages_total",
			Help:      "Push messages by outcome.",
		}, []string{"result"}),
		ImportsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "csv_imports_total",
			Help:      "CSV imports by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.APIRequests, m.RosterCache, m.PushReconnects, m.PushMessages, m.ImportsCompleted)
	}
	return m
}

// StatusClass folds an HTTP status into 2xx/4xx/5xx buckets.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

func (m *Metrics) ObserveRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, path, StatusClass(status)).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.RosterCache.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.RosterCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.PushReconnects.Inc()
}

func (m *Metrics) PushMessage(accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "discarded"
	}
	m.PushMessages.WithLabelValues(result).Inc()
}

func (m *Metrics) Import(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.ImportsCompleted.WithLabelValues(result).Inc()
}
