package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"profile", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relevex",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds, index call included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"profile"},
	)

	IntentDetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "intent_detections_total",
			Help:      "Intent detections by label and deciding tier",
		},
		[]string{"intent", "tier"}, // tier: "pattern" / "keyword" / "bayes" / "fallback"
	)

	CursorDecodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "cursor_decode_failures_total",
			Help:      "Malformed pagination cursors that restarted from the first page",
		},
	)

	ExperimentAssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "experiment_assignments_total",
			Help:      "A/B test variant assignments",
		},
		[]string{"test", "variant"},
	)

	PreferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "preference_cache_total",
			Help:      "Preference cache hits, misses and session bypasses",
		},
		[]string{"result"}, // "hit" / "miss" / "bypass"
	)

	AnalyticsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevex",
			Name:      "analytics_events_total",
			Help:      "Analytics events by outcome",
		},
		[]string{"status"}, // "written" / "dropped" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IntentDetectionsTotal)
	prometheus.MustRegister(CursorDecodeFailuresTotal)
	prometheus.MustRegister(ExperimentAssignmentsTotal)
	prometheus.MustRegister(PreferenceCacheTotal)
	prometheus.MustRegister(AnalyticsEventsTotal)
	searchMetricsRegistered = true
}
