package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vocalys_api_requests_total", Help: "API requests"},
		[]string{"route", "status"},
	)
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vocalys_gateway_calls_total", Help: "Voice gateway call outcomes"},
		[]string{"result", "http_status"},
	)
	GatewayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "vocalys_gateway_call_latency_seconds", Help: "Voice gateway call latency"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vocalys_webhook_events_total", Help: "Provider webhook events by terminal status"},
		[]string{"status"},
	)
	SummariesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vocalys_summaries_written_total", Help: "Summaries persisted"},
	)
	OrphanedCalls = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vocalys_orphaned_pending_calls_total", Help: "Pending calls left behind by gateway failures"},
	)
	StatsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vocalys_stats_cache_total", Help: "Stats cache lookups"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, GatewayCalls, GatewayLatency, WebhookEvents, SummariesWritten, OrphanedCalls, StatsCache)
}
