package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AttachmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_requests_total",
			Help: "Total number of attachment retrieval requests by outcome (count)",
		},
		[]string{"outcome"},
	)

	AttachmentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attachment_request_duration_ms",
			Help:    "End-to-end attachment retrieval duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"outcome"},
	)

	AttachmentSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attachment_size_bytes",
			Help:    "Size of downloaded capture files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of outbound requests by upstream and status class (count)",
		},
		[]string{"upstream", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_ms",
			Help:    "Duration of outbound requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"upstream"},
	)

	ServerLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_lookups_total",
			Help: "Total number of server name resolutions by match kind (count)",
		},
		[]string{"match"},
	)

	BotEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of handled bot commands and detections (count)",
		},
		[]string{"command", "status"},
	)

	BotDuplicateEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_duplicate_events_total",
			Help: "Total number of gateway messages skipped as already handled (count)",
		},
	)

	AuditWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Total number of command log writes (count)",
		},
		[]string{"backend", "status"},
	)

	AuditQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_query_duration_ms",
			Help:    "Duration of audit store queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"backend", "operation"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)
)

var (
	relayOnce   sync.Once
	botOnce     sync.Once
	auditOnce   sync.Once
	brokerOnce  sync.Once
	breakerOnce sync.Once
)

func RegisterRelayMetrics() {
	relayOnce.Do(func() {
		prometheus.MustRegister(AttachmentRequestsTotal)
		prometheus.MustRegister(AttachmentRequestDuration)
		prometheus.MustRegister(AttachmentSizeBytes)
		prometheus.MustRegister(UpstreamRequestsTotal)
		prometheus.MustRegister(UpstreamRequestDuration)
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func RegisterBotMetrics() {
	botOnce.Do(func() {
		prometheus.MustRegister(BotEventsTotal)
		prometheus.MustRegister(BotDuplicateEventsTotal)
		prometheus.MustRegister(ServerLookupsTotal)
	})
}

func RegisterAuditMetrics() {
	auditOnce.Do(func() {
		prometheus.MustRegister(AuditWritesTotal)
		prometheus.MustRegister(AuditQueryDuration)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(KafkaMessagesReadTotal)
		prometheus.MustRegister(KafkaMessagesWrittenTotal)
		prometheus.MustRegister(KafkaWriteDuration)
	})
}

func RegisterCircuitBreakerMetrics() {
	breakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func ObserveAttachmentRequest(outcome string, duration time.Duration) {
	AttachmentRequestsTotal.WithLabelValues(outcome).Inc()
	AttachmentRequestDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func ObserveAttachmentSize(size int) {
	AttachmentSizeBytes.Observe(float64(size))
}

func ObserveUpstreamRequest(upstream, status string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(upstream, status).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream).Observe(float64(duration.Milliseconds()))
}

func IncServerLookup(match string) {
	ServerLookupsTotal.WithLabelValues(match).Inc()
}

func IncBotEvent(command, status string) {
	BotEventsTotal.WithLabelValues(command, status).Inc()
}

func IncBotDuplicateEvent() {
	BotDuplicateEventsTotal.Inc()
}

func IncAuditWrite(backend, status string) {
	AuditWritesTotal.WithLabelValues(backend, status).Inc()
}

func ObserveAuditQuery(backend, operation string, duration time.Duration) {
	AuditQueryDuration.WithLabelValues(backend, operation).Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "error"
	}
}
