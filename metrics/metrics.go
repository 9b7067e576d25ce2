package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mingle_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_messages_sent_total",
			Help: "Total messages sent",
		},
		[]string{"kind"}, // "text" or "sticker"
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mingle_conversations_created_total",
			Help: "Total conversations created on first contact",
		},
	)

	FollowRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mingle_follow_requests_total",
			Help: "Total follow requests sent",
		},
	)

	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mingle_notify_failures_total",
			Help: "Total notification publishes that failed and were dropped",
		},
	)
)
