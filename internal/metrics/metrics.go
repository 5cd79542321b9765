// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swipe_client"

// Refresh triggers and outcomes.
const (
	TriggerProactive = "proactive"
	TriggerReactive  = "reactive"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Token refresh calls by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	Replays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_replays_total",
		Help:      "Requests replayed after a 401, by outcome.",
	}, []string{"outcome"})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Like and dislike submissions by outcome.",
	}, []string{"decision", "outcome"})

	Degraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degraded_resources_total",
		Help:      "Optional profile sub-resources replaced by an empty list.",
	}, []string{"resource"})

	DroppedConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_connections_total",
		Help:      "Match or swipe ids dropped because the user record could not be fetched.",
	}, []string{"kind"})

	MountedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mounted_sessions",
		Help:      "Browsing contexts with an armed lifecycle manager.",
	})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of calls to the dating API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// InstrumentTransport records upstream latency for every call made through next.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperDuration(upstreamDuration, next)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
