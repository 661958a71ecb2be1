package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "api_requests_total", Help: "Outbound API calls by endpoint and status class."},
		[]string{"endpoint", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "mindcare", Subsystem: "client", Name: "api_request_duration_seconds", Help: "Outbound API call latency.", Buckets: prometheus.DefBuckets},
		[]string{"endpoint"},
	)
	SessionRefresh = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "session_refresh_total", Help: "Session refresh outcomes (ok, failed, skipped, shared, stale)."},
		[]string{"result"},
	)
	SessionPersistErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "session_persist_errors_total", Help: "Durable storage failures by operation."},
		[]string{"op"},
	)
	GuardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "guard_decisions_total", Help: "Navigation guard decisions by kind."},
		[]string{"decision"},
	)
	ActionRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "action_rate_limited_total", Help: "Shell actions rejected by the rate limiter."},
		[]string{"action"},
	)
	ShellRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mindcare", Subsystem: "client", Name: "shell_rejected_total", Help: "Shell requests refused by the local access policy."},
		[]string{"reason"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests)
	reg.MustRegister(APIRequestDuration)
	reg.MustRegister(SessionRefresh)
	reg.MustRegister(SessionPersistErrors)
	reg.MustRegister(GuardDecisions)
	reg.MustRegister(ActionRateLimited)
	reg.MustRegister(ShellRejected)
}
