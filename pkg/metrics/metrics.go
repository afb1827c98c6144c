package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PoemOps counts poem handler operations by operation and outcome
	// (ok|not_found|forbidden|error).
	PoemOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "versebook", Name: "poem_operations_total", Help: "Number of poem operations by outcome."},
		[]string{"op", "outcome"},
	)

	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "versebook", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "versebook", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PoemOps)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
