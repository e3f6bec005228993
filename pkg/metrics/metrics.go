package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "expert"

var (
	ResolverOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "resolver_outcomes_total", Help: "Identity resolutions by outcome."},
		[]string{"outcome"},
	)
	IdentityProviderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "identity_provider_failures_total", Help: "Failed profile fetches from the auth provider."},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "webhook_events_total", Help: "Auth provider webhook deliveries by event type and result."},
		[]string{"type", "result"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Requests rejected by the rate limiter."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ResolverOutcomes)
	reg.MustRegister(IdentityProviderFailures)
	reg.MustRegister(WebhookEvents)
	reg.MustRegister(RateLimitRejected)
}
