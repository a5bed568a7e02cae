// Package metrics defines and registers all custom Prometheus metrics for the
// console-auth client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics live on Registry rather than the default registry so the agent can
// expose exactly what this module records.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console_auth"

// Registry holds every metric below plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ── Action metrics ────────────────────────────────────────────────────────────

// ActionsDispatchedTotal counts actions reduced by the store.
// Label:
//   - type: the action type (e.g. "[Authentication] Login")
var ActionsDispatchedTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_dispatched_total",
		Help:      "Total number of actions dispatched to the store.",
	},
	[]string{"type"},
)

// ActionsDroppedTotal counts triggers ignored because the same effect was
// already in flight.
var ActionsDroppedTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_dropped_total",
		Help:      "Total number of actions dropped while an effect of the same type was in flight.",
	},
	[]string{"type"},
)

// EffectDuration measures how long an effect handler runs.
// Labels:
//   - type: the triggering action type
//   - outcome: "ok" or the emitted failure action
var EffectDuration = factory.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "effect_duration_seconds",
		Help:      "Duration of effect handlers from trigger to emitted action.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type", "outcome"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// AuthRequestsTotal counts calls to the REST auth backend.
// Labels:
//   - endpoint: "signup", "signin" or "reset-password"
//   - outcome: "ok", "api_error", "transport_error" or "decode_error"
var AuthRequestsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of requests sent to the auth backend.",
	},
	[]string{"endpoint", "outcome"},
)

// AuthRequestDuration measures round-trip latency to the auth backend.
var AuthRequestDuration = factory.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_request_duration_seconds",
		Help:      "Latency of auth backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// ProviderSignInsTotal counts third-party sign-in attempts.
// Labels:
//   - provider: "google" or "facebook"
//   - result: "ok" or "error"
var ProviderSignInsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_sign_ins_total",
		Help:      "Total number of identity-provider sign-in attempts.",
	},
	[]string{"provider", "result"},
)
