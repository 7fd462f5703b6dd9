// Package metrics defines all custom Prometheus metrics for the marketplace
// auth service. It is the single source of truth for metric names, labels,
// and help strings; metrics register themselves with the default registry
// via promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Session metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts successful registrations.
// Label:
//   - role: the role the account was created with ("admin", "owner", "tenant")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful account registrations, by role.",
	},
	[]string{"role"},
)

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "throttled", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshRotationsTotal counts refresh-token rotations by outcome.
// Label:
//   - result: "success", "invalid", or "error"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts explicit session revocations.
// Label:
//   - scope: "single" (logout) or "all" (log out everywhere / admin revoke)
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of session revocations, by scope.",
	},
	[]string{"scope"},
)

// RefreshTokensSweptTotal counts expired refresh-token records removed by
// the background janitor.
var RefreshTokensSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_swept_total",
		Help:      "Total number of expired refresh-token records deleted by the sweeper.",
	},
)
