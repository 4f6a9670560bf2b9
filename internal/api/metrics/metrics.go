// Package metrics defines and registers all custom Prometheus metrics for
// the task-tracker authentication service. It is the single source of truth
// for metric names, labels, and help strings.
//
// All metrics register with the default registry via promauto at package
// init; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskauth"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts refresh-rotation attempts.
// Label:
//   - result: "success", "expired" (rejected token or lost race), or "error"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of refresh token rotations, by result.",
	},
	[]string{"result"},
)

// AuthChecksTotal counts per-request access-token gate decisions.
// Label:
//   - result: "allowed" or "denied"
var AuthChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_checks_total",
		Help:      "Total number of access-token gate checks, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts logout requests. Logout cannot fail, so there is no
// result label.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests.",
	},
)

// PasswordChangesTotal counts password-change attempts.
// Label:
//   - result: "success", "rejected" (wrong current password or validation), or "error"
var PasswordChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of password change attempts, by result.",
	},
	[]string{"result"},
)

// LoginDuration measures the end-to-end latency of login handling. Dominated
// by the bcrypt verify, so the buckets skew higher than request defaults.
var LoginDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login handling, including password verification.",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5},
	},
)
