// Package metrics defines and registers all custom Prometheus metrics for the
// civic platform API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry on import
// via promauto; the HTTP layer exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "civic"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts session store operations.
// Labels:
//   - op: "signup", "login", "refresh" or "logout"
//   - result: "ok", "invalid" (bad input or credentials) or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Profile metrics ───────────────────────────────────────────────────────────

// ProfileMaterializationsTotal counts profile materialisation jobs.
// Label:
//   - result: "created", "exists", "duplicate" (dedup hit), "dropped" (queue
//     full) or "error"
var ProfileMaterializationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_materializations_total",
		Help:      "Total number of profile materialisation jobs processed, by result.",
	},
	[]string{"result"},
)

// ProfileQueueDepth tracks the number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ProfileQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "profile_queue_depth",
		Help:      "Current number of profile jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ProfileJobDuration measures how long a single materialisation takes.
var ProfileJobDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_job_duration_seconds",
		Help:      "Duration of profile materialisation from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Issue metrics ─────────────────────────────────────────────────────────────

// IssuesReportedTotal counts newly reported issues.
// Label:
//   - priority: "high", "medium" or "low"
var IssuesReportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issues_reported_total",
		Help:      "Total number of civic issues reported, by priority.",
	},
	[]string{"priority"},
)

// IssueTransitionsTotal counts status changes.
// Label:
//   - status: the new status
var IssueTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issue_transitions_total",
		Help:      "Total number of issue status transitions, by resulting status.",
	},
	[]string{"status"},
)

// ── Marketplace metrics ───────────────────────────────────────────────────────

// CartAdditionsTotal counts rewards added to carts.
// Label:
//   - category: reward category
var CartAdditionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_additions_total",
		Help:      "Total number of rewards added to carts, by category.",
	},
	[]string{"category"},
)

// LoginRateLimited counts login attempts rejected by the rate limiter.
var LoginRateLimited = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_rate_limited_total",
		Help:      "Total number of login attempts rejected by the rate limiter.",
	},
)
