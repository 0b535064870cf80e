// Package metrics defines and registers all custom Prometheus metrics for
// the queue-display service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the router exposes them on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "queue"

// ── Token lifecycle ───────────────────────────────────────────────────────────

// TokensIssuedTotal counts tokens added to the queue.
// Labels:
//   - sector: the service domain the token belongs to
//   - type: "regular" or "priority"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued.",
	},
	[]string{"sector", "type"},
)

// CallsTotal counts call-next operations that actually called a token.
var CallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_total",
		Help:      "Total number of tokens called to a counter.",
	},
	[]string{"sector"},
)

// RepeatCallsTotal counts repeat-call operations.
var RepeatCallsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "repeat_calls_total",
		Help:      "Total number of repeated announcements requested by staff.",
	},
)

// ── State synchronization ─────────────────────────────────────────────────────

// SaveConflictsTotal counts optimistic-concurrency rejections on save.
var SaveConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_save_conflicts_total",
		Help:      "Total number of saves rejected because the aggregate version moved.",
	},
)

// SyncReloadsTotal counts full state reloads performed by the synchronizer.
// Label:
//   - trigger: "notification" (change feed), "poll" (lobby timer), "startup"
var SyncReloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_reloads_total",
		Help:      "Total number of full state reloads, labelled by trigger.",
	},
	[]string{"trigger"},
)

// BoardClients tracks the number of display clients attached to the hub.
// Label:
//   - view: "admin" or "lobby"
var BoardClients = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "board_clients",
		Help:      "Current number of attached board stream clients, by view.",
	},
	[]string{"view"},
)

// ── Announcements ─────────────────────────────────────────────────────────────

// AnnouncementsTotal counts cues delivered to display clients.
// Label:
//   - stage: "chime" or "speech"
var AnnouncementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "announcements_total",
		Help:      "Total number of announcement cues published, by stage.",
	},
	[]string{"stage"},
)

// AnnounceFailuresTotal counts cues that could not be published. Delivery is
// best-effort, so these are diagnostics only.
var AnnounceFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "announce_failures_total",
		Help:      "Total number of announcement cues that failed to publish.",
	},
)
