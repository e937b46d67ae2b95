// Package metrics defines and registers all custom Prometheus metrics for the
// community board store. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on import via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "board"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts sign-up, sign-in and sign-out attempts.
// Labels:
//   - op: "signup", "signin" or "signout"
//   - result: "ok" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth attempts, by operation and result.",
	},
	[]string{"op", "result"},
)

// IdentitiesDeletedTotal counts removed accounts.
// Label:
//   - path: "privileged" (service-role key) or "self" (delete_user procedure)
var IdentitiesDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identities_deleted_total",
		Help:      "Total number of deleted identities, by deletion path.",
	},
	[]string{"path"},
)

// ── Record metrics ────────────────────────────────────────────────────────────

// RecordWritesTotal counts successful writes.
// Labels:
//   - table: "lost_found_posts", "job_posts" or "news_posts"
//   - action: "created", "updated" or "deleted"
var RecordWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_writes_total",
		Help:      "Total number of successful record writes, by table and action.",
	},
	[]string{"table", "action"},
)

// RecordWriteDeniedTotal counts writes rejected by the authorization rules.
var RecordWriteDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_write_denied_total",
		Help:      "Total number of record writes rejected by ownership or role checks.",
	},
	[]string{"table"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events persisted.
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events persisted, by table and action.",
	},
	[]string{"table", "action"},
)

// AuditErrorsTotal counts audit events that could not be persisted.
// Label:
//   - reason: "insert_failed"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit events that failed processing.",
	},
	[]string{"reason"},
)

// AuditDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var AuditDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dedup_total",
		Help:      "Total number of audit deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditProcessingDuration measures how long a single audit event takes.
var AuditProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_processing_duration_seconds",
		Help:      "Duration of audit event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
