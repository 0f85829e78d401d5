// Package telemetry provides application-level observability for the Fest backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<FEST_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Email delivery counters (by template and outcome)
//   - Email confirmation counters (by method and outcome)
//   - Invitation counters (created / accepted / rejected tokens)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /organizations/update/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as record IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /auth/update/:id), NOT the
// raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Outbound mail metrics.
//
// EmailsSentTotal is a CounterVec with labels {template, outcome} incremented once
// per delivery attempt.  template is one of "email_confirmation",
// "organization_invitation", "invite_accepted"; outcome is "sent" or "error".
// An alert on rate(emails_sent_total{outcome="error"}[15m]) > 0 catches provider
// outages early.
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of outbound email delivery attempts, by template and outcome.",
	},
	[]string{"template", "outcome"},
)

// Email confirmation metrics.
//
// EmailConfirmationsTotal is a CounterVec with labels {method, outcome}.
// method is "code" or "token"; outcome is "confirmed", "invalid", "expired",
// or "mismatch".
//
// Example PromQL queries:
//   - Confirmation success rate: sum(rate(email_confirmations_total{outcome="confirmed"}[1h])) / sum(rate(email_confirmations_total[1h]))
//   - Expired code rate:         rate(email_confirmations_total{method="code",outcome="expired"}[1h])
var EmailConfirmationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "email_confirmations_total",
		Help: "Total number of email confirmation attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// Invitation metrics.
//
// InvitationsCreatedTotal counts invitation emails issued.
// InvitationTokenValidationsTotal is a CounterVec with label {outcome}
// ("accepted", "invalid", "not_found") incremented per validate-token call.
// Because validation consumes the token, "accepted" equals the number of
// memberships granted through invitations.
var (
	InvitationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_created_total",
			Help: "Total number of organization invitations created.",
		},
	)

	InvitationTokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitation_token_validations_total",
			Help: "Total number of invitation token validation attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <FEST_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
