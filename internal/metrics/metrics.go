// Package metrics provides Prometheus instrumentation for the decision
// pipeline and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"ledgerd/internal/services/approval"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status code.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerd",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ChainOutcomesTotal counts validation chain runs by decision and the
	// stage that decided.
	ChainOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "chain_outcomes_total",
			Help:      "Validation chain outcomes by decision and deciding stage.",
		},
		[]string{"decision", "stage"},
	)

	// ChainDuration observes full chain evaluation latency.
	ChainDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledgerd",
		Name:      "chain_duration_seconds",
		Help:      "Validation chain evaluation time in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// ApprovalsCreatedTotal counts approvals opened by required level.
	ApprovalsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "approvals_created_total",
			Help:      "Approvals opened by required level.",
		},
		[]string{"level"},
	)

	// CommitsTotal counts committed transactions by type.
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "commits_total",
			Help:      "Committed transactions by type.",
		},
		[]string{"type"},
	)

	// CommittedAmount accumulates committed amounts by type.
	CommittedAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "committed_amount_total",
			Help:      "Sum of committed transaction amounts by type.",
		},
		[]string{"type"},
	)

	// PipelineErrorsTotal counts internal pipeline faults by operation.
	PipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "pipeline_errors_total",
			Help:      "Internal pipeline errors by operation.",
		},
		[]string{"operation"},
	)

	// OverdueSweepsTotal counts overdue-approval sweep actions by result.
	OverdueSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerd",
			Name:      "overdue_sweeps_total",
			Help:      "Overdue approval sweep actions by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChainOutcomesTotal,
		ChainDuration,
		ApprovalsCreatedTotal,
		CommitsTotal,
		CommittedAmount,
		PipelineErrorsTotal,
		OverdueSweepsTotal,
	)
}

// Collector implements the transaction service's MetricsCollector on the
// package-level Prometheus instruments.
type Collector struct{}

func (Collector) RecordOutcome(decision, stage string) {
	ChainOutcomesTotal.WithLabelValues(decision, stage).Inc()
}

func (Collector) RecordChainDuration(d time.Duration) {
	ChainDuration.Observe(d.Seconds())
}

func (Collector) RecordApprovalCreated(level string) {
	ApprovalsCreatedTotal.WithLabelValues(level).Inc()
}

func (Collector) RecordCommit(txType string, amount float64) {
	CommitsTotal.WithLabelValues(txType).Inc()
	CommittedAmount.WithLabelValues(txType).Add(amount)
}

func (Collector) RecordError(operation string) {
	PipelineErrorsTotal.WithLabelValues(operation).Inc()
}

// EventPublisher wraps an approval event publisher and counts sweep
// outcomes before delegating.
type EventPublisher struct {
	Next approval.Publisher
}

func (p EventPublisher) Publish(event approval.Event) {
	switch event.Kind {
	case approval.EventApprovalEscalated:
		// The sweeper escalates as the system actor; interactive
		// escalations carry a real actor and are not sweep activity.
		if event.ActorID == 0 {
			OverdueSweepsTotal.WithLabelValues("escalated").Inc()
		}
	case approval.EventApprovalOverdue:
		OverdueSweepsTotal.WithLabelValues("flagged").Inc()
	}
	if p.Next != nil {
		p.Next.Publish(event)
	}
}

// Middleware returns a fiber middleware that records request metrics. The
// route pattern is used instead of the raw path to bound cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	}
}
