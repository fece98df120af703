package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
	"ledgerd/internal/services/validation"
)

// Request is a proposed money movement, already shaped and typed by the
// boundary layer.
type Request struct {
	Type                 string
	SourceAccountID      *uint
	DestinationAccountID *uint
	Amount               decimal.Decimal
	Currency             string
	InitiatorID          uint
	OriginCountry        string
	Description          string
	Metadata             map[string]interface{}
}

// Result is the classified outcome of a submission: the persisted
// transaction record, the chain outcome, and the approval when deferred.
type Result struct {
	Transaction *models.Transaction
	Outcome     validation.Outcome
	Approval    *models.Approval
}

// MetricsCollector receives pipeline instrumentation.
type MetricsCollector interface {
	RecordOutcome(decision, stage string)
	RecordChainDuration(d time.Duration)
	RecordApprovalCreated(level string)
	RecordCommit(txType string, amount float64)
	RecordError(operation string)
}

// NoopMetricsCollector discards all measurements.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOutcome(string, string)      {}
func (NoopMetricsCollector) RecordChainDuration(time.Duration) {}
func (NoopMetricsCollector) RecordApprovalCreated(string)      {}
func (NoopMetricsCollector) RecordCommit(string, float64)      {}
func (NoopMetricsCollector) RecordError(string)                {}
