package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ledgerd/internal/services/approval"
)

type capturePublisher struct {
	events []approval.Event
}

func (p *capturePublisher) Publish(event approval.Event) {
	p.events = append(p.events, event)
}

func TestEventPublisherCountsSweepActionsOnly(t *testing.T) {
	next := &capturePublisher{}
	pub := EventPublisher{Next: next}
	escalated := testutil.ToFloat64(OverdueSweepsTotal.WithLabelValues("escalated"))
	flagged := testutil.ToFloat64(OverdueSweepsTotal.WithLabelValues("flagged"))

	// Sweep escalation: system actor.
	pub.Publish(approval.Event{Kind: approval.EventApprovalEscalated, TransactionID: 1, At: time.Now()})
	// Interactive escalation: real actor, forwarded but not counted.
	pub.Publish(approval.Event{Kind: approval.EventApprovalEscalated, TransactionID: 2, ActorID: 42, At: time.Now()})
	// Top-of-ladder flag.
	pub.Publish(approval.Event{Kind: approval.EventApprovalOverdue, TransactionID: 3, At: time.Now()})
	// Unrelated kinds pass straight through.
	pub.Publish(approval.Event{Kind: approval.EventTransactionApproved, TransactionID: 4, ActorID: 42, At: time.Now()})

	assert.Equal(t, escalated+1, testutil.ToFloat64(OverdueSweepsTotal.WithLabelValues("escalated")))
	assert.Equal(t, flagged+1, testutil.ToFloat64(OverdueSweepsTotal.WithLabelValues("flagged")))
	assert.Len(t, next.events, 4)
}

func TestEventPublisherNilNext(t *testing.T) {
	assert.NotPanics(t, func() {
		EventPublisher{}.Publish(approval.Event{Kind: approval.EventApprovalOverdue})
	})
}
