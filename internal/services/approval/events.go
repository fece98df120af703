package approval

import (
	"log"
	"time"
)

// Event kinds emitted by the workflow. Delivery mechanics (mail, webhooks)
// belong to the notification collaborator; the workflow only publishes.
const (
	EventTransactionApproved = "transaction_approved"
	EventTransactionRejected = "transaction_rejected"
	EventApprovalEscalated   = "approval_escalated"
	EventApprovalOverdue     = "approval_overdue"
)

// Event is a typed domain event describing an approval outcome.
type Event struct {
	Kind          string    `json:"kind"`
	TransactionID uint      `json:"transaction_id"`
	ApprovalID    uint      `json:"approval_id"`
	Level         string    `json:"level"`
	ActorID       uint      `json:"actor_id,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher receives workflow events.
type Publisher interface {
	Publish(event Event)
}

// ChannelPublisher buffers events on a channel for an outbound consumer.
// Publish never blocks: when the consumer falls behind, events are dropped
// and counted rather than stalling the workflow.
type ChannelPublisher struct {
	events  chan Event
	dropped int
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelPublisher{events: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Publish(event Event) {
	select {
	case p.events <- event:
	default:
		p.dropped++
		log.Printf("approval event dropped (consumer behind): %s tx=%d", event.Kind, event.TransactionID)
	}
}

// Events exposes the outbound stream.
func (p *ChannelPublisher) Events() <-chan Event {
	return p.events
}

// LogPublisher logs events; used when no outbound consumer is wired.
type LogPublisher struct{}

func (LogPublisher) Publish(event Event) {
	log.Printf("approval event: %s tx=%d approval=%d level=%s", event.Kind, event.TransactionID, event.ApprovalID, event.Level)
}
