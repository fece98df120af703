package approval

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"ledgerd/internal/models"
)

const (
	defaultSweepInterval = time.Minute
	sweepBatchSize       = 100

	metaOverdueFlagged = "overdue_flagged"
)

// Sweeper periodically finds approvals past their deadline and either
// auto-escalates them or, at the top level, flags them for operator
// attention. Sweeping is idempotent: an escalated approval leaves the
// pending set and a flagged one is skipped on later passes, so re-running
// a sweep never double-escalates.
type Sweeper struct {
	service  *Service
	store    Store
	interval time.Duration
	stop     chan struct{}
	running  atomic.Bool
}

func NewSweeper(service *Service, store Store) *Sweeper {
	return &Sweeper{
		service:  service,
		store:    store,
		interval: defaultSweepInterval,
		stop:     make(chan struct{}),
	}
}

// WithInterval overrides the sweep period.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	s.interval = d
	return s
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Start begins the sweep loop. Call in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.safeSweep(ctx)
		}
	}
}

// Stop signals the sweeper to stop.
func (s *Sweeper) Stop() {
	select {
	case s.stop <- struct{}{}:
	default:
	}
}

func (s *Sweeper) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in approval sweeper: %v", fmt.Sprint(r))
		}
	}()
	if _, err := s.SweepOnce(ctx, s.service.now()); err != nil {
		log.Printf("approval sweep failed: %v", err)
	}
}

// SweepOnce processes one batch of overdue approvals and returns how many
// were escalated or flagged.
func (s *Sweeper) SweepOnce(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.store.ListOverdue(asOf, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue approvals: %w", err)
	}

	acted := 0
	for _, approval := range overdue {
		if models.NextApprovalLevel(approval.Level) != "" {
			successor, err := s.service.Escalate(ctx, approval.ID, 0)
			if err != nil {
				log.Printf("failed to escalate overdue approval %d: %v", approval.ID, err)
				continue
			}
			log.Printf("escalated overdue approval %d to %s (approval %d)",
				approval.ID, successor.Level, successor.ID)
			acted++
			continue
		}

		// Top of the ladder: flag once for operator attention, never drop.
		if flagged, _ := approval.Metadata[metaOverdueFlagged].(bool); flagged {
			continue
		}
		if approval.Metadata == nil {
			approval.Metadata = models.JSON{}
		}
		approval.Metadata[metaOverdueFlagged] = true
		if err := s.store.Update(approval); err != nil {
			log.Printf("failed to flag overdue approval %d: %v", approval.ID, err)
			continue
		}
		s.service.publisher.Publish(Event{
			Kind:          EventApprovalOverdue,
			TransactionID: approval.TransactionID,
			ApprovalID:    approval.ID,
			Level:         approval.Level,
			At:            asOf,
		})
		log.Printf("approval %d overdue at top level %s; flagged for operators", approval.ID, approval.Level)
		acted++
	}
	return acted, nil
}
