package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
)

// EscalationCoordinator suspends a run until a human operator supplies a
// destination. State machine per request: Pending -> Resolved ->
// consumed and discarded. The document key is the unique in-flight
// token: a second request for a key with one outstanding is rejected.
type EscalationCoordinator struct {
	notifier ports.EscalationNotifier
	timeout  time.Duration
	observer func(resolution string, wait time.Duration)

	mu      sync.Mutex
	pending map[string]*pendingEscalation // by document key
	byID    map[string]*pendingEscalation // by request id
}

type pendingEscalation struct {
	req     domain.EscalationRequest
	outcome chan domain.EscalationOutcome
}

// NewEscalationCoordinator builds a coordinator. timeout of zero means a
// Pending request may block forever.
func NewEscalationCoordinator(notifier ports.EscalationNotifier, timeout time.Duration) *EscalationCoordinator {
	return &EscalationCoordinator{
		notifier: notifier,
		timeout:  timeout,
		pending:  make(map[string]*pendingEscalation),
		byID:     make(map[string]*pendingEscalation),
	}
}

// SetObserver registers a callback invoked once per finished wait with
// the resolution ("resolved", "expired", "cancelled") and its duration.
func (c *EscalationCoordinator) SetObserver(observer func(resolution string, wait time.Duration)) {
	c.observer = observer
}

func (c *EscalationCoordinator) observe(resolution string, started time.Time) {
	if c.observer != nil {
		c.observer(resolution, time.Since(started))
	}
}

// Await registers the request, notifies the operator channel, and blocks
// until a resolution, cancellation, or timeout. No lock is held while
// waiting; cancellation releases the Pending state so a later retry does
// not trip the duplicate guard.
func (c *EscalationCoordinator) Await(ctx context.Context, req domain.EscalationRequest) (domain.EscalationOutcome, error) {
	entry := &pendingEscalation{
		req:     req,
		outcome: make(chan domain.EscalationOutcome, 1),
	}

	c.mu.Lock()
	if _, exists := c.pending[req.DocumentKey]; exists {
		c.mu.Unlock()
		return domain.EscalationOutcome{}, domain.WrapError(domain.ErrDuplicateEscalation, "escalate",
			fmt.Errorf("document %s already has a pending request", req.DocumentKey))
	}
	c.pending[req.DocumentKey] = entry
	c.byID[req.RequestID] = entry
	c.mu.Unlock()

	defer c.release(entry)

	if err := c.notifier.NotifyEscalation(ctx, req); err != nil {
		return domain.EscalationOutcome{}, fmt.Errorf("notify operator: %w", err)
	}

	var expire <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		expire = timer.C
	}

	started := time.Now()
	select {
	case outcome := <-entry.outcome:
		c.observe("resolved", started)
		return outcome, nil
	case <-expire:
		c.observe("expired", started)
		return domain.EscalationOutcome{}, domain.WrapError(domain.ErrTemporary, "escalate",
			fmt.Errorf("no operator decision within %s", c.timeout))
	case <-ctx.Done():
		c.observe("cancelled", started)
		return domain.EscalationOutcome{}, ctx.Err()
	}
}

// Resolve delivers the operator outcome to the waiting run. The request
// is consumed: a second resolution for the same id reports not found.
func (c *EscalationCoordinator) Resolve(_ context.Context, outcome domain.EscalationOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	entry, ok := c.byID[outcome.RequestID]
	if ok {
		delete(c.byID, outcome.RequestID)
		delete(c.pending, entry.req.DocumentKey)
	}
	c.mu.Unlock()

	if !ok {
		return domain.WrapError(domain.ErrNotFound, "resolve escalation", fmt.Errorf("request %s", outcome.RequestID))
	}
	entry.outcome <- outcome
	return nil
}

// Pending lists outstanding requests for the operator console.
func (c *EscalationCoordinator) Pending() []domain.EscalationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.EscalationRequest, 0, len(c.pending))
	for _, entry := range c.pending {
		out = append(out, entry.req)
	}
	return out
}

func (c *EscalationCoordinator) release(entry *pendingEscalation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.pending[entry.req.DocumentKey]; ok && current == entry {
		delete(c.pending, entry.req.DocumentKey)
		delete(c.byID, entry.req.RequestID)
	}
}
