package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

func escalationReq(requestID, key string) domain.EscalationRequest {
	return domain.EscalationRequest{
		RequestID:   requestID,
		DocumentID:  "doc-" + requestID,
		DocumentKey: key,
		Candidates:  []string{"a/b/c/d"},
	}
}

func TestEscalationCoordinator_ResolveDeliversOutcome(t *testing.T) {
	notifier := &notifierFake{}
	coordinator := NewEscalationCoordinator(notifier, 5*time.Second)

	notifier.onNotify = func(req domain.EscalationRequest) {
		err := coordinator.Resolve(context.Background(), domain.EscalationOutcome{
			RequestID:    req.RequestID,
			SelectedPath: "a/b/c/d",
		})
		if err != nil {
			t.Errorf("Resolve: %v", err)
		}
	}

	outcome, err := coordinator.Await(context.Background(), escalationReq("r1", "/inbox/one.pdf"))
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if outcome.SelectedPath != "a/b/c/d" || outcome.Create {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(coordinator.Pending()) != 0 {
		t.Fatal("resolved request must be consumed")
	}
}

func TestEscalationCoordinator_DuplicateKeyRejected(t *testing.T) {
	coordinator := NewEscalationCoordinator(&notifierFake{}, 0)

	started := make(chan struct{})
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		close(started)
		_, err := coordinator.Await(ctx, escalationReq("r1", "/inbox/dup.pdf"))
		done <- err
	}()

	<-started
	waitForPending(t, coordinator, 1)

	_, err := coordinator.Await(context.Background(), escalationReq("r2", "/inbox/dup.pdf"))
	if !domain.IsKind(err, domain.ErrDuplicateEscalation) {
		t.Fatalf("expected duplicate escalation, got %v", err)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("first waiter should see cancellation, got %v", err)
	}
}

func TestEscalationCoordinator_CancellationReleasesPending(t *testing.T) {
	notifier := &notifierFake{}
	coordinator := NewEscalationCoordinator(notifier, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := coordinator.Await(ctx, escalationReq("r1", "/inbox/retry.pdf"))
		done <- err
	}()
	waitForPending(t, coordinator, 1)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	waitForPending(t, coordinator, 0)

	// the same key may escalate again after the first run was abandoned
	notifier.onNotify = func(req domain.EscalationRequest) {
		_ = coordinator.Resolve(context.Background(), domain.EscalationOutcome{
			RequestID:    req.RequestID,
			SelectedPath: "a/b/c/d",
		})
	}
	if _, err := coordinator.Await(context.Background(), escalationReq("r2", "/inbox/retry.pdf")); err != nil {
		t.Fatalf("retry after cancellation: %v", err)
	}
}

func TestEscalationCoordinator_TimeoutIsTemporary(t *testing.T) {
	coordinator := NewEscalationCoordinator(&notifierFake{}, 20*time.Millisecond)

	_, err := coordinator.Await(context.Background(), escalationReq("r1", "/inbox/slow.pdf"))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error on expiry, got %v", err)
	}
	if len(coordinator.Pending()) != 0 {
		t.Fatal("expired request must be released")
	}
}

func TestEscalationCoordinator_DoubleResolve(t *testing.T) {
	notifier := &notifierFake{}
	coordinator := NewEscalationCoordinator(notifier, 5*time.Second)

	var requestID string
	notifier.onNotify = func(req domain.EscalationRequest) {
		requestID = req.RequestID
		_ = coordinator.Resolve(context.Background(), domain.EscalationOutcome{
			RequestID:    req.RequestID,
			SelectedPath: "a/b/c/d",
		})
	}
	if _, err := coordinator.Await(context.Background(), escalationReq("r1", "/inbox/twice.pdf")); err != nil {
		t.Fatalf("Await: %v", err)
	}

	err := coordinator.Resolve(context.Background(), domain.EscalationOutcome{
		RequestID:    requestID,
		SelectedPath: "a/b/c/d",
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("second resolution must report not found, got %v", err)
	}
}

func TestEscalationCoordinator_ResolveValidatesOutcome(t *testing.T) {
	coordinator := NewEscalationCoordinator(&notifierFake{}, 0)

	tests := []struct {
		name    string
		outcome domain.EscalationOutcome
	}{
		{"missing request id", domain.EscalationOutcome{SelectedPath: "a/b/c/d"}},
		{"create without suggestion", domain.EscalationOutcome{RequestID: "r1", Create: true}},
		{"both paths set", domain.EscalationOutcome{RequestID: "r1", SelectedPath: "a/b/c/d", SuggestedPath: "e/f/g/h"}},
		{"neither path set", domain.EscalationOutcome{RequestID: "r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := coordinator.Resolve(context.Background(), tt.outcome); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestEscalationCoordinator_PendingListsRequests(t *testing.T) {
	coordinator := NewEscalationCoordinator(&notifierFake{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, key := range []string{"/inbox/one.pdf", "/inbox/two.pdf"} {
		key := key
		go func() {
			_, _ = coordinator.Await(ctx, escalationReq("r-"+key, key))
		}()
	}
	waitForPending(t, coordinator, 2)
}

func waitForPending(t *testing.T, coordinator *EscalationCoordinator, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if len(coordinator.Pending()) == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("pending count never reached %d", want)
		case <-time.After(time.Millisecond):
		}
	}
}
