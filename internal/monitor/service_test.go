package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/unhappyben/silo-goat-arbitrage/internal/config"
	"github.com/unhappyben/silo-goat-arbitrage/internal/flow"
	"github.com/unhappyben/silo-goat-arbitrage/internal/plan"
	"github.com/unhappyben/silo-goat-arbitrage/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := store.NewSQLite(config.DatabaseConfig{InMemory: true, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	svc, err := NewService(st, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRecordAndListEvents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	step := plan.Step{ID: 2, Kind: plan.KindDepositBorrow, Title: "Deposit & Borrow"}
	svc.RecordStep(ctx, step, flow.StatusPending)
	svc.RecordStep(ctx, step, flow.StatusConfirmed)
	svc.RecordFlowError(ctx, step, "Failed to deposit and borrow. Please try again.", errors.New("gas too low"))

	events, err := svc.ListEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}

	// 最新事件在前。
	if events[0].Type != EventFlowError {
		t.Errorf("first event type = %s, want %s", events[0].Type, EventFlowError)
	}

	raw, ok := events[0].Payload.(json.RawMessage)
	if !ok {
		t.Fatalf("payload type = %T, want json.RawMessage", events[0].Payload)
	}
	var payload FlowErrorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.StepID != 2 || payload.Error != "gas too low" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestListEvents_TypeFilterAndLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	step := plan.Step{ID: 1, Kind: plan.KindMarketApproval, Title: "Approve ETH Deposit"}
	for i := 0; i < 5; i++ {
		svc.RecordStep(ctx, step, flow.StatusConfirmed)
	}
	svc.RecordFlowError(ctx, step, "Failed to approve deposit. Please try again.", errors.New("rejected"))

	transitions, err := svc.ListEvents(ctx, EventStepTransition, 3)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(transitions) != 3 {
		t.Fatalf("filtered count = %d, want 3", len(transitions))
	}
	for _, event := range transitions {
		if event.Type != EventStepTransition {
			t.Errorf("unexpected event type %s", event.Type)
		}
	}
}
