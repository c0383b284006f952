package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
	"github.com/vertexcapital/ledger-service/internal/store"
)

type consumerRepoStub struct {
	store.Repository

	tx *domain.Transaction

	resolveCalled bool
	resolvedWith  domain.Status
	applied       bool
}

func (s *consumerRepoStub) ResolvePendingTransaction(ctx context.Context, transactionID uuid.UUID, status domain.Status, referenceHash *string) (bool, error) {
	s.resolveCalled = true
	s.resolvedWith = status
	return s.applied, nil
}

func (s *consumerRepoStub) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	if s.tx == nil {
		return nil, store.ErrTransactionNotFound
	}
	return s.tx, nil
}

func marshalEvent(t *testing.T, event domain.StatusEvent) []byte {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return body
}

func TestHandleMessage_AppliesApprovalToPendingRow(t *testing.T) {
	repo := &consumerRepoStub{applied: true}
	consumer := NewStatusConsumer(repo)

	ok := consumer.HandleMessage(marshalEvent(t, domain.StatusEvent{
		TransactionID: uuid.New().String(),
		Resolution:    "approved",
		ReferenceHash: "abc123",
	}))

	if !ok {
		t.Fatal("expected message acknowledged")
	}
	if !repo.resolveCalled || repo.resolvedWith != domain.StatusCompleted {
		t.Fatalf("expected resolution to completed, got %q", repo.resolvedWith)
	}
}

func TestHandleMessage_DenialMapsToDeniedStatus(t *testing.T) {
	repo := &consumerRepoStub{applied: true}
	consumer := NewStatusConsumer(repo)

	consumer.HandleMessage(marshalEvent(t, domain.StatusEvent{
		TransactionID: uuid.New().String(),
		Resolution:    "denied",
		Reason:        "verification failed",
	}))

	if repo.resolvedWith != domain.StatusDenied {
		t.Fatalf("expected denied status, got %q", repo.resolvedWith)
	}
}

func TestHandleMessage_LateDecisionForFinalizedRowIsAcknowledged(t *testing.T) {
	txID := uuid.New()
	repo := &consumerRepoStub{
		applied: false,
		tx: &domain.Transaction{
			ID:     txID,
			Status: domain.StatusCompleted,
		},
	}
	consumer := NewStatusConsumer(repo)

	ok := consumer.HandleMessage(marshalEvent(t, domain.StatusEvent{
		TransactionID: txID.String(),
		Resolution:    "denied",
	}))

	if !ok {
		t.Fatal("a decision for an already finalized row must be acknowledged, not re-queued")
	}
}

func TestHandleMessage_DropsMalformedAndUnrecognizedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "malformed json", body: []byte("{not json")},
		{name: "missing transaction id", body: []byte(`{"resolution":"approved"}`)},
		{name: "invalid transaction id", body: []byte(`{"transaction_id":"not-a-uuid","resolution":"approved"}`)},
		{name: "unrecognized resolution", body: []byte(`{"transaction_id":"` + uuid.New().String() + `","resolution":"escalated"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &consumerRepoStub{}
			consumer := NewStatusConsumer(repo)
			if ok := consumer.HandleMessage(tt.body); !ok {
				t.Fatal("undeliverable payloads must be acknowledged and dropped")
			}
			if repo.resolveCalled {
				t.Fatal("undeliverable payloads must not touch the store")
			}
		})
	}
}
