package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestCreatedEvent is published when a deposit or withdrawal request is
// accepted and recorded as Pending. The backoffice consumes it to start the
// approval workflow.
type RequestCreatedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Kind          Kind      `json:"kind"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      Currency  `json:"currency"`
	Method        Method    `json:"method"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusEvent is the backoffice decision for a pending request. Resolution is
// "approved" or "denied"; anything else is ignored by the consumer.
type StatusEvent struct {
	TransactionID string `json:"transaction_id"`
	Resolution    string `json:"resolution"`
	ReferenceHash string `json:"reference_hash,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
