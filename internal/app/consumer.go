package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
	"github.com/vertexcapital/ledger-service/internal/store"
)

// StatusConsumer applies backoffice approve/deny decisions to pending ledger
// rows. It is the only component that ever moves a transaction out of Pending.
type StatusConsumer struct {
	repo store.Repository
}

func NewStatusConsumer(repo store.Repository) *StatusConsumer {
	return &StatusConsumer{repo: repo}
}

// HandleMessage is the RabbitMQ binding target. Returning true acknowledges the
// message; malformed payloads are acknowledged and dropped since redelivery
// cannot fix them.
func (c *StatusConsumer) HandleMessage(body []byte) bool {
	var event domain.StatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=status_consumer msg=\"unmarshal failed; dropping\" err=%v", err)
		return true
	}

	if strings.TrimSpace(event.TransactionID) == "" {
		log.Printf("level=warn component=status_consumer msg=\"missing transaction id; dropping\" resolution=%s", event.Resolution)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.processEvent(ctx, event); err != nil {
		log.Printf("level=error component=status_consumer msg=\"processing failed\" transaction_id=%s err=%v", event.TransactionID, err)
		return false
	}
	return true
}

func (c *StatusConsumer) processEvent(ctx context.Context, event domain.StatusEvent) error {
	transactionID, err := uuid.Parse(strings.TrimSpace(event.TransactionID))
	if err != nil {
		log.Printf("level=warn component=status_consumer msg=\"invalid transaction id; dropping\" transaction_id=%q", event.TransactionID)
		return nil
	}

	status, ok := resolutionToStatus(event.Resolution)
	if !ok {
		log.Printf("level=warn component=status_consumer msg=\"unrecognized resolution; dropping\" transaction_id=%s resolution=%q", transactionID, event.Resolution)
		return nil
	}

	var referenceHash *string
	if hash := strings.TrimSpace(event.ReferenceHash); hash != "" {
		referenceHash = &hash
	}

	applied, err := c.repo.ResolvePendingTransaction(ctx, transactionID, status, referenceHash)
	if err != nil {
		return fmt.Errorf("resolve transaction: %w", err)
	}
	if !applied {
		// Either the row does not exist or it already reached a final status.
		// Final statuses never revert, so a replayed or late decision is a no-op.
		tx, lookupErr := c.repo.FindTransactionByID(ctx, transactionID)
		if lookupErr != nil {
			if errors.Is(lookupErr, store.ErrTransactionNotFound) {
				log.Printf("level=warn component=status_consumer msg=\"no transaction for decision; acknowledging\" transaction_id=%s", transactionID)
				return nil
			}
			return fmt.Errorf("lookup transaction: %w", lookupErr)
		}
		log.Printf("level=info component=status_consumer msg=\"decision ignored for finalized transaction\" transaction_id=%s status=%s", transactionID, tx.Status)
	}
	return nil
}

func resolutionToStatus(resolution string) (domain.Status, bool) {
	switch strings.TrimSpace(strings.ToLower(resolution)) {
	case "approved", "completed", "success":
		return domain.StatusCompleted, true
	case "denied", "rejected":
		return domain.StatusDenied, true
	default:
		return "", false
	}
}
