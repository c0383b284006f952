/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access operations required by the ledger-service. The interface
 * decouples the application's business logic from the PostgreSQL implementation
 * and lets tests run against in-memory stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods. Subject is the external identity provider's stable user id;
	// the rest of the service operates on internal UUIDs.
	FindUserIDBySubject(ctx context.Context, subject string) (uuid.UUID, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Transaction methods. Rows are written once as Pending and only the status
	// consumer moves them to a final state.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	FindTransactionsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	ResolvePendingTransaction(ctx context.Context, transactionID uuid.UUID, status domain.Status, referenceHash *string) (bool, error)

	// Portfolio methods.
	GetPortfolioAggregates(ctx context.Context, userID uuid.UUID) (*domain.PortfolioAggregates, error)
}
