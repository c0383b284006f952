/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL queries for the users and transactions tables and the
 * portfolio aggregate derivation.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vertexcapital/ledger-service/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserIDBySubject resolves the internal UUID from an identity provider
// subject (the `sub` claim of a validated token).
func (r *PostgresRepository) FindUserIDBySubject(ctx context.Context, subject string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT id FROM users WHERE subject = $1", subject).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

// FindUserByID retrieves a user profile by internal UUID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, subject, btrim(email), btrim(full_name), created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Subject, &user.Email, &user.FullName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateTransaction inserts a new ledger row. The row arrives from the
// validator already normalized, so the insert is a plain write.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, kind, amount_cents, currency, status, reference_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Kind, tx.AmountCents, tx.Currency, tx.Status, tx.ReferenceHash, tx.CreatedAt)
	return err
}

// FindTransactionByID retrieves a single ledger row.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	query := `
		SELECT id, user_id, kind, amount_cents, currency, status, reference_hash, created_at
		FROM transactions WHERE id = $1`
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&tx.ID, &tx.UserID, &tx.Kind, &tx.AmountCents, &tx.Currency, &tx.Status, &tx.ReferenceHash, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindTransactionsByUserID returns every ledger row for a user. Ordering and
// filtering are the view model's job, not the query's, so every rendering
// surface goes through the same code path.
func (r *PostgresRepository) FindTransactionsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, kind, amount_cents, currency, status, reference_hash, created_at
		FROM transactions WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Kind, &tx.AmountCents, &tx.Currency, &tx.Status, &tx.ReferenceHash, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ResolvePendingTransaction applies a backoffice decision to a pending row.
// The WHERE clause enforces the monotonic lifecycle: a row that already reached
// Completed or Denied is never rewritten, and the method reports whether the
// transition actually happened.
func (r *PostgresRepository) ResolvePendingTransaction(ctx context.Context, transactionID uuid.UUID, status domain.Status, referenceHash *string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $2, reference_hash = COALESCE($3, reference_hash)
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, transactionID, status, referenceHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetPortfolioAggregates derives the dashboard balance figures from completed
// ledger rows. Pending and denied rows never contribute to balances; pending
// requests are surfaced separately as a count.
func (r *PostgresRepository) GetPortfolioAggregates(ctx context.Context, userID uuid.UUID) (*domain.PortfolioAggregates, error) {
	var agg domain.PortfolioAggregates
	query := `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'deposit'    AND status = 'completed'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'profit'     AND status = 'completed'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'bonus'      AND status = 'completed'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'withdrawal' AND status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM transactions WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&agg.DepositCents, &agg.ProfitCents, &agg.BonusCents, &agg.WithdrawnCents, &agg.PendingRequests)
	if err != nil {
		return nil, err
	}
	agg.PortfolioCents = agg.DepositCents + agg.ProfitCents + agg.BonusCents - agg.WithdrawnCents
	return &agg, nil
}
