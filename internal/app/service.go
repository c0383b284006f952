/**
 * @description
 * This file contains the core application logic for the ledger-service. The
 * `Service` struct orchestrates the ledger view model, coordinating between the
 * database repository, the event producer, the price feed client and the
 * withdrawal rate limiter. The actual filtering, classification, validation and
 * export rules live in internal/ledger; this service only wires data to them.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/ledger, internal/store: Domain models, view model, data access.
 * - pkg/rabbitmq, pkg/pricefeed: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
	"github.com/vertexcapital/ledger-service/internal/ledger"
	"github.com/vertexcapital/ledger-service/internal/store"
	"github.com/vertexcapital/ledger-service/pkg/rabbitmq"
)

var (
	// ErrRateLimited is returned when a user submits withdrawal requests faster
	// than the configured per-hour budget.
	ErrRateLimited = errors.New("too many withdrawal requests")
)

// ValidationFailedError carries the full list of draft problems so the API
// layer can render all of them at once.
type ValidationFailedError struct {
	Errors []ledger.ValidationError
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("request draft failed validation with %d problem(s)", len(e.Errors))
}

// QuoteProvider supplies USD spot prices for the portfolio view.
type QuoteProvider interface {
	GetSpotQuotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

// RateLimiter is the contract the withdrawal submission guard depends on.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core application logic for the ledger.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	quotes        QuoteProvider
	policy        domain.ThresholdPolicy

	rateLimiter        RateLimiter
	withdrawalsPerHour int

	// now is swappable in tests; the view model always receives an explicit
	// evaluation time.
	now func() time.Time
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, quotes QuoteProvider, policy domain.ThresholdPolicy) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
		quotes:        quotes,
		policy:        policy,
		now:           time.Now,
	}
}

// SetWithdrawalRateLimiter enables the per-user submission guard.
func (s *Service) SetWithdrawalRateLimiter(limiter RateLimiter, perHour int) {
	s.rateLimiter = limiter
	s.withdrawalsPerHour = perHour
}

// Policy exposes the injected threshold policy, e.g. for the API to display
// minimums on forms.
func (s *Service) Policy() domain.ThresholdPolicy {
	return s.policy
}

// ResolveInternalUserID converts an identity provider subject (the `sub` claim
// of a validated token) into the internal UUID used by our database.
func (s *Service) ResolveInternalUserID(ctx context.Context, subject string) (uuid.UUID, error) {
	return s.repo.FindUserIDBySubject(ctx, subject)
}

// HistoryEntry is one transaction decorated with its presentation categories.
type HistoryEntry struct {
	domain.Transaction
	KindCategory   ledger.Category `json:"kind_category"`
	StatusCategory ledger.Category `json:"status_category"`
}

// TransactionHistory returns the user's filtered, sorted, classified ledger
// view. An empty history is a valid empty slice; an error means the fetch
// itself failed, so callers can tell "nothing to show" from "could not load".
func (s *Service) TransactionHistory(ctx context.Context, userID uuid.UUID, criteria domain.FilterCriteria) ([]HistoryEntry, error) {
	txs, err := s.repo.FindTransactionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	visible := ledger.FilterAndSort(txs, criteria, s.now())
	entries := make([]HistoryEntry, 0, len(visible))
	for _, tx := range visible {
		entries = append(entries, HistoryEntry{
			Transaction:    tx,
			KindCategory:   ledger.ClassifyKind(tx.Kind),
			StatusCategory: ledger.ClassifyStatus(tx.Status),
		})
	}
	return entries, nil
}

// TransactionReport produces the export rows for exactly the view the user
// currently sees: same criteria, same filter path, so export and display can
// never diverge.
func (s *Service) TransactionReport(ctx context.Context, userID uuid.UUID, criteria domain.FilterCriteria) ([]domain.ReportRow, error) {
	txs, err := s.repo.FindTransactionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return ledger.ToReportRows(ledger.FilterAndSort(txs, criteria, s.now())), nil
}

// CreateRequest validates a deposit or withdrawal draft, persists the accepted
// request as a Pending ledger row, and announces it to the backoffice. The
// client never sets any status other than Pending; approval and denial arrive
// later through the status consumer.
func (s *Service) CreateRequest(ctx context.Context, userID uuid.UUID, draft domain.RequestDraft) (*domain.Transaction, error) {
	normalized, validationErrs := ledger.ValidateRequest(draft, s.policy)
	if len(validationErrs) > 0 {
		return nil, &ValidationFailedError{Errors: validationErrs}
	}

	if normalized.Kind == domain.KindWithdrawal && s.rateLimiter != nil && s.withdrawalsPerHour > 0 {
		count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, "withdrawal_request", userID.String(), s.withdrawalsPerHour, time.Hour)
		if err != nil {
			// A broken limiter must not block withdrawals; log and continue.
			log.Printf("level=warn component=app msg=\"rate limiter unavailable; allowing request\" user_id=%s err=%v", userID, err)
		} else if count > s.withdrawalsPerHour {
			return nil, ErrRateLimited
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        normalized.Kind,
		AmountCents: normalized.AmountCents,
		Currency:    normalized.Currency,
		Status:      normalized.Status,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction record: %w", err)
	}

	s.publishRequestCreated(ctx, tx, normalized.Method)
	return tx, nil
}

func (s *Service) publishRequestCreated(ctx context.Context, tx *domain.Transaction, method domain.Method) {
	if s.eventProducer == nil {
		return
	}
	event := domain.RequestCreatedEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Kind:          tx.Kind,
		AmountCents:   tx.AmountCents,
		Currency:      tx.Currency,
		Method:        method,
		CreatedAt:     tx.CreatedAt,
	}
	routingKey := fmt.Sprintf("ledger.request.created.%s", tx.Kind)
	if err := s.eventProducer.Publish(ctx, rabbitmq.LedgerExchange, routingKey, event); err != nil {
		// The row is already persisted; a lost event only delays backoffice pickup.
		log.Printf("level=warn component=app msg=\"request event publish failed\" transaction_id=%s err=%v", tx.ID, err)
	}
}

// PortfolioSummary assembles the dashboard view: profile, aggregate balances
// derived from completed rows, and whatever spot quotes the price feed can
// supply. Quote failures degrade the view instead of failing it.
func (s *Service) PortfolioSummary(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSummary, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	aggregates, err := s.repo.GetPortfolioAggregates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio aggregates: %w", err)
	}

	summary := &domain.PortfolioSummary{
		User:       user,
		Aggregates: *aggregates,
	}

	if s.quotes != nil {
		quotes, err := s.quotes.GetSpotQuotes(ctx, []string{"BTC", "ETH", "XRP", "LTC"})
		if err != nil {
			log.Printf("level=warn component=app msg=\"price feed unavailable; rendering without quotes\" user_id=%s err=%v", userID, err)
		} else {
			summary.Quotes = quotes
		}
	}
	return summary, nil
}
