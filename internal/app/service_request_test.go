package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
	"github.com/vertexcapital/ledger-service/internal/ledger"
	"github.com/vertexcapital/ledger-service/internal/store"
)

type requestRepoStub struct {
	store.Repository

	created   *domain.Transaction
	createErr error
}

func (s *requestRepoStub) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = tx
	return nil
}

type publisherStub struct {
	exchange   string
	routingKey string
	published  bool
	err        error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.exchange = exchange
	p.routingKey = routingKey
	p.published = true
	return p.err
}

func (p *publisherStub) Close() {}

type limiterStub struct {
	count int
	err   error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return l.count, 0, l.err
}

var requestTestPolicy = domain.ThresholdPolicy{
	MinDepositCents:    5000,
	MinWithdrawalCents: 100000,
}

func validWithdrawalDraft() domain.RequestDraft {
	return domain.RequestDraft{
		Kind:          domain.KindWithdrawal,
		Amount:        "2000",
		Currency:      domain.CurrencyBTC,
		Method:        domain.MethodCrypto,
		WalletAddress: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
	}
}

func TestCreateRequest_PersistsPendingRowAndPublishesEvent(t *testing.T) {
	repo := &requestRepoStub{}
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, requestTestPolicy)
	userID := uuid.New()

	tx, err := svc.CreateRequest(context.Background(), userID, validWithdrawalDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected transaction to be persisted")
	}
	if tx.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", tx.Status)
	}
	if tx.UserID != userID {
		t.Fatal("expected transaction bound to the requesting user")
	}
	if tx.AmountCents != 200000 {
		t.Fatalf("expected canonical 200000 cents, got %d", tx.AmountCents)
	}
	if !producer.published {
		t.Fatal("expected request created event to be published")
	}
	if producer.routingKey != "ledger.request.created.withdrawal" {
		t.Fatalf("unexpected routing key %q", producer.routingKey)
	}
}

func TestCreateRequest_ReturnsEveryValidationProblem(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewService(repo, nil, nil, requestTestPolicy)

	draft := domain.RequestDraft{
		Kind:     domain.KindWithdrawal,
		Amount:   "999.99",
		Currency: domain.CurrencyUSD,
		Method:   domain.MethodBank,
	}

	_, err := svc.CreateRequest(context.Background(), uuid.New(), draft)
	var validationErr *ValidationFailedError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	// Below-minimum amount plus three missing bank fields, all at once.
	if len(validationErr.Errors) != 4 {
		t.Fatalf("expected 4 problems reported together, got %v", validationErr.Errors)
	}
	if repo.created != nil {
		t.Fatal("invalid draft must never reach the store")
	}

	var belowMin *ledger.ValidationError
	for i := range validationErr.Errors {
		if validationErr.Errors[i].Code == ledger.CodeBelowMinimum {
			belowMin = &validationErr.Errors[i]
		}
	}
	if belowMin == nil {
		t.Fatal("expected a below_minimum error")
	}
	if belowMin.MinimumCents != 100000 {
		t.Fatalf("expected the policy minimum carried for display, got %d", belowMin.MinimumCents)
	}
}

func TestCreateRequest_WithdrawalOverBudgetIsRateLimited(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewService(repo, nil, nil, requestTestPolicy)
	svc.SetWithdrawalRateLimiter(&limiterStub{count: 11}, 10)

	_, err := svc.CreateRequest(context.Background(), uuid.New(), validWithdrawalDraft())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("rate limited request must not be persisted")
	}
}

func TestCreateRequest_BrokenLimiterDoesNotBlockWithdrawals(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewService(repo, nil, nil, requestTestPolicy)
	svc.SetWithdrawalRateLimiter(&limiterStub{err: errors.New("redis down")}, 10)

	if _, err := svc.CreateRequest(context.Background(), uuid.New(), validWithdrawalDraft()); err != nil {
		t.Fatalf("expected request to proceed when limiter fails, got %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected transaction persisted despite limiter failure")
	}
}

func TestCreateRequest_PublishFailureDoesNotFailRequest(t *testing.T) {
	repo := &requestRepoStub{}
	producer := &publisherStub{err: errors.New("broker unavailable")}
	svc := NewService(repo, producer, nil, requestTestPolicy)

	tx, err := svc.CreateRequest(context.Background(), uuid.New(), validWithdrawalDraft())
	if err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
	if tx == nil || repo.created == nil {
		t.Fatal("expected transaction persisted")
	}
}

func TestCreateRequest_DepositDoesNotConsumeWithdrawalBudget(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewService(repo, nil, nil, requestTestPolicy)
	svc.SetWithdrawalRateLimiter(&limiterStub{count: 99}, 10)

	draft := domain.RequestDraft{
		Kind:          domain.KindDeposit,
		Amount:        "100",
		Currency:      domain.CurrencyBTC,
		Method:        domain.MethodCrypto,
		WalletAddress: "addr",
	}

	if _, err := svc.CreateRequest(context.Background(), uuid.New(), draft); err != nil {
		t.Fatalf("deposits must not be withdrawal-rate-limited, got %v", err)
	}
}
