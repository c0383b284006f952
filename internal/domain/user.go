package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity-provider-backed profile as this service sees it. The
// external identity provider owns authentication; we only read the resulting
// value object, keyed by the provider subject.
type User struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"-"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioAggregates are the per-user balance figures derived from completed
// ledger rows, powering the dashboard cards.
type PortfolioAggregates struct {
	DepositCents    int64 `json:"deposit_cents"`
	ProfitCents     int64 `json:"profit_cents"`
	BonusCents      int64 `json:"bonus_cents"`
	WithdrawnCents  int64 `json:"withdrawn_cents"`
	PortfolioCents  int64 `json:"portfolio_cents"`
	PendingRequests int64 `json:"pending_requests"`
}

// PortfolioSummary combines the user profile, aggregate balances and any spot
// quotes the price feed could supply for the dashboard view.
type PortfolioSummary struct {
	User       *User               `json:"user"`
	Aggregates PortfolioAggregates `json:"aggregates"`
	Quotes     map[string]float64  `json:"quotes,omitempty"`
}
