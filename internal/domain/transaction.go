/**
 * @description
 * This file defines the core domain models for the ledger-service: the transaction
 * ledger record, the closed kind/status/currency sets, and the value objects that
 * drive the ledger view model (filter criteria, request drafts, threshold policy).
 *
 * @notes
 * - Kind, Status and Currency are typed string constants rather than free text so
 *   that every consumer works against the same closed sets and classification can
 *   be checked for exhaustiveness in tests.
 * - Amounts are stored as `int64` cents to avoid floating-point inaccuracies with
 *   financial data. Raw user input arrives as a string on RequestDraft and is only
 *   converted to cents by the ledger validator.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of funds movement a transaction records.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindBonus      Kind = "bonus"
	KindProfit     Kind = "profit"
)

// Kinds returns every member of the closed kind set. Classification and
// validation tests iterate this slice to prove totality, so a new kind must be
// added here to become visible to the rest of the system.
func Kinds() []Kind {
	return []Kind{KindDeposit, KindWithdrawal, KindBonus, KindProfit}
}

// Status is the lifecycle state of a transaction. Every record starts Pending;
// the backoffice moves it to Completed or Denied and a final status never
// reverts.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDenied    Status = "denied"
)

// Statuses returns every member of the closed status set.
func Statuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusDenied}
}

// Currency is an asset code from the platform's supported set.
type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencyETH  Currency = "ETH"
	CurrencyLTC  Currency = "LTC"
	CurrencyXRP  Currency = "XRP"
	CurrencyUSD  Currency = "USD"
	CurrencyUSDT Currency = "USDT"
)

// Currencies returns every supported asset code.
func Currencies() []Currency {
	return []Currency{CurrencyBTC, CurrencyETH, CurrencyLTC, CurrencyXRP, CurrencyUSD, CurrencyUSDT}
}

// Transaction is the immutable ledger record for a funds movement request.
// This struct maps directly to the `transactions` table in the database.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Kind          Kind      `json:"kind"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      Currency  `json:"currency"`
	Status        Status    `json:"status"`
	ReferenceHash *string   `json:"reference_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DateRange selects a rolling time window for transaction history filtering.
// Today means the same calendar day as the evaluation time; the remaining
// ranges are rolling windows anchored at the evaluation time, not
// calendar-aligned buckets.
type DateRange string

const (
	RangeAll       DateRange = "all"
	RangeToday     DateRange = "today"
	RangeThisWeek  DateRange = "week"
	RangeThisMonth DateRange = "month"
	RangeThisYear  DateRange = "year"
)

// FilterCriteria captures the user's current history view selection. It is
// rebuilt from query parameters on every request and never persisted. Zero
// values ("" / all) mean "no restriction".
type FilterCriteria struct {
	SearchText   string
	StatusFilter Status    // empty = all
	KindFilter   Kind      // empty = all
	DateRange    DateRange // empty = all
}

// Method is how a deposit or withdrawal moves money in or out.
type Method string

const (
	MethodCrypto Method = "crypto"
	MethodBank   Method = "bank"
)

// RequestDraft is a user-entered candidate deposit or withdrawal before
// validation. Amount is the raw form input; the ledger validator owns parsing.
type RequestDraft struct {
	Kind     Kind     `json:"kind"`
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
	Method   Method   `json:"method"`

	// Crypto-method field.
	WalletAddress string `json:"wallet_address,omitempty"`

	// Bank-method fields.
	AccountNumber     string `json:"account_number,omitempty"`
	RoutingNumber     string `json:"routing_number,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

// NormalizedRequest is the accepted, canonical form of a valid draft. Status is
// always Pending; only the external backoffice transitions it afterwards.
type NormalizedRequest struct {
	Kind        Kind     `json:"kind"`
	AmountCents int64    `json:"amount_cents"`
	Currency    Currency `json:"currency"`
	Method      Method   `json:"method"`
	Status      Status   `json:"status"`

	WalletAddress     string `json:"wallet_address,omitempty"`
	AccountNumber     string `json:"account_number,omitempty"`
	RoutingNumber     string `json:"routing_number,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
}

// ThresholdPolicy is the single source of truth for minimum request amounts.
// It is injected from configuration; call sites never carry their own minimums.
type ThresholdPolicy struct {
	MinDepositCents    int64
	MinWithdrawalCents int64
}

// MinimumCentsFor returns the policy minimum for a request kind. Kinds that are
// not user-initiated requests have no minimum.
func (p ThresholdPolicy) MinimumCentsFor(kind Kind) int64 {
	switch kind {
	case KindDeposit:
		return p.MinDepositCents
	case KindWithdrawal:
		return p.MinWithdrawalCents
	default:
		return 0
	}
}

// ReportRow is one line of the tabular transaction export. All fields are
// preformatted strings so the report encoder stays a dumb serializer.
type ReportRow struct {
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	ReferenceHash string `json:"reference_hash"`
}
