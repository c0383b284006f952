/**
 * @description
 * This package is the ledger view model: the pure functions that turn raw
 * transaction rows into what every rendering surface shows. Filtering, sorting,
 * classification, request validation and report serialization all live here so
 * that no page carries its own copy of the rules.
 *
 * Everything in this package is synchronous and side-effect free. Callers pass
 * explicit inputs (including the evaluation time) and get new values back;
 * nothing is mutated in place.
 */

package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/vertexcapital/ledger-service/internal/domain"
)

// ParseKindFilter maps raw user input onto the closed kind set. Unrecognized
// values fail open to "all" so a bad query parameter widens the view instead of
// hiding rows or crashing the render.
func ParseKindFilter(raw string) domain.Kind {
	switch kind := domain.Kind(strings.TrimSpace(strings.ToLower(raw))); kind {
	case domain.KindDeposit, domain.KindWithdrawal, domain.KindBonus, domain.KindProfit:
		return kind
	default:
		return ""
	}
}

// ParseStatusFilter maps raw user input onto the closed status set, failing
// open to "all" for anything unrecognized.
func ParseStatusFilter(raw string) domain.Status {
	switch status := domain.Status(strings.TrimSpace(strings.ToLower(raw))); status {
	case domain.StatusPending, domain.StatusCompleted, domain.StatusDenied:
		return status
	default:
		return ""
	}
}

// ParseDateRange maps raw user input onto the date range set, failing open to
// "all" for anything unrecognized.
func ParseDateRange(raw string) domain.DateRange {
	switch rng := domain.DateRange(strings.TrimSpace(strings.ToLower(raw))); rng {
	case domain.RangeToday, domain.RangeThisWeek, domain.RangeThisMonth, domain.RangeThisYear:
		return rng
	default:
		return domain.RangeAll
	}
}

// FilterAndSort produces the ordered display view for a set of transactions:
// every active criterion must match (logical AND), and the result is sorted by
// CreatedAt descending with a stable sort so equal timestamps keep their input
// order. The input slice is never modified, and an empty result is a valid
// empty slice rather than an error.
func FilterAndSort(txs []domain.Transaction, criteria domain.FilterCriteria, now time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	search := strings.ToLower(strings.TrimSpace(criteria.SearchText))

	for _, tx := range txs {
		if criteria.StatusFilter != "" && tx.Status != criteria.StatusFilter {
			continue
		}
		if criteria.KindFilter != "" && tx.Kind != criteria.KindFilter {
			continue
		}
		if !matchesDateRange(tx.CreatedAt, criteria.DateRange, now) {
			continue
		}
		if search != "" && !matchesSearch(tx, search) {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// matchesSearch does a case-insensitive substring match against the
// concatenation of kind, currency and reference hash. A nil hash is treated as
// the empty string. No fuzzy matching.
func matchesSearch(tx domain.Transaction, loweredSearch string) bool {
	hash := ""
	if tx.ReferenceHash != nil {
		hash = *tx.ReferenceHash
	}
	haystack := strings.ToLower(string(tx.Kind) + string(tx.Currency) + hash)
	return strings.Contains(haystack, loweredSearch)
}

// matchesDateRange implements rolling-window semantics: Today is the same
// calendar day as the evaluation time (in its location); week, month and year
// are inclusive windows of now-7d, now-1month and now-1year. These are
// deliberately not calendar-aligned buckets.
func matchesDateRange(createdAt time.Time, rng domain.DateRange, now time.Time) bool {
	switch rng {
	case domain.RangeToday:
		y1, m1, d1 := createdAt.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case domain.RangeThisWeek:
		return !createdAt.Before(now.AddDate(0, 0, -7))
	case domain.RangeThisMonth:
		return !createdAt.Before(now.AddDate(0, -1, 0))
	case domain.RangeThisYear:
		return !createdAt.Before(now.AddDate(-1, 0, 0))
	default:
		return true
	}
}
