package ledger

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func testTransaction(kind domain.Kind, status domain.Status, currency domain.Currency, createdAt time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Kind:        kind,
		AmountCents: 100000,
		Currency:    currency,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func TestFilterAndSort_SortsByCreatedAtDescending(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	oldest := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-72*time.Hour))
	middle := testTransaction(domain.KindBonus, domain.StatusCompleted, domain.CurrencyUSD, now.Add(-48*time.Hour))
	newest := testTransaction(domain.KindWithdrawal, domain.StatusPending, domain.CurrencyETH, now.Add(-24*time.Hour))

	got := FilterAndSort([]domain.Transaction{oldest, newest, middle}, domain.FilterCriteria{}, now)

	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("result not sorted descending at index %d", i)
		}
	}
	if got[0].ID != newest.ID || got[2].ID != oldest.ID {
		t.Fatal("expected newest first and oldest last")
	}
}

func TestFilterAndSort_StatusFilterSelectsOnlyMatching(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	pendingDeposit := testTransaction(domain.KindDeposit, domain.StatusPending, domain.CurrencyBTC, now.Add(-2*time.Hour))
	completedWithdrawal := testTransaction(domain.KindWithdrawal, domain.StatusCompleted, domain.CurrencyETH, now.Add(-1*time.Hour))

	got := FilterAndSort(
		[]domain.Transaction{pendingDeposit, completedWithdrawal},
		domain.FilterCriteria{StatusFilter: domain.StatusCompleted},
		now,
	)

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 transaction, got %d", len(got))
	}
	if got[0].ID != completedWithdrawal.ID {
		t.Fatal("expected the completed withdrawal record")
	}
}

func TestFilterAndSort_CriteriaComposeAsLogicalAND(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	match := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-1*time.Hour))
	wrongKind := testTransaction(domain.KindBonus, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-1*time.Hour))
	wrongStatus := testTransaction(domain.KindDeposit, domain.StatusPending, domain.CurrencyBTC, now.Add(-1*time.Hour))

	got := FilterAndSort(
		[]domain.Transaction{match, wrongKind, wrongStatus},
		domain.FilterCriteria{KindFilter: domain.KindDeposit, StatusFilter: domain.StatusCompleted},
		now,
	)

	if len(got) != 1 || got[0].ID != match.ID {
		t.Fatalf("expected only the record matching every criterion, got %d rows", len(got))
	}
}

func TestFilterAndSort_SearchMatchesKindCurrencyAndHash(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	withHash := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-1*time.Hour))
	withHash.ReferenceHash = strPtr("abc123def456")
	nilHash := testTransaction(domain.KindWithdrawal, domain.StatusPending, domain.CurrencyETH, now.Add(-2*time.Hour))

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{name: "matches hash substring case-insensitively", search: "ABC123", want: 1},
		{name: "matches currency code", search: "eth", want: 1},
		{name: "matches kind", search: "withdraw", want: 1},
		{name: "no match returns empty slice", search: "zzz", want: 0},
		{name: "nil hash treated as empty string", search: "def456", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndSort(
				[]domain.Transaction{withHash, nilHash},
				domain.FilterCriteria{SearchText: tt.search},
				now,
			)
			if len(got) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(got))
			}
		})
	}
}

func TestFilterAndSort_TodayIsCalendarDayOfEvaluationTime(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	justAfterMidnight := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC,
		time.Date(2024, time.January, 15, 0, 1, 0, 0, time.UTC))
	justBeforeMidnight := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC,
		time.Date(2024, time.January, 14, 23, 59, 0, 0, time.UTC))

	got := FilterAndSort(
		[]domain.Transaction{justAfterMidnight, justBeforeMidnight},
		domain.FilterCriteria{DateRange: domain.RangeToday},
		now,
	)

	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].ID != justAfterMidnight.ID {
		t.Fatal("expected only the same-calendar-day record to pass")
	}
}

func TestFilterAndSort_RollingWindowsAreInclusive(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		rng       domain.DateRange
		createdAt time.Time
		want      bool
	}{
		{name: "week boundary is inclusive", rng: domain.RangeThisWeek, createdAt: now.AddDate(0, 0, -7), want: true},
		{name: "older than a week is excluded", rng: domain.RangeThisWeek, createdAt: now.AddDate(0, 0, -7).Add(-time.Second), want: false},
		{name: "month is a rolling window", rng: domain.RangeThisMonth, createdAt: now.AddDate(0, -1, 0).Add(time.Hour), want: true},
		{name: "older than a month is excluded", rng: domain.RangeThisMonth, createdAt: now.AddDate(0, -1, 0).Add(-time.Hour), want: false},
		{name: "year is a rolling window", rng: domain.RangeThisYear, createdAt: now.AddDate(-1, 0, 0), want: true},
		{name: "older than a year is excluded", rng: domain.RangeThisYear, createdAt: now.AddDate(-1, 0, 0).Add(-time.Minute), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, tt.createdAt)
			got := FilterAndSort([]domain.Transaction{tx}, domain.FilterCriteria{DateRange: tt.rng}, now)
			if (len(got) == 1) != tt.want {
				t.Fatalf("expected pass=%v for %s", tt.want, tt.name)
			}
		})
	}
}

func TestFilterAndSort_IsIdempotent(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-1*time.Hour)),
		testTransaction(domain.KindWithdrawal, domain.StatusPending, domain.CurrencyETH, now.Add(-3*time.Hour)),
		testTransaction(domain.KindBonus, domain.StatusCompleted, domain.CurrencyUSD, now.Add(-2*time.Hour)),
	}
	criteria := domain.FilterCriteria{StatusFilter: domain.StatusCompleted}

	once := FilterAndSort(txs, criteria, now)
	twice := FilterAndSort(once, criteria, now)

	if !reflect.DeepEqual(once, twice) {
		t.Fatal("filtering twice with the same criteria changed the result")
	}
}

func TestFilterAndSort_ResultIsSubsetOfInput(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		testTransaction(domain.KindDeposit, domain.StatusCompleted, domain.CurrencyBTC, now.Add(-1*time.Hour)),
		testTransaction(domain.KindProfit, domain.StatusDenied, domain.CurrencyXRP, now.Add(-2*time.Hour)),
	}
	input := make(map[uuid.UUID]bool, len(txs))
	for _, tx := range txs {
		input[tx.ID] = true
	}

	got := FilterAndSort(txs, domain.FilterCriteria{SearchText: "btc"}, now)
	for _, tx := range got {
		if !input[tx.ID] {
			t.Fatalf("result contains fabricated record %s", tx.ID)
		}
	}
}

func TestFilterAndSort_EmptyInputReturnsEmptySlice(t *testing.T) {
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	got := FilterAndSort(nil, domain.FilterCriteria{StatusFilter: domain.StatusCompleted}, now)
	if got == nil {
		t.Fatal("expected a non-nil empty slice so callers can distinguish empty from absent")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(got))
	}
}

func TestParseFilters_UnrecognizedValuesFailOpenToAll(t *testing.T) {
	if got := ParseKindFilter("staking"); got != "" {
		t.Fatalf("expected unrecognized kind to widen to all, got %q", got)
	}
	if got := ParseStatusFilter("reversed"); got != "" {
		t.Fatalf("expected unrecognized status to widen to all, got %q", got)
	}
	if got := ParseDateRange("quarter"); got != domain.RangeAll {
		t.Fatalf("expected unrecognized range to widen to all, got %q", got)
	}
	if got := ParseKindFilter("  Deposit "); got != domain.KindDeposit {
		t.Fatalf("expected case-insensitive kind parse, got %q", got)
	}
}
