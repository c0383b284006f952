package ledger

import (
	"testing"

	"github.com/vertexcapital/ledger-service/internal/domain"
)

func TestClassifyKind_IsTotalOverClosedSet(t *testing.T) {
	want := map[domain.Kind]Category{
		domain.KindDeposit:    CategoryPositive,
		domain.KindWithdrawal: CategoryNegative,
		domain.KindBonus:      CategoryNeutralReward,
		domain.KindProfit:     CategoryPositive,
	}

	for _, kind := range domain.Kinds() {
		got := ClassifyKind(kind)
		if got == "" {
			t.Fatalf("kind %q has no category; classification must stay exhaustive", kind)
		}
		if got != want[kind] {
			t.Fatalf("kind %q classified as %q, want %q", kind, got, want[kind])
		}
	}
}

func TestClassifyStatus_IsTotalOverClosedSet(t *testing.T) {
	want := map[domain.Status]Category{
		domain.StatusCompleted: CategorySuccess,
		domain.StatusPending:   CategoryWarning,
		domain.StatusDenied:    CategoryError,
	}

	for _, status := range domain.Statuses() {
		got := ClassifyStatus(status)
		if got == "" {
			t.Fatalf("status %q has no category; classification must stay exhaustive", status)
		}
		if got != want[status] {
			t.Fatalf("status %q classified as %q, want %q", status, got, want[status])
		}
	}
}
