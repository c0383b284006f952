package ledger

import "github.com/vertexcapital/ledger-service/internal/domain"

// Category is a presentation grouping derived from a transaction's kind or
// status. It drives coloring and grouping in the UI and is never stored.
type Category string

const (
	CategoryPositive      Category = "positive"
	CategoryNegative      Category = "negative"
	CategoryNeutralReward Category = "neutral-reward"
	CategorySuccess       Category = "success"
	CategoryWarning       Category = "warning"
	CategoryError         Category = "error"
)

// ClassifyKind maps a transaction kind to its presentation category. The
// mapping is total over the closed kind set; an unmapped kind yields the empty
// category, which the exhaustiveness test treats as a failure.
func ClassifyKind(kind domain.Kind) Category {
	switch kind {
	case domain.KindDeposit:
		return CategoryPositive
	case domain.KindWithdrawal:
		return CategoryNegative
	case domain.KindBonus:
		return CategoryNeutralReward
	case domain.KindProfit:
		return CategoryPositive
	default:
		return ""
	}
}

// ClassifyStatus maps a transaction status to its presentation category, with
// the same totality contract as ClassifyKind.
func ClassifyStatus(status domain.Status) Category {
	switch status {
	case domain.StatusCompleted:
		return CategorySuccess
	case domain.StatusPending:
		return CategoryWarning
	case domain.StatusDenied:
		return CategoryError
	default:
		return ""
	}
}
