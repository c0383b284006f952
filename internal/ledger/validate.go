package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vertexcapital/ledger-service/internal/domain"
)

// ErrorCode identifies a validation failure. Validation problems are returned
// as values, never raised, so a caller can render every problem at once.
type ErrorCode string

const (
	CodeInvalidAmount         ErrorCode = "invalid_amount"
	CodeBelowMinimum          ErrorCode = "below_minimum"
	CodeMissingField          ErrorCode = "missing_field"
	CodeUnrecognizedEnumValue ErrorCode = "unrecognized_enum_value"
)

// ValidationError describes one problem with a request draft. BelowMinimum
// errors carry the required minimum so the UI can show it.
type ValidationError struct {
	Code         ErrorCode `json:"code"`
	Field        string    `json:"field,omitempty"`
	MinimumCents int64     `json:"minimum_cents,omitempty"`
	Message      string    `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

func missingField(name string) ValidationError {
	return ValidationError{
		Code:    CodeMissingField,
		Field:   name,
		Message: fmt.Sprintf("%s is required", name),
	}
}

// ValidateRequest checks a deposit or withdrawal draft against the threshold
// policy and returns either the normalized creation payload or the full list of
// problems. It is a pure function: the network call that actually creates the
// transaction belongs to the caller.
//
// On success the payload has Status forced to Pending and the amount coerced to
// canonical cents, so no locale-dependent formatting survives past this point.
func ValidateRequest(draft domain.RequestDraft, policy domain.ThresholdPolicy) (*domain.NormalizedRequest, []ValidationError) {
	var errs []ValidationError

	kind := ParseKindFilter(string(draft.Kind))
	if kind != domain.KindDeposit && kind != domain.KindWithdrawal {
		errs = append(errs, ValidationError{
			Code:    CodeUnrecognizedEnumValue,
			Field:   "kind",
			Message: "kind must be deposit or withdrawal",
		})
	}

	currency, ok := parseCurrency(string(draft.Currency))
	if !ok {
		errs = append(errs, ValidationError{
			Code:    CodeUnrecognizedEnumValue,
			Field:   "currency",
			Message: "unsupported currency",
		})
	}

	method, ok := parseMethod(string(draft.Method))
	if !ok {
		errs = append(errs, ValidationError{
			Code:    CodeUnrecognizedEnumValue,
			Field:   "method",
			Message: "method must be crypto or bank",
		})
	}

	amountCents, amountErr := ParseAmountCents(draft.Amount)
	switch {
	case amountErr != nil:
		errs = append(errs, ValidationError{
			Code:    CodeInvalidAmount,
			Field:   "amount",
			Message: "amount must be a positive decimal number",
		})
	case kind == domain.KindDeposit || kind == domain.KindWithdrawal:
		if minimum := policy.MinimumCentsFor(kind); amountCents < minimum {
			errs = append(errs, ValidationError{
				Code:         CodeBelowMinimum,
				Field:        "amount",
				MinimumCents: minimum,
				Message:      fmt.Sprintf("amount is below the minimum of %s", FormatAmountCents(minimum)),
			})
		}
	}

	normalized := &domain.NormalizedRequest{
		Kind:        kind,
		AmountCents: amountCents,
		Currency:    currency,
		Method:      method,
		Status:      domain.StatusPending,
	}

	switch method {
	case domain.MethodCrypto:
		normalized.WalletAddress = strings.TrimSpace(draft.WalletAddress)
		if normalized.WalletAddress == "" {
			errs = append(errs, missingField("wallet_address"))
		}
	case domain.MethodBank:
		// Report every missing bank field, not just the first.
		normalized.AccountNumber = strings.TrimSpace(draft.AccountNumber)
		normalized.RoutingNumber = strings.TrimSpace(draft.RoutingNumber)
		normalized.AccountHolderName = strings.TrimSpace(draft.AccountHolderName)
		if normalized.AccountNumber == "" {
			errs = append(errs, missingField("account_number"))
		}
		if normalized.RoutingNumber == "" {
			errs = append(errs, missingField("routing_number"))
		}
		if normalized.AccountHolderName == "" {
			errs = append(errs, missingField("account_holder_name"))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return normalized, nil
}

// ParseAmountCents converts a raw amount string to cents. It accepts plain
// decimal input with at most two fraction digits and rejects anything
// non-positive, signed, or locale-formatted (thousands separators belong to
// output formatting, never input).
func ParseAmountCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has sub-cent precision", raw)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}

	cents, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q out of range", raw)
	}
	if cents <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return cents, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseCurrency(raw string) (domain.Currency, bool) {
	normalized := domain.Currency(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range domain.Currencies() {
		if normalized == c {
			return c, true
		}
	}
	return "", false
}

func parseMethod(raw string) (domain.Method, bool) {
	switch method := domain.Method(strings.TrimSpace(strings.ToLower(raw))); method {
	case domain.MethodCrypto, domain.MethodBank:
		return method, true
	default:
		return "", false
	}
}
