package ledger

import (
	"strconv"
	"strings"

	"github.com/vertexcapital/ledger-service/internal/domain"
)

// ReportHeader is the column order for every exported report. Export always
// operates on the already filtered and sorted view, so what the user downloads
// is exactly what the table showed.
var ReportHeader = []string{"Kind", "Amount", "Currency", "Status", "Date", "Reference"}

// ToReportRows converts transactions into flat report rows, one per input
// record. Amounts get thousands separators with the currency kept in its own
// column, dates are locale-stable YYYY-MM-DD, and a missing reference hash is
// rendered as the literal "N/A". An empty input produces an empty (header-only)
// report, not an error.
func ToReportRows(txs []domain.Transaction) []domain.ReportRow {
	rows := make([]domain.ReportRow, 0, len(txs))
	for _, tx := range txs {
		hash := "N/A"
		if tx.ReferenceHash != nil {
			hash = *tx.ReferenceHash
		}
		rows = append(rows, domain.ReportRow{
			Kind:          string(tx.Kind),
			Amount:        FormatAmountCents(tx.AmountCents),
			Currency:      string(tx.Currency),
			Status:        string(tx.Status),
			Date:          tx.CreatedAt.UTC().Format("2006-01-02"),
			ReferenceHash: hash,
		})
	}
	return rows
}

// FormatAmountCents renders cents as a decimal string with thousands
// separators, e.g. 500000 -> "5,000.00". No currency symbol: the currency code
// travels in its own column.
func FormatAmountCents(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) < 2 {
		frac = "0" + frac
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
