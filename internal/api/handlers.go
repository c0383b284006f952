/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/csv, encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/ledger, internal/store: For service
 *   logic, models, view-model helpers, and custom errors.
 */

package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vertexcapital/ledger-service/internal/app"
	"github.com/vertexcapital/ledger-service/internal/domain"
	"github.com/vertexcapital/ledger-service/internal/ledger"
	"github.com/vertexcapital/ledger-service/internal/store"
)

// LedgerHandlers holds the application service and static configuration the
// handlers need.
type LedgerHandlers struct {
	service          *app.Service
	depositAddresses map[string]string
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service, depositAddresses map[string]string) *LedgerHandlers {
	return &LedgerHandlers{service: service, depositAddresses: depositAddresses}
}

// requestAcceptedResponse is sent back to the client immediately after a
// deposit or withdrawal request has been accepted. The request is always
// recorded as pending; approval or denial arrives later through the
// backoffice event stream.
type requestAcceptedResponse struct {
	TransactionID string `json:"transaction_id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Message       string `json:"message"`
}

// resolveUser maps the authenticated token subject to the internal user ID,
// writing the error response itself when resolution fails.
func (h *LedgerHandlers) resolveUser(w http.ResponseWriter, r *http.Request, endpoint string) (uuid.UUID, bool) {
	subject, ok := GetAuthSubject(r.Context())
	if !ok {
		http.Error(w, "Could not get subject from context", http.StatusInternalServerError)
		return uuid.Nil, false
	}

	userID, err := h.service.ResolveInternalUserID(r.Context(), subject)
	if err != nil {
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=user_resolution_failed subject=%s err=%v", endpoint, subject, err)
		http.Error(w, "User not found", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

// criteriaFromQuery builds filter criteria from the request's query string.
// Unrecognized status, kind, or range values fall back to "all" so a stale
// client can never see an error, only an unfiltered view.
func criteriaFromQuery(r *http.Request) domain.FilterCriteria {
	q := r.URL.Query()
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	return domain.FilterCriteria{
		SearchText:   search,
		StatusFilter: ledger.ParseStatusFilter(q.Get("status")),
		KindFilter:   ledger.ParseKindFilter(q.Get("kind")),
		DateRange:    ledger.ParseDateRange(q.Get("range")),
	}
}

// ListTransactionsHandler returns the user's filtered, sorted transaction
// history decorated with presentation categories.
func (h *LedgerHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r, "list_transactions")
	if !ok {
		return
	}

	entries, err := h.service.TransactionHistory(r.Context(), userID, criteriaFromQuery(r))
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load transactions")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": entries})
}

// ExportTransactionsHandler streams the user's current transaction view as a
// CSV attachment. It applies the same criteria as the list endpoint so the
// exported file always matches what the user sees on screen.
func (h *LedgerHandlers) ExportTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r, "export_transactions")
	if !ok {
		return
	}

	rows, err := h.service.TransactionReport(r.Context(), userID, criteriaFromQuery(r))
	if err != nil {
		log.Printf("level=error component=api endpoint=export_transactions outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to export transactions")
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	if err := writer.Write(ledger.ReportHeader); err != nil {
		log.Printf("level=error component=api endpoint=export_transactions outcome=failed user_id=%s err=%v", userID, err)
		return
	}
	for _, row := range rows {
		record := []string{row.Kind, row.Amount, row.Currency, row.Status, row.Date, row.ReferenceHash}
		if err := writer.Write(record); err != nil {
			log.Printf("level=error component=api endpoint=export_transactions outcome=failed user_id=%s err=%v", userID, err)
			return
		}
	}
	writer.Flush()
}

// CreateDepositHandler handles requests to record a new deposit.
func (h *LedgerHandlers) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	h.createRequestHandler(w, r, domain.KindDeposit, "create_deposit")
}

// CreateWithdrawalHandler handles requests to record a new withdrawal.
func (h *LedgerHandlers) CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	h.createRequestHandler(w, r, domain.KindWithdrawal, "create_withdrawal")
}

// createRequestHandler is the shared body of the deposit and withdrawal
// endpoints. The endpoint determines the kind; a kind in the payload that
// disagrees with the route is rejected by validation.
func (h *LedgerHandlers) createRequestHandler(w http.ResponseWriter, r *http.Request, kind domain.Kind, endpoint string) {
	userID, ok := h.resolveUser(w, r, endpoint)
	if !ok {
		return
	}

	var draft domain.RequestDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=invalid_json err=%v", endpoint, err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if draft.Kind == "" {
		draft.Kind = kind
	}
	if draft.Kind != kind {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("This endpoint only accepts %s requests", kind))
		return
	}

	tx, err := h.service.CreateRequest(r.Context(), userID, draft)
	if err != nil {
		var validationErr *app.ValidationFailedError
		if errors.As(err, &validationErr) {
			log.Printf("level=warn component=api endpoint=%s outcome=reject reason=validation_failed user_id=%s problems=%d", endpoint, userID, len(validationErr.Errors))
			h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": validationErr.Errors})
			return
		}
		if errors.Is(err, app.ErrRateLimited) {
			h.writeError(w, http.StatusTooManyRequests, "Too many withdrawal requests. Please try again later.")
			return
		}
		log.Printf("level=error component=api endpoint=%s outcome=failed user_id=%s err=%v", endpoint, userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to record request")
		return
	}

	log.Printf("level=info component=api endpoint=%s outcome=accepted user_id=%s transaction_id=%s amount_cents=%d", endpoint, userID, tx.ID, tx.AmountCents)
	h.writeJSON(w, http.StatusCreated, requestAcceptedResponse{
		TransactionID: tx.ID.String(),
		Kind:          string(tx.Kind),
		Status:        string(tx.Status),
		AmountCents:   tx.AmountCents,
		Currency:      string(tx.Currency),
		Message:       "Request received and pending review",
	})
}

// PortfolioHandler returns the user's dashboard summary: profile, aggregate
// balances, and spot quotes when the price feed is reachable.
func (h *LedgerHandlers) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r, "portfolio")
	if !ok {
		return
	}

	summary, err := h.service.PortfolioSummary(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=portfolio outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// DepositAddressesHandler returns the configured funding address book.
func (h *LedgerHandlers) DepositAddressesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.resolveUser(w, r, "deposit_addresses"); !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"addresses": h.depositAddresses})
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
