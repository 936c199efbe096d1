// backend/src/handlers/ledger_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/services"
	"github.com/username/centavo/backend/src/utils"
)

type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ledgerService services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// defaultSeriesSpanDays is the range served when no dates are supplied.
const defaultSeriesSpanDays = 180

// GetNetWorthHistoryHandler serves the reconstructed daily net-worth series.
// Query parameters: start_date, end_date (YYYY-MM-DD), account_ids
// (comma-separated internal ids), categories (comma-separated).
func (h *LedgerHandler) GetNetWorthHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := services.SeriesQuery{
		UserID:       userID,
		SessionToken: sessionTokenFromContext(r.Context()),
	}

	now := utils.DayOf(time.Now().UTC())
	q.StartDate = now.AddDate(0, 0, -defaultSeriesSpanDays)
	q.EndDate = now
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err := utils.ParseDay(raw)
		if err != nil {
			utils.SendJSONError(w, "Invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		q.StartDate = start
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := utils.ParseDay(raw)
		if err != nil {
			utils.SendJSONError(w, "Invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		q.EndDate = end
	}

	if raw := r.URL.Query().Get("account_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				utils.SendJSONError(w, "Invalid account_ids, expected comma-separated integers", http.StatusBadRequest)
				return
			}
			q.AccountIDs = append(q.AccountIDs, id)
		}
	}
	if raw := r.URL.Query().Get("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			q.Categories = append(q.Categories, models.AccountCategory(strings.TrimSpace(part)))
		}
	}

	result, err := h.ledgerService.GetNetWorthSeries(r.Context(), q)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

// GetOverviewHandler serves the approximate per-category balance snapshot.
func (h *LedgerHandler) GetOverviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.ledgerService.GetOverview(r.Context(), userID, sessionTokenFromContext(r.Context()))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
