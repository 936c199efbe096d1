// backend/src/handlers/connection_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/model"
	"github.com/username/centavo/backend/src/providers"
	"github.com/username/centavo/backend/src/services"
	"github.com/username/centavo/backend/src/utils"
)

type ConnectionHandler struct {
	db          *sql.DB
	syncService services.SyncService
	registry    *providers.Registry
}

func NewConnectionHandler(db *sql.DB, syncService services.SyncService, registry *providers.Registry) *ConnectionHandler {
	return &ConnectionHandler{db: db, syncService: syncService, registry: registry}
}

// sendServiceError maps service-layer errors onto HTTP statuses. Provider
// request failures surface as 502 without leaking the upstream body.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *providers.RequestError
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrConnectionNotFound), errors.Is(err, model.ErrConnectionNotFound):
		utils.SendJSONError(w, "Connection not found", http.StatusNotFound)
	case errors.Is(err, services.ErrSyncInProgress):
		utils.SendJSONError(w, "A sync is already running for this connection", http.StatusConflict)
	case errors.Is(err, services.ErrCredentialsMissing):
		utils.SendJSONError(w, "Connection has no stored credentials", http.StatusConflict)
	case errors.Is(err, services.ErrProviderUnavailable):
		utils.SendJSONError(w, "Unknown provider", http.StatusBadRequest)
	case errors.As(err, &reqErr):
		logger.FromContext(r.Context()).Error("Provider request failed", "provider", reqErr.Provider, "status", reqErr.Status, "error", err)
		utils.SendJSONError(w, "Provider request failed", http.StatusBadGateway)
	default:
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func connectionIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "connectionID"), 10, 64)
}

// ListProvidersHandler returns the registered provider names and the default.
func (h *ConnectionHandler) ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]interface{}{
		"providers": h.registry.Names(),
		"default":   h.registry.Default().Name(),
	}, http.StatusOK)
}

func (h *ConnectionHandler) CreateLinkTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	providerName := r.URL.Query().Get("provider")
	linkToken, err := h.syncService.CreateLinkToken(r.Context(), userID, providerName)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]string{"link_token": linkToken}, http.StatusOK)
}

func (h *ConnectionHandler) ExchangePublicTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Provider    string `json:"provider"`
		PublicToken string `json:"public_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	conn, err := h.syncService.ExchangePublicToken(r.Context(), userID, req.Provider, req.PublicToken)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, conn, http.StatusCreated)
}

func (h *ConnectionHandler) ListConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	connections, err := model.GetConnectionsForUser(h.db, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, connections, http.StatusOK)
}

func (h *ConnectionHandler) SyncConnectionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	connectionID, err := connectionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid connection id", http.StatusBadRequest)
		return
	}
	result, err := h.syncService.SyncConnection(r.Context(), userID, connectionID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *ConnectionHandler) DisconnectConnectionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	connectionID, err := connectionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid connection id", http.StatusBadRequest)
		return
	}
	if err := h.syncService.DisconnectConnection(r.Context(), userID, connectionID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "connection removed"}, http.StatusOK)
}
