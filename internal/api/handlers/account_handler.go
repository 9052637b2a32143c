package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
	"github.com/cokechen1108-source/crypto-pnl/pkg/utils"
)

// AccountHandler обрабатывает HTTP запросы для биржевых аккаунтов.
//
// Endpoints:
// - GET    /api/v1/accounts      - список аккаунтов
// - POST   /api/v1/accounts      - подключить аккаунт (API ключи)
// - GET    /api/v1/accounts/{id} - один аккаунт
// - PATCH  /api/v1/accounts/{id}/status - включить/отключить аккаунт
// - DELETE /api/v1/accounts/{id} - отключить аккаунт
//
// API ключи шифруются сервисом до записи в базу и никогда
// не возвращаются в ответах.
type AccountHandler struct {
	accountService service.AccountServiceInterface
}

// NewAccountHandler создает новый AccountHandler с внедрением зависимостей.
func NewAccountHandler(accountService service.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// GetAccounts возвращает все подключенные аккаунты.
//
// GET /api/v1/accounts
//
// Response 200 OK:
//
//	[
//	  {
//	    "id": "7f8c1fb0-4a2e-4e9f-9a77-0f4f3a6f6e21",
//	    "label": "main",
//	    "exchange": "bybit",
//	    "status": "active",
//	    "created_at": "2025-11-30T14:32:00Z"
//	  }
//	]
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.accountService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account service not initialized",
		})
		return
	}

	accounts, err := h.accountService.GetAccounts()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to get accounts",
			"details": err.Error(),
		})
		return
	}

	// Пустой список возвращаем как [], а не null
	if accounts == nil {
		accounts = []*models.ExchangeAccount{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(accounts)
}

// CreateAccount подключает новый биржевой аккаунт.
//
// POST /api/v1/accounts
//
// Request:
//
//	{
//	  "label": "main",
//	  "exchange": "bybit",
//	  "api_key": "...",
//	  "api_secret": "...",
//	  "api_passphrase": ""
//	}
//
// Response 201 Created: созданный аккаунт (без ключей).
// Response 400 Bad Request: невалидные поля или неподдерживаемая биржа.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.accountService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account service not initialized",
		})
		return
	}

	var req service.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	account, err := h.accountService.CreateAccount(&req)
	if err != nil {
		status := http.StatusBadRequest
		if !isValidationError(err) {
			status = http.StatusInternalServerError
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// GetAccount возвращает один аккаунт по ID.
//
// GET /api/v1/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.accountService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account service not initialized",
		})
		return
	}

	id := mux.Vars(r)["id"]

	account, err := h.accountService.GetAccount(id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "account not found",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to get account",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
}

// UpdateAccountStatus включает или отключает аккаунт.
//
// PATCH /api/v1/accounts/{id}/status
//
// Request:
//
//	{"status": "disabled"}
//
// Response 200 OK: аккаунт с обновленным статусом.
// Response 400 Bad Request: статус вне {active, disabled}.
// Response 404 Not Found: аккаунт не существует.
func (h *AccountHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.accountService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account service not initialized",
		})
		return
	}

	id := mux.Vars(r)["id"]

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	account, err := h.accountService.SetAccountStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
		case errors.Is(err, repository.ErrAccountNotFound):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "account not found",
			})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "failed to update account status",
				"details": err.Error(),
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
}

// DeleteAccount отключает аккаунт. Каскадно удаляются его филлы,
// фандинг и сделки.
//
// DELETE /api/v1/accounts/{id}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.accountService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account service not initialized",
		})
		return
	}

	id := mux.Vars(r)["id"]

	if err := h.accountService.DeleteAccount(id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "account not found",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to delete account",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SuccessResponse{
		Message: "account deleted",
	})
}

// isValidationError отличает ошибки валидации запроса (400) от
// внутренних сбоев (500)
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrExchangeNotSupported) ||
		errors.Is(err, service.ErrEmptyLabel) ||
		errors.Is(err, utils.ErrInvalidAPIKey) ||
		errors.Is(err, utils.ErrInvalidAPISecret) ||
		errors.Is(err, utils.ErrInvalidAPIPassphrase)
}
