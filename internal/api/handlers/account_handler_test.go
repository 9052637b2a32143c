package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// ============ AccountHandler Tests ============

func TestAccountHandler_GetAccounts(t *testing.T) {
	t.Run("returns empty list as array", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		w := httptest.NewRecorder()

		handler.GetAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("expected empty array, got %q", body)
		}
	})

	t.Run("returns accounts without keys", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		_, err := mockSvc.CreateAccount(&service.CreateAccountRequest{
			Label:     "main",
			Exchange:  "bybit",
			APIKey:    "plain-key-1234567890",
			APISecret: "plain-secret-1234567890",
		})
		if err != nil {
			t.Fatalf("mock create failed: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		w := httptest.NewRecorder()

		handler.GetAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response []*models.ExchangeAccount
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response) != 1 {
			t.Fatalf("expected 1 account, got %d", len(response))
		}
		if response[0].Label != "main" {
			t.Errorf("expected label main, got %s", response[0].Label)
		}
	})

	t.Run("returns 500 when service is nil", func(t *testing.T) {
		handler := &AccountHandler{accountService: nil}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		w := httptest.NewRecorder()

		handler.GetAccounts(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)
		mockSvc.SetError("get", ErrMockDatabase)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		w := httptest.NewRecorder()

		handler.GetAccounts(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		body, _ := json.Marshal(map[string]string{
			"label":      "main",
			"exchange":   "bybit",
			"api_key":    "plain-key-1234567890",
			"api_secret": "plain-secret-1234567890",
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
		}

		var response models.ExchangeAccount
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID == "" {
			t.Error("expected generated account ID")
		}
		if response.Status != models.AccountStatusActive {
			t.Errorf("expected active status, got %s", response.Status)
		}
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 400 on unsupported exchange", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)
		mockSvc.SetError("create", service.ErrExchangeNotSupported)

		body, _ := json.Marshal(map[string]string{"label": "x", "exchange": "kraken"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 500 on database error", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)
		mockSvc.SetError("create", ErrMockDatabase)

		body, _ := json.Marshal(map[string]string{"label": "x", "exchange": "bybit"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateAccount(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns account by id", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		account, _ := mockSvc.CreateAccount(&service.CreateAccountRequest{Label: "main", Exchange: "bybit"})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		req = mux.SetURLVars(req, map[string]string{"id": account.ID})
		w := httptest.NewRecorder()

		handler.GetAccount(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/missing", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.GetAccount(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestAccountHandler_UpdateAccountStatus(t *testing.T) {
	t.Run("disables account", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		account, _ := mockSvc.CreateAccount(&service.CreateAccountRequest{Label: "main", Exchange: "bybit"})

		body := bytes.NewBufferString(`{"status":"disabled"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/"+account.ID+"/status", body)
		req = mux.SetURLVars(req, map[string]string{"id": account.ID})
		w := httptest.NewRecorder()

		handler.UpdateAccountStatus(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response models.ExchangeAccount
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Status != models.AccountStatusDisabled {
			t.Errorf("expected status disabled, got %s", response.Status)
		}
	})

	t.Run("returns 400 for unknown status", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		account, _ := mockSvc.CreateAccount(&service.CreateAccountRequest{Label: "main", Exchange: "bybit"})

		body := bytes.NewBufferString(`{"status":"frozen"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/"+account.ID+"/status", body)
		req = mux.SetURLVars(req, map[string]string{"id": account.ID})
		w := httptest.NewRecorder()

		handler.UpdateAccountStatus(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 400 for malformed body", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		body := bytes.NewBufferString(`{status`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/acc-1/status", body)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.UpdateAccountStatus(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		body := bytes.NewBufferString(`{"status":"active"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/accounts/missing/status", body)
		req = mux.SetURLVars(req, map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.UpdateAccountStatus(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	t.Run("deletes account", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		account, _ := mockSvc.CreateAccount(&service.CreateAccountRequest{Label: "main", Exchange: "bybit"})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/"+account.ID, nil)
		req = mux.SetURLVars(req, map[string]string{"id": account.ID})
		w := httptest.NewRecorder()

		handler.DeleteAccount(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if _, err := mockSvc.GetAccount(account.ID); err == nil {
			t.Error("account still exists after delete")
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		mockSvc := NewMockAccountService()
		handler := NewAccountHandler(mockSvc)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/missing", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.DeleteAccount(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}
