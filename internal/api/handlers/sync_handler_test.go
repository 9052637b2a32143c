package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// ============ SyncHandler Tests ============

func TestSyncHandler_StartSync(t *testing.T) {
	t.Run("starts job and returns 202", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/sync", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.StartSync(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("expected status %d, got %d", http.StatusAccepted, w.Code)
		}

		var job models.SyncJob
		if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if job.JobID == "" {
			t.Error("expected generated job id")
		}
		if job.AccountID != "acc-1" {
			t.Errorf("expected account acc-1, got %s", job.AccountID)
		}
		if job.Status != models.SyncStatusQueued {
			t.Errorf("expected queued status, got %s", job.Status)
		}
	})

	t.Run("returns 409 when already running", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)
		mockSvc.SetStartError(service.ErrSyncAlreadyRunning)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/sync", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.StartSync(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("returns 409 when account disabled", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)
		mockSvc.SetStartError(service.ErrAccountDisabled)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/sync", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.StartSync(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("returns 404 for unknown account", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)
		mockSvc.SetStartError(repository.ErrAccountNotFound)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/missing/sync", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.StartSync(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("returns 500 when service is nil", func(t *testing.T) {
		handler := &SyncHandler{syncService: nil}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/sync", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.StartSync(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestSyncHandler_StartRebuild(t *testing.T) {
	t.Run("starts rebuild job", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/rebuild?symbol=BTCUSDT", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.StartRebuild(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("expected status %d, got %d", http.StatusAccepted, w.Code)
		}

		var job models.SyncJob
		if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if job.Phase != "rebuild" {
			t.Errorf("expected rebuild phase, got %s", job.Phase)
		}
	})
}

func TestSyncHandler_TestConnection(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/test", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.TestConnection(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response SuccessResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Message != "connection ok" {
			t.Errorf("unexpected message %q", response.Message)
		}
	})

	t.Run("returns 404 for unknown account", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		mockSvc.SetTestError(repository.ErrAccountNotFound)
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/missing/test", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "missing"})
		w := httptest.NewRecorder()

		handler.TestConnection(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("returns 502 when exchange rejects keys", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		mockSvc.SetTestError(ErrMockDatabase)
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/test", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "acc-1"})
		w := httptest.NewRecorder()

		handler.TestConnection(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("expected status %d, got %d", http.StatusBadGateway, w.Code)
		}
	})
}

func TestSyncHandler_GetJob(t *testing.T) {
	t.Run("returns job state", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)

		job, _ := mockSvc.StartSync("acc-1")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/"+job.JobID, nil)
		req = mux.SetURLVars(req, map[string]string{"job_id": job.JobID})
		w := httptest.NewRecorder()

		handler.GetJob(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response models.SyncJob
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.JobID != job.JobID {
			t.Errorf("expected job %s, got %s", job.JobID, response.JobID)
		}
	})

	t.Run("returns 404 for unknown job", func(t *testing.T) {
		mockSvc := NewMockSyncService()
		handler := NewSyncHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/missing", nil)
		req = mux.SetURLVars(req, map[string]string{"job_id": "missing"})
		w := httptest.NewRecorder()

		handler.GetJob(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}
