package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// SyncHandler обрабатывает HTTP запросы фоновой синхронизации.
//
// Endpoints:
// - POST /api/v1/accounts/{id}/sync    - догрузить историю и перестроить сделки
// - POST /api/v1/accounts/{id}/rebuild - перестроить сделки без похода на биржу
// - POST /api/v1/accounts/{id}/test    - проверить API ключи аккаунта
// - GET  /api/v1/sync/{job_id}         - статус задачи
//
// Задачи выполняются в фоне; прогресс доступен опросом по job_id
// либо через WebSocket.
type SyncHandler struct {
	syncService service.SyncServiceInterface
}

// NewSyncHandler создает новый SyncHandler с внедрением зависимостей.
func NewSyncHandler(syncService service.SyncServiceInterface) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// StartSync запускает фоновую синхронизацию аккаунта.
//
// POST /api/v1/accounts/{id}/sync
//
// Response 202 Accepted:
//
//	{
//	  "job_id": "d9f3...",
//	  "account_id": "7f8c...",
//	  "status": "queued",
//	  "progress": 0,
//	  "phase": "fetch"
//	}
//
// Response 409 Conflict: у аккаунта уже есть активная задача.
func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.syncService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "sync service not initialized",
		})
		return
	}

	job, err := h.syncService.StartSync(mux.Vars(r)["id"])
	if err != nil {
		writeSyncStartError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// StartRebuild запускает перестройку сделок из уже сохраненных филлов.
// Используется после ручного исправления данных либо изменения логики
// сопоставления.
//
// POST /api/v1/accounts/{id}/rebuild?symbol=BTCUSDT
//
// symbol необязателен: пустой означает весь аккаунт.
func (h *SyncHandler) StartRebuild(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.syncService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "sync service not initialized",
		})
		return
	}

	accountID := mux.Vars(r)["id"]
	symbol := r.URL.Query().Get("symbol")

	job, err := h.syncService.StartRebuild(accountID, symbol)
	if err != nil {
		writeSyncStartError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// TestConnection проверяет сохраненные API ключи аккаунта одним
// пробным запросом к бирже.
//
// POST /api/v1/accounts/{id}/test
//
// Response 200 OK: {"message": "connection ok"}
// Response 404 Not Found: аккаунт не существует.
// Response 502 Bad Gateway: биржа отклонила ключи или недоступна.
func (h *SyncHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.syncService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "sync service not initialized",
		})
		return
	}

	if err := h.syncService.TestConnection(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "account not found",
			})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "connection test failed",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SuccessResponse{
		Message: "connection ok",
	})
}

// GetJob возвращает текущее состояние задачи синхронизации.
//
// GET /api/v1/sync/{job_id}
func (h *SyncHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.syncService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "sync service not initialized",
		})
		return
	}

	job, err := h.syncService.GetJob(mux.Vars(r)["job_id"])
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "job not found",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to get job",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(job)
}

// writeSyncStartError переводит ошибки запуска задачи в HTTP статусы
func writeSyncStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "account not found",
		})
	case errors.Is(err, service.ErrSyncAlreadyRunning):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrAccountDisabled):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to start job",
			"details": err.Error(),
		})
	}
}
