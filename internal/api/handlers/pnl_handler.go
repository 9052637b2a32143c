package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// PnlHandler обрабатывает HTTP запросы календаря PnL.
//
// Endpoints:
// - GET /api/v1/pnl/daily    - дневные корзины PnL
// - GET /api/v1/pnl/monthly  - месячные корзины PnL
// - GET /api/v1/pnl/total    - накопленный результат
// - GET /api/v1/pnl/activity - даты с активностью
//
// Все агрегаты считаются только по закрытым сделкам по времени выхода.
type PnlHandler struct {
	pnlService service.PnlServiceInterface
}

// NewPnlHandler создает новый PnlHandler с внедрением зависимостей.
func NewPnlHandler(pnlService service.PnlServiceInterface) *PnlHandler {
	return &PnlHandler{
		pnlService: pnlService,
	}
}

// GetDaily возвращает дневные корзины PnL.
//
// GET /api/v1/pnl/daily?account_id=...&from=2024-03-01&to=2024-03-31
//
// from/to необязательны, формат YYYY-MM-DD.
//
// Response 200 OK:
//
//	[
//	  {"date": "2024-03-14", "realized_pnl": "25.5", "fee_total": "1.2", "funding_total": "-0.3", "trade_count": 4}
//	]
func (h *PnlHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.pnlService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "pnl service not initialized",
		})
		return
	}

	accountID, from, to, err := parsePnlQuery(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	buckets, err := h.pnlService.GetDailyPnl(accountID, from, to)
	if err != nil {
		writePnlError(w, err, "failed to get daily pnl")
		return
	}
	if buckets == nil {
		buckets = []*models.DailyPnl{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(buckets)
}

// GetMonthly возвращает месячные корзины PnL.
//
// GET /api/v1/pnl/monthly?account_id=...&from=2024-01-01&to=2024-12-31
func (h *PnlHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.pnlService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "pnl service not initialized",
		})
		return
	}

	accountID, from, to, err := parsePnlQuery(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	buckets, err := h.pnlService.GetMonthlyPnl(accountID, from, to)
	if err != nil {
		writePnlError(w, err, "failed to get monthly pnl")
		return
	}
	if buckets == nil {
		buckets = []*models.MonthlyPnl{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(buckets)
}

// GetTotal возвращает накопленный результат по всем закрытым сделкам.
//
// GET /api/v1/pnl/total?account_id=...
func (h *PnlHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.pnlService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "pnl service not initialized",
		})
		return
	}

	total, err := h.pnlService.GetTotalPnl(r.URL.Query().Get("account_id"))
	if err != nil {
		writePnlError(w, err, "failed to get total pnl")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(total)
}

// GetActivity возвращает отсортированные даты, в которые была активность.
// Фронтенд подсвечивает эти дни в календаре.
//
// GET /api/v1/pnl/activity?account_id=...
func (h *PnlHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.pnlService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "pnl service not initialized",
		})
		return
	}

	days, err := h.pnlService.GetActivityDays(r.URL.Query().Get("account_id"))
	if err != nil {
		writePnlError(w, err, "failed to get activity days")
		return
	}
	if days == nil {
		days = []string{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(days)
}

// parsePnlQuery разбирает общие query-параметры PnL endpoints
func parsePnlQuery(r *http.Request) (accountID string, from, to *time.Time, err error) {
	query := r.URL.Query()
	accountID = query.Get("account_id")

	if fromStr := query.Get("from"); fromStr != "" {
		parsed, parseErr := time.Parse("2006-01-02", fromStr)
		if parseErr != nil {
			return "", nil, nil, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = &parsed
	}
	if toStr := query.Get("to"); toStr != "" {
		parsed, parseErr := time.Parse("2006-01-02", toStr)
		if parseErr != nil {
			return "", nil, nil, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		// Включаем весь день целиком
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	return accountID, from, to, nil
}

// writePnlError различает отсутствие account_id (400) и сбой базы (500)
func writePnlError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, service.ErrAccountIDRequired) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}
