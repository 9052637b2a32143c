package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// TradeHandler обрабатывает HTTP запросы для восстановленных сделок.
//
// Endpoints:
// - GET /api/v1/trades      - список сделок с фильтрами и пагинацией
// - GET /api/v1/trades/{id} - одна сделка с ногами и аллокациями
type TradeHandler struct {
	tradeService service.TradeServiceInterface
}

// NewTradeHandler создает новый TradeHandler с внедрением зависимостей.
func NewTradeHandler(tradeService service.TradeServiceInterface) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// GetTrades возвращает страницу сделок аккаунта, новые сначала.
//
// GET /api/v1/trades?account_id=...&symbol=BTCUSDT&day=2024-03-15&page=1&page_size=50
//
// Query Parameters:
// - account_id (required)
// - symbol (optional): фильтр по символу
// - day (optional): YYYY-MM-DD, сделки с входом или выходом в этот день
// - page (optional): с 1, по умолчанию 1
// - page_size (optional): по умолчанию 50, максимум 1000
//
// Response 200 OK:
//
//	{
//	  "trades": [...],
//	  "total": 118,
//	  "page": 1,
//	  "page_size": 50
//	}
func (h *TradeHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.tradeService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "trade service not initialized",
		})
		return
	}

	query := r.URL.Query()
	req := &service.ListTradesRequest{
		AccountID: query.Get("account_id"),
		Symbol:    query.Get("symbol"),
		Day:       query.Get("day"),
	}
	if pageStr := query.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil {
			req.Page = page
		}
	}
	if sizeStr := query.Get("page_size"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil {
			req.PageSize = size
		}
	}

	page, err := h.tradeService.ListTrades(req)
	if err != nil {
		if errors.Is(err, service.ErrAccountIDRequired) || errors.Is(err, service.ErrInvalidDay) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to get trades",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(page)
}

// GetTrade возвращает одну сделку со всеми ногами и аллокациями филлов.
//
// GET /api/v1/trades/{id}
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.tradeService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "trade service not initialized",
		})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid trade id",
		})
		return
	}

	trade, err := h.tradeService.GetTrade(id)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "trade not found",
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to get trade",
			"details": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(trade)
}
