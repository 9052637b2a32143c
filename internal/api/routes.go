package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cokechen1108-source/crypto-pnl/internal/api/handlers"
	"github.com/cokechen1108-source/crypto-pnl/internal/api/middleware"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
	"github.com/cokechen1108-source/crypto-pnl/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	AccountService service.AccountServiceInterface
	TradeService   service.TradeServiceInterface
	PnlService     service.PnlServiceInterface
	SyncService    service.SyncServiceInterface
	Hub            *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /accounts/
//	│   ├── GET / - список аккаунтов
//	│   ├── POST / - подключить аккаунт
//	│   ├── GET /{id} - один аккаунт
//	│   ├── PATCH /{id}/status - включить/отключить аккаунт
//	│   ├── DELETE /{id} - отключить аккаунт
//	│   ├── POST /{id}/sync - догрузить историю и перестроить сделки
//	│   ├── POST /{id}/rebuild - перестроить сделки из сохраненных филлов
//	│   └── POST /{id}/test - проверить API ключи
//	├── /trades/
//	│   ├── GET / - список сделок с фильтрами
//	│   └── GET /{id} - сделка с ногами и аллокациями
//	├── /pnl/
//	│   ├── GET /daily - дневные корзины PnL
//	│   ├── GET /monthly - месячные корзины PnL
//	│   ├── GET /total - накопленный результат
//	│   └── GET /activity - даты с активностью
//	└── /sync/
//	    └── GET /{job_id} - статус фоновой задачи
//
// /ws/
//
//	└── /stream - WebSocket для real-time прогресса синхронизации
//
// /metrics - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var accountHandler *handlers.AccountHandler
	if deps != nil && deps.AccountService != nil {
		accountHandler = handlers.NewAccountHandler(deps.AccountService)
	}

	var tradeHandler *handlers.TradeHandler
	if deps != nil && deps.TradeService != nil {
		tradeHandler = handlers.NewTradeHandler(deps.TradeService)
	}

	var pnlHandler *handlers.PnlHandler
	if deps != nil && deps.PnlService != nil {
		pnlHandler = handlers.NewPnlHandler(deps.PnlService)
	}

	var syncHandler *handlers.SyncHandler
	if deps != nil && deps.SyncService != nil {
		syncHandler = handlers.NewSyncHandler(deps.SyncService)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Account routes
	if accountHandler != nil {
		api.HandleFunc("/accounts", accountHandler.GetAccounts).Methods("GET")
		api.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
		api.HandleFunc("/accounts/{id}", accountHandler.GetAccount).Methods("GET")
		api.HandleFunc("/accounts/{id}", accountHandler.DeleteAccount).Methods("DELETE")
		api.HandleFunc("/accounts/{id}/status", accountHandler.UpdateAccountStatus).Methods("PATCH")
	}

	// Sync routes: запуск привязан к аккаунту, статус - к задаче
	if syncHandler != nil {
		api.HandleFunc("/accounts/{id}/sync", syncHandler.StartSync).Methods("POST")
		api.HandleFunc("/accounts/{id}/rebuild", syncHandler.StartRebuild).Methods("POST")
		api.HandleFunc("/accounts/{id}/test", syncHandler.TestConnection).Methods("POST")
		api.HandleFunc("/sync/{job_id}", syncHandler.GetJob).Methods("GET")
	}

	// Trade routes
	if tradeHandler != nil {
		api.HandleFunc("/trades", tradeHandler.GetTrades).Methods("GET")
		api.HandleFunc("/trades/{id:[0-9]+}", tradeHandler.GetTrade).Methods("GET")
	}

	// PnL routes
	if pnlHandler != nil {
		api.HandleFunc("/pnl/daily", pnlHandler.GetDaily).Methods("GET")
		api.HandleFunc("/pnl/monthly", pnlHandler.GetMonthly).Methods("GET")
		api.HandleFunc("/pnl/total", pnlHandler.GetTotal).Methods("GET")
		api.HandleFunc("/pnl/activity", pnlHandler.GetActivity).Methods("GET")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		router.HandleFunc("/ws/stream", deps.Hub.ServeWS)
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
