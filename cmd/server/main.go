package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/api"
	"github.com/cokechen1108-source/crypto-pnl/internal/config"
	"github.com/cokechen1108-source/crypto-pnl/internal/exchange"
	"github.com/cokechen1108-source/crypto-pnl/internal/rebuild"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
	"github.com/cokechen1108-source/crypto-pnl/internal/websocket"
	"github.com/cokechen1108-source/crypto-pnl/pkg/utils"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env опционален: в контейнере переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.InitLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Sugar().Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		logger.Sugar().Fatalf("Failed to run migrations: %v", err)
	}

	logger.Sugar().Infow("connected to database", "dsn", cfg.Database.DSNWithoutPassword())

	// Инициализация репозиториев
	accountRepo := repository.NewAccountRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	fundingRepo := repository.NewFundingRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	pnlRepo := repository.NewPnlRepository(db)

	// Инициализация сервисов
	accountService := service.NewAccountService(accountRepo, cfg.EncryptionKeyBytes(), logger.Logger)
	tradeService := service.NewTradeService(tradeRepo)
	pnlService := service.NewPnlService(pnlRepo)

	// Координатор перестройки сделок: FIFO-движок + транзакционная замена
	coordinator := rebuild.NewCoordinator(db, executionRepo, fundingRepo, tradeRepo, logger.Logger)

	syncService := service.NewSyncService(
		accountService,
		executionRepo,
		fundingRepo,
		coordinator,
		nil, // реальные биржевые источники
		logger.Logger,
	)

	// WebSocket hub для трансляции прогресса синхронизации
	hub := websocket.NewHub()
	go hub.Run()
	syncService.SetBroadcaster(hub)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		AccountService: accountService,
		TradeService:   tradeService,
		PnlService:     pnlService,
		SyncService:    syncService,
		Hub:            hub,
	}

	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Sugar().Infof("starting server on %s", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("Server failed: %v", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("Server failed: %v", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Sugar().Info("shutting down server...")

	hub.Stop()
	exchange.CloseGlobalClient()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
