package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cokechen1108-source/crypto-pnl/internal/exchange"
	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/pkg/crypto"
	"github.com/cokechen1108-source/crypto-pnl/pkg/utils"
)

// Ошибки сервиса аккаунтов
var (
	ErrExchangeNotSupported = errors.New("exchange is not supported")
	ErrEmptyLabel           = errors.New("account label is required")
	ErrInvalidStatus        = errors.New("invalid account status")
)

// AccountService предоставляет бизнес-логику для управления биржевыми
// аккаунтами.
//
// Отвечает за:
// - Создание и удаление аккаунтов
// - Шифрование API ключей перед сохранением (AES-256-GCM)
// - Выдачу расшифрованных ключей слою ингестии
type AccountService struct {
	accountRepo   AccountRepositoryInterface
	encryptionKey []byte
	logger        *zap.Logger
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(accountRepo AccountRepositoryInterface, encryptionKey []byte, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accountRepo:   accountRepo,
		encryptionKey: encryptionKey,
		logger:        logger,
	}
}

// CreateAccountRequest представляет запрос на добавление аккаунта
type CreateAccountRequest struct {
	Label         string `json:"label"`
	Exchange      string `json:"exchange"`
	APIKey        string `json:"api_key"`
	APISecret     string `json:"api_secret"`
	APIPassphrase string `json:"api_passphrase,omitempty"`
}

// CreateAccount валидирует запрос, шифрует ключи и сохраняет аккаунт.
//
// Ключи сохраняются только в зашифрованном виде и никогда не возвращаются
// наружу: поле в JSON-ответе отсутствует.
func (s *AccountService) CreateAccount(req *CreateAccountRequest) (*models.ExchangeAccount, error) {
	if req.Label == "" {
		return nil, ErrEmptyLabel
	}

	exchangeName := utils.NormalizeExchange(req.Exchange)
	if !exchange.IsSupported(exchangeName) {
		return nil, ErrExchangeNotSupported
	}

	if err := utils.ValidateAPIKey(req.APIKey); err != nil {
		return nil, err
	}
	if err := utils.ValidateAPISecret(req.APISecret); err != nil {
		return nil, err
	}
	if err := utils.ValidateAPIPassphrase(req.APIPassphrase); err != nil {
		return nil, err
	}

	encryptedKey, err := crypto.Encrypt(req.APIKey, s.encryptionKey)
	if err != nil {
		return nil, err
	}
	encryptedSecret, err := crypto.Encrypt(req.APISecret, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	var encryptedPassphrase string
	if req.APIPassphrase != "" {
		encryptedPassphrase, err = crypto.Encrypt(req.APIPassphrase, s.encryptionKey)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := &models.ExchangeAccount{
		ID:            uuid.NewString(),
		Label:         req.Label,
		Exchange:      exchangeName,
		APIKey:        encryptedKey,
		APISecret:     encryptedSecret,
		APIPassphrase: encryptedPassphrase,
		Status:        models.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("exchange", account.Exchange),
	)

	return account, nil
}

// GetAccounts возвращает все аккаунты
func (s *AccountService) GetAccounts() ([]*models.ExchangeAccount, error) {
	return s.accountRepo.GetAll()
}

// GetAccount возвращает аккаунт по идентификатору
func (s *AccountService) GetAccount(id string) (*models.ExchangeAccount, error) {
	return s.accountRepo.GetByID(id)
}

// DeleteAccount удаляет аккаунт вместе со всей его историей
// (каскад на уровне схемы БД)
func (s *AccountService) DeleteAccount(id string) error {
	if err := s.accountRepo.Delete(id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}

// SetAccountStatus включает или отключает аккаунт. Отключенный аккаунт
// не принимает новые задачи синхронизации; статус "error" выставляется
// только самим сервисом по результату прогона.
func (s *AccountService) SetAccountStatus(id, status string) (*models.ExchangeAccount, error) {
	if status != models.AccountStatusActive && status != models.AccountStatusDisabled {
		return nil, ErrInvalidStatus
	}

	if err := s.accountRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}

	s.logger.Info("account status changed",
		zap.String("account_id", id),
		zap.String("status", status),
	)

	return s.accountRepo.GetByID(id)
}

// Credentials возвращает расшифрованные API ключи аккаунта.
// Используется только слоем ингестии.
func (s *AccountService) Credentials(id string) (*models.Credentials, error) {
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	apiKey, err := crypto.Decrypt(account.APIKey, s.encryptionKey)
	if err != nil {
		return nil, err
	}
	apiSecret, err := crypto.Decrypt(account.APISecret, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	var passphrase string
	if account.APIPassphrase != "" {
		passphrase, err = crypto.Decrypt(account.APIPassphrase, s.encryptionKey)
		if err != nil {
			return nil, err
		}
	}

	return &models.Credentials{
		Exchange:      account.Exchange,
		APIKey:        apiKey,
		APISecret:     apiSecret,
		APIPassphrase: passphrase,
	}, nil
}

// MarkSyncError помечает аккаунт как проблемный и сохраняет текст ошибки
func (s *AccountService) MarkSyncError(id string, cause error) {
	if err := s.accountRepo.SetLastError(id, cause.Error()); err != nil {
		s.logger.Warn("failed to record account error",
			zap.String("account_id", id),
			zap.Error(err),
		)
	}
}

// MarkSynced возвращает аккаунт в рабочее состояние после успешного прогона
func (s *AccountService) MarkSynced(id string) {
	if err := s.accountRepo.UpdateStatus(id, models.AccountStatusActive); err != nil {
		s.logger.Warn("failed to reset account status",
			zap.String("account_id", id),
			zap.Error(err),
		)
	}
}
