package exchange

import (
	"fmt"
	"strings"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// SupportedExchanges - список поддерживаемых бирж
var SupportedExchanges = []string{
	models.ExchangeBybit,
	models.ExchangeBinance,
}

// NewSource создает источник истории для аккаунта по расшифрованным ключам
func NewSource(accountID string, creds models.Credentials) (HistorySource, error) {
	switch strings.ToLower(creds.Exchange) {
	case models.ExchangeBybit:
		return NewBybit(accountID, creds.APIKey, creds.APISecret), nil
	case models.ExchangeBinance:
		return NewBinance(accountID, creds.APIKey, creds.APISecret), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", creds.Exchange)
	}
}

// IsSupported проверяет, поддерживается ли биржа
func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, supported := range SupportedExchanges {
		if name == supported {
			return true
		}
	}
	return false
}
