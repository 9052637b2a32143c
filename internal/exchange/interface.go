package exchange

import (
	"context"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// HistorySource определяет унифицированный интерфейс загрузки торговой
// истории с биржи. В отличие от торговых коннекторов здесь только чтение:
// источник отдаёт сырые филлы и записи фандинга, нормализованные к нашим
// моделям, а сопоставление позиций выполняется уже на нашей стороне.
type HistorySource interface {
	// Name возвращает имя биржи
	Name() string

	// FetchExecutions загружает филлы начиная с since (исключительно).
	// symbols ограничивает выборку конкретными символами; пустой срез
	// означает "все символы, которые биржа позволяет перечислить".
	// Результат отсортирован по времени исполнения по возрастанию.
	FetchExecutions(ctx context.Context, since time.Time, symbols []string) ([]*models.RawExecution, error)

	// FetchFunding загружает записи фандинга начиная с since (исключительно).
	FetchFunding(ctx context.Context, since time.Time) ([]*models.RawFunding, error)

	// Close закрывает соединения с биржей
	Close() error
}

// SourceError представляет ошибку от биржевого API
type SourceError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *SourceError) Error() string {
	return e.Exchange + ": " + e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Original
}
