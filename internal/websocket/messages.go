package websocket

import (
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeSyncProgress - прогресс фоновой синхронизации
	// Отправляется при каждом изменении прогресса задачи
	MessageTypeSyncProgress MessageType = "syncProgress"

	// MessageTypeSyncDone - завершение фоновой синхронизации
	// Отправляется один раз при успехе или ошибке задачи
	MessageTypeSyncDone MessageType = "syncDone"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// SyncProgressMessage - сообщение о прогрессе задачи синхронизации
//
// Содержит снимок состояния задачи: фазу (fetch/rebuild), процент
// выполнения и текущий обрабатываемый символ. Frontend показывает
// прогресс без поллинга job endpoint.
type SyncProgressMessage struct {
	BaseMessage
	Data *models.SyncJob `json:"data"`
}

// SyncDoneMessage - сообщение о завершении задачи синхронизации
//
// Содержит итоговое состояние задачи, включая результат (количество
// загруженных филлов и восстановленных сделок) либо текст ошибки.
type SyncDoneMessage struct {
	BaseMessage
	Data *models.SyncJob `json:"data"`
}

// NewSyncProgressMessage создает сообщение прогресса
func NewSyncProgressMessage(job *models.SyncJob) *SyncProgressMessage {
	return &SyncProgressMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSyncProgress,
			Timestamp: time.Now(),
		},
		Data: job,
	}
}

// NewSyncDoneMessage создает сообщение завершения
func NewSyncDoneMessage(job *models.SyncJob) *SyncDoneMessage {
	return &SyncDoneMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSyncDone,
			Timestamp: time.Now(),
		},
		Data: job,
	}
}
