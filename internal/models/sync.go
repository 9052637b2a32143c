package models

import "time"

// Статусы задачи синхронизации
const (
	SyncStatusQueued  = "queued"
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncResult - итог одного прогона синхронизации аккаунта
type SyncResult struct {
	ExecutionsInserted int64 `json:"executions_inserted"`
	FundingInserted    int64 `json:"funding_inserted"`
	TradesCreated      int   `json:"trades_created"`
}

// SyncJob представляет фоновую задачу синхронизации и перестройки сделок.
// Живёт только в памяти процесса; фронтенд опрашивает её по job_id либо
// получает обновления через WebSocket.
type SyncJob struct {
	JobID            string      `json:"job_id"`
	AccountID        string      `json:"account_id"`
	Exchange         string      `json:"exchange"`
	Status           string      `json:"status"`   // queued, running, success, error
	Progress         int         `json:"progress"` // 0-100
	Phase            string      `json:"phase"`
	Message          string      `json:"message,omitempty"`
	TotalSymbols     int         `json:"total_symbols,omitempty"`
	CompletedSymbols int         `json:"completed_symbols,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	EndedAt          *time.Time  `json:"ended_at,omitempty"`
	Result           *SyncResult `json:"result,omitempty"`
	Error            string      `json:"error,omitempty"`
}
