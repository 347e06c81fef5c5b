package models

import "time"

// Статусы записи журнала синхронизации.
const (
	SyncLogStatusSuccess = "success"
	SyncLogStatusPartial = "partial"
	SyncLogStatusError   = "error"
)

const SyncTypeUpload = "upload"

// SyncLog — запись журнала синхронизации, одна на батч. Append-only.
type SyncLog struct {
	ID            int64
	DeviceID      string
	SyncType      string
	RecordsSynced int
	Status        string
	Message       string
	Timestamp     time.Time
}

// Типы проблемных записей в ответе синхронизации.
const (
	IssueTypeServerNewer = "server_newer"
	IssueTypeError       = "error"
)

// SyncIssue описывает один конфликт или ошибку в батче.
// Для конфликтов заполнены обе версии, для ошибок — Message.
type SyncIssue struct {
	OrderNumber   string
	Type          string
	ServerVersion int
	ClientVersion int
	Message       string
}

// BatchResult — итог обработки одного батча.
// Uploaded — принятые create+update, Downloaded — конфликты,
// по которым клиенту нужно забрать серверное состояние.
type BatchResult struct {
	Uploaded   int
	Downloaded int
	Issues     []SyncIssue
	ServerTime time.Time
}

func (r *BatchResult) LogStatus() string {
	if len(r.Issues) == 0 {
		return SyncLogStatusSuccess
	}
	return SyncLogStatusPartial
}
