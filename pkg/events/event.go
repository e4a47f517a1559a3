package events

import "time"

// Event types published by the workspace. They double as NATS subject suffixes.
const (
	DocumentsLoaded      = "documents.loaded"
	DocumentsLoadFailed  = "documents.load_failed"
	DocumentUploaded     = "document.uploaded"
	DocumentUploadFailed = "document.upload_failed"
	DocumentRejected     = "document.rejected"
	DocumentReady        = "document.ready"
	DocumentFailed       = "document.failed"
	DocumentDeleted      = "document.deleted"
	DocumentDeleteFailed = "document.delete_failed"
	DocumentsCleared     = "documents.cleared"
	DocumentDownloaded   = "document.downloaded"
	DownloadFailed       = "document.download_failed"
	ChatAnswered         = "chat.answered"
	ChatFailed           = "chat.failed"
	ChatRejected         = "chat.rejected"
	ConversationCleared  = "conversation.cleared"
	HistoryCleared       = "conversation.history_cleared"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns one of the constants above.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
