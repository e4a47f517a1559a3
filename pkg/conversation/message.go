package conversation

import (
	"time"

	"github.com/google/uuid"
)

// AllDocuments is the scope key of the conversation held across every document.
const AllDocuments = "all"

// AllDocumentsName is the display name stored for the AllDocuments scope.
const AllDocumentsName = "All documents"

type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeAI   MessageType = "ai"
)

// ChatMessage is one transcript entry. DocumentId is empty for the AllDocuments scope.
type ChatMessage struct {
	Id         string      `json:"id"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	DocumentId string      `json:"documentId,omitempty"`
}

// NewMessage builds a message created under scopeKey.
func NewMessage(kind MessageType, content, scopeKey string, now time.Time) ChatMessage {
	return ChatMessage{
		Id:         uuid.NewString(),
		Type:       kind,
		Content:    content,
		Timestamp:  now,
		DocumentId: DocumentIdForScope(scopeKey),
	}
}

// DocumentIdForScope maps a scope key to the documentId carried by its messages.
func DocumentIdForScope(scopeKey string) string {
	if scopeKey == AllDocuments {
		return ""
	}
	return scopeKey
}

func cloneMessages(messages []ChatMessage) []ChatMessage {
	if len(messages) == 0 {
		return []ChatMessage{}
	}
	out := make([]ChatMessage, len(messages))
	copy(out, messages)
	return out
}
