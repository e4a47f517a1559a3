package conversation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"pdf-chat-client/internal/pkg/logger"
)

const (
	// StorageKey is the single backend key holding every conversation.
	StorageKey = "pdf-chat-conversations"
	// StorageVersion guards the persisted layout. Any other version reads as empty.
	StorageVersion = "1.0"
)

// StoredConversation is the persisted record for one scope key.
type StoredConversation struct {
	DocumentId   string          `json:"documentId"`
	DocumentName string          `json:"documentName,omitempty"`
	Messages     []storedMessage `json:"messages"`
	LastUpdated  json.RawMessage `json:"lastUpdated"`
}

// storedMessage keeps the timestamp as the raw JSON value so a single bad
// value cannot fail the whole record.
type storedMessage struct {
	Id         string          `json:"id"`
	Type       MessageType     `json:"type"`
	Content    string          `json:"content"`
	Timestamp  json.RawMessage `json:"timestamp"`
	DocumentId string          `json:"documentId,omitempty"`
}

type chatStorage struct {
	Version       string                        `json:"version"`
	Conversations map[string]StoredConversation `json:"conversations"`
}

// StorageStats summarises what the store currently holds.
type StorageStats struct {
	ConversationCount int       `json:"conversation_count"`
	TotalMessages     int       `json:"total_messages"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Store persists transcripts per scope key on top of a Backend.
// Every failure is logged and degrades to an empty result or a no-op.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  logger.ILogger
	now     func() time.Time
}

func NewStore(backend Backend, log logger.ILogger) *Store {
	return &Store{
		backend: backend,
		logger:  log,
		now:     time.Now,
	}
}

// Load returns the transcript stored under scopeKey, or an empty slice.
func (s *Store) Load(scopeKey string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage := s.readAll()
	conversation, ok := storage.Conversations[scopeKey]
	if !ok {
		return []ChatMessage{}
	}

	messages := make([]ChatMessage, 0, len(conversation.Messages))
	for _, m := range conversation.Messages {
		messages = append(messages, ChatMessage{
			Id:         m.Id,
			Type:       m.Type,
			Content:    m.Content,
			Timestamp:  s.parseTimestamp(m.Timestamp),
			DocumentId: m.DocumentId,
		})
	}
	return messages
}

// Save overwrites the record for scopeKey and stamps lastUpdated.
func (s *Store) Save(scopeKey string, messages []ChatMessage, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage := s.readAll()

	stored := make([]storedMessage, 0, len(messages))
	for _, m := range messages {
		stored = append(stored, storedMessage{
			Id:         m.Id,
			Type:       m.Type,
			Content:    m.Content,
			Timestamp:  encodeTimestamp(m.Timestamp),
			DocumentId: m.DocumentId,
		})
	}

	storage.Conversations[scopeKey] = StoredConversation{
		DocumentId:   scopeKey,
		DocumentName: displayName,
		Messages:     stored,
		LastUpdated:  encodeTimestamp(s.now()),
	}

	if err := s.writeAll(storage); err != nil {
		s.logger.Error("ConversationStore", "Failed to save conversation", map[string]interface{}{
			"scope_key": scopeKey,
			"error":     err.Error(),
		})
		return
	}
	s.logger.Debug("ConversationStore", "Conversation saved", map[string]interface{}{
		"scope_key": scopeKey,
		"messages":  len(messages),
	})
}

// Delete removes the record for scopeKey. Other records are untouched.
func (s *Store) Delete(scopeKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage := s.readAll()
	if _, ok := storage.Conversations[scopeKey]; !ok {
		return
	}
	delete(storage.Conversations, scopeKey)

	if err := s.writeAll(storage); err != nil {
		s.logger.Error("ConversationStore", "Failed to delete conversation", map[string]interface{}{
			"scope_key": scopeKey,
			"error":     err.Error(),
		})
	}
}

// ClearAll drops every stored conversation.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(StorageKey); err != nil {
		s.logger.Error("ConversationStore", "Failed to clear conversations", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Keys lists the scope keys that currently have a stored record.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage := s.readAll()
	keys := make([]string, 0, len(storage.Conversations))
	for k := range storage.Conversations {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store) Stats() StorageStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage := s.readAll()
	stats := StorageStats{ConversationCount: len(storage.Conversations)}
	for _, c := range storage.Conversations {
		stats.TotalMessages += len(c.Messages)
		if t, ok := decodeTimestamp(c.LastUpdated); ok && t.After(stats.LastUpdated) {
			stats.LastUpdated = t
		}
	}
	return stats
}

// Size is the number of bytes the serialized record occupies in the backend.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.backend.Get(StorageKey)
	if err != nil {
		s.logger.Error("ConversationStore", "Failed to measure storage size", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	if !ok {
		return 0
	}
	return len(data)
}

func emptyStorage() chatStorage {
	return chatStorage{
		Version:       StorageVersion,
		Conversations: map[string]StoredConversation{},
	}
}

func (s *Store) readAll() chatStorage {
	data, ok, err := s.backend.Get(StorageKey)
	if err != nil {
		s.logger.Error("ConversationStore", "Failed to read conversations", map[string]interface{}{
			"error": err.Error(),
		})
		return emptyStorage()
	}
	if !ok || len(data) == 0 {
		return emptyStorage()
	}

	var parsed chatStorage
	if err := json.Unmarshal(data, &parsed); err != nil {
		s.logger.Error("ConversationStore", "Stored conversations are corrupt, ignoring them", map[string]interface{}{
			"error": err.Error(),
		})
		return emptyStorage()
	}

	if parsed.Version != StorageVersion {
		s.logger.Info("ConversationStore", "Stored conversations use another format version, starting empty", map[string]interface{}{
			"found":    parsed.Version,
			"expected": StorageVersion,
		})
		return emptyStorage()
	}

	if parsed.Conversations == nil {
		parsed.Conversations = map[string]StoredConversation{}
	}
	return parsed
}

func (s *Store) writeAll(storage chatStorage) error {
	data, err := json.Marshal(storage)
	if err != nil {
		return err
	}
	return s.backend.Set(StorageKey, data)
}

func encodeTimestamp(t time.Time) json.RawMessage {
	return json.RawMessage(strconv.Quote(t.UTC().Format(time.RFC3339Nano)))
}

// decodeTimestamp accepts an RFC3339 string or a number of epoch
// milliseconds. Anything else reports false.
func decodeTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, false
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func (s *Store) parseTimestamp(raw json.RawMessage) time.Time {
	if t, ok := decodeTimestamp(raw); ok {
		return t
	}
	s.logger.Warn("ConversationStore", "Invalid timestamp detected, using current time", map[string]interface{}{
		"timestamp": string(raw),
	})
	return s.now()
}
