package dto

import "time"

type ChatMessageResponse struct {
	Id         string    `json:"id"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	DocumentId string    `json:"document_id,omitempty"`
}

type SendMessageRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type SelectScopeRequest struct {
	ScopeKey string `json:"scope_key" validate:"required"`
}

type SelectScopeResponse struct {
	ScopeKey string `json:"scope_key"`
	Changed  bool   `json:"changed"`
}

type ChatStateResponse struct {
	ScopeKey string                `json:"scope_key"`
	Typing   bool                  `json:"typing"`
	Messages []ChatMessageResponse `json:"messages"`
}

type HistoryStatsResponse struct {
	ConversationCount int        `json:"conversation_count"`
	TotalMessages     int        `json:"total_messages"`
	LastUpdated       *time.Time `json:"last_updated,omitempty"`
}
