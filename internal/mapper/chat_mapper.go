package mapper

import (
	"pdf-chat-client/internal/dto"
	"pdf-chat-client/pkg/conversation"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) MessageToResponse(msg conversation.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		Id:         msg.Id,
		Type:       string(msg.Type),
		Content:    msg.Content,
		Timestamp:  msg.Timestamp,
		DocumentId: msg.DocumentId,
	}
}

func (m *ChatMapper) MessagesToResponse(msgs []conversation.ChatMessage) []dto.ChatMessageResponse {
	out := make([]dto.ChatMessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, m.MessageToResponse(msg))
	}
	return out
}

func (m *ChatMapper) StatsToResponse(s conversation.StorageStats) dto.HistoryStatsResponse {
	res := dto.HistoryStatsResponse{
		ConversationCount: s.ConversationCount,
		TotalMessages:     s.TotalMessages,
	}
	if !s.LastUpdated.IsZero() {
		t := s.LastUpdated
		res.LastUpdated = &t
	}
	return res
}
