package service

import (
	"context"

	"pdf-chat-client/internal/dto"
	"pdf-chat-client/internal/mapper"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/workspace"
)

type IChatService interface {
	State(ctx context.Context) (*dto.ChatStateResponse, error)
	Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error)
	SelectScope(ctx context.Context, req *dto.SelectScopeRequest) (*dto.SelectScopeResponse, error)
	ClearChat(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	HistoryStats(ctx context.Context) (*dto.HistoryStatsResponse, error)
}

type chatService struct {
	workspace *workspace.Workspace
	mapper    *mapper.ChatMapper
}

func NewChatService(ws *workspace.Workspace, m *mapper.ChatMapper) IChatService {
	return &chatService{
		workspace: ws,
		mapper:    m,
	}
}

func (s *chatService) State(ctx context.Context) (*dto.ChatStateResponse, error) {
	snap, err := s.workspace.Snapshot(document.Query{})
	if err != nil {
		return nil, err
	}
	return &dto.ChatStateResponse{
		ScopeKey: snap.ActiveScope,
		Typing:   snap.Typing,
		Messages: s.mapper.MessagesToResponse(snap.Transcript),
	}, nil
}

// Send returns the stored reply. A failed ask still yields the apology reply
// alongside the error.
func (s *chatService) Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error) {
	reply, err := s.workspace.Send(ctx, req.Question)
	if err != nil && reply.Id == "" {
		return nil, err
	}
	res := s.mapper.MessageToResponse(reply)
	return &res, err
}

func (s *chatService) SelectScope(ctx context.Context, req *dto.SelectScopeRequest) (*dto.SelectScopeResponse, error) {
	changed, err := s.workspace.SelectScope(req.ScopeKey)
	if err != nil {
		return nil, err
	}
	return &dto.SelectScopeResponse{
		ScopeKey: req.ScopeKey,
		Changed:  changed,
	}, nil
}

func (s *chatService) ClearChat(ctx context.Context) error {
	return s.workspace.ClearChat()
}

func (s *chatService) ClearHistory(ctx context.Context) error {
	return s.workspace.ClearHistory()
}

func (s *chatService) HistoryStats(ctx context.Context) (*dto.HistoryStatsResponse, error) {
	res := s.mapper.StatsToResponse(s.workspace.HistoryStats())
	return &res, nil
}
