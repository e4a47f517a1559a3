package service

import (
	"context"
	"errors"

	"pdf-chat-client/internal/dto"
	"pdf-chat-client/internal/mapper"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/workspace"
)

type IDocumentService interface {
	List(ctx context.Context, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error)
	Show(ctx context.Context, id string) (*dto.DocumentResponse, error)
	Reload(ctx context.Context) (*dto.ListDocumentsResponse, error)
	Upload(ctx context.Context, files []workspace.File) ([]dto.UploadResultResponse, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Download(ctx context.Context, id string) (*dto.DownloadResponse, error)
}

type documentService struct {
	workspace *workspace.Workspace
	mapper    *mapper.DocumentMapper
}

func NewDocumentService(ws *workspace.Workspace, m *mapper.DocumentMapper) IDocumentService {
	return &documentService{
		workspace: ws,
		mapper:    m,
	}
}

func (s *documentService) List(ctx context.Context, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error) {
	sortKey, err := document.ParseSort(req.Sort)
	if err != nil {
		return nil, err
	}
	filter, err := document.ParseFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	snap, err := s.workspace.Snapshot(document.Query{
		Search: req.Search,
		Filter: filter,
		Sort:   sortKey,
	})
	if err != nil {
		return nil, err
	}

	polling := s.workspace.PollingDocuments()
	if polling == nil {
		polling = []string{}
	}
	return &dto.ListDocumentsResponse{
		Documents: s.mapper.DocumentsToResponse(snap.Documents),
		Total:     snap.Total,
		Ready:     len(snap.Ready),
		Loading:   snap.Loading,
		Polling:   polling,
	}, nil
}

func (s *documentService) Show(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	doc, err := s.workspace.Document(id)
	if err != nil {
		return nil, err
	}
	res := s.mapper.DocumentToResponse(doc)
	return &res, nil
}

func (s *documentService) Reload(ctx context.Context) (*dto.ListDocumentsResponse, error) {
	if err := s.workspace.LoadDocuments(ctx); err != nil {
		return nil, err
	}
	return s.List(ctx, &dto.ListDocumentsRequest{})
}

// Upload returns one result per file. Per-file failures live in the results;
// the error is only set when the workspace itself is unavailable.
func (s *documentService) Upload(ctx context.Context, files []workspace.File) ([]dto.UploadResultResponse, error) {
	results := s.workspace.Upload(ctx, files)
	for _, r := range results {
		if errors.Is(r.Err, workspace.ErrClosed) || errors.Is(r.Err, workspace.ErrNotStarted) {
			return nil, r.Err
		}
	}
	return s.mapper.UploadResultsToResponse(results), nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	return s.workspace.Delete(ctx, id)
}

func (s *documentService) DeleteAll(ctx context.Context) error {
	return s.workspace.DeleteAll(ctx)
}

func (s *documentService) Download(ctx context.Context, id string) (*dto.DownloadResponse, error) {
	path, err := s.workspace.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.DownloadResponse{
		DocId: id,
		Path:  path,
	}, nil
}
