package mapper

import (
	"pdf-chat-client/internal/dto"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/workspace"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) DocumentToResponse(d document.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		Id:             d.ID(),
		Pending:        d.Ref.Pending,
		Name:           d.Name,
		Size:           d.Size,
		Status:         string(d.Status),
		UploadedAt:     d.UploadedAt,
		Pages:          d.Pages,
		UploadProgress: d.UploadProgress,
	}
}

func (m *DocumentMapper) DocumentsToResponse(docs []document.Document) []dto.DocumentResponse {
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, m.DocumentToResponse(d))
	}
	return out
}

func (m *DocumentMapper) UploadResultsToResponse(results []workspace.UploadResult) []dto.UploadResultResponse {
	out := make([]dto.UploadResultResponse, 0, len(results))
	for _, r := range results {
		item := dto.UploadResultResponse{
			Filename: r.Name,
			DocId:    r.DocID,
			Uploaded: r.Err == nil,
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return out
}
