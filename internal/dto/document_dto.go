package dto

import "time"

type DocumentResponse struct {
	Id             string    `json:"id"`
	Pending        bool      `json:"pending"`
	Name           string    `json:"name"`
	Size           int64     `json:"size"`
	Status         string    `json:"status"`
	UploadedAt     time.Time `json:"uploaded_at"`
	Pages          *int      `json:"pages,omitempty"`
	UploadProgress *int      `json:"upload_progress,omitempty"`
}

type ListDocumentsRequest struct {
	Search string `query:"search" validate:"max=200"`
	Filter string `query:"filter" validate:"omitempty,oneof=all ready processing failed"`
	Sort   string `query:"sort" validate:"omitempty,oneof=name date size status"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
	Ready     int                `json:"ready"`
	Loading   bool               `json:"loading"`
	Polling   []string           `json:"polling"`
}

type UploadResultResponse struct {
	Filename string `json:"filename"`
	DocId    string `json:"doc_id,omitempty"`
	Uploaded bool   `json:"uploaded"`
	Error    string `json:"error,omitempty"`
}

type DownloadResponse struct {
	DocId string `json:"doc_id"`
	Path  string `json:"path"`
}
