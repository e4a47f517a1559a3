package ragclient

// ScopeAll asks across every document; the doc_id field is omitted on the wire.
const ScopeAll = "all"

// Document statuses reported by the service.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

type AskRequest struct {
	Question string  `json:"question"`
	DocId    *string `json:"doc_id,omitempty"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type UploadResponse struct {
	Uploaded bool   `json:"uploaded"`
	Message  string `json:"message"`
	DocId    string `json:"doc_id,omitempty"`
}

type DocumentEntry struct {
	DocId      string `json:"doc_id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at"`
	Chunks     int    `json:"chunks"`
	Path       string `json:"path,omitempty"`
	Status     string `json:"status"`
	FileHash   string `json:"file_hash,omitempty"`
	Size       int64  `json:"size"`
	Pages      *int   `json:"pages,omitempty"`
}

type StatusResponse struct {
	Documents       []DocumentEntry `json:"documents"`
	Total           int             `json:"total"`
	ChromaPersisted bool            `json:"chroma_persisted"`
}

// Find returns the entry with docID, if listed.
func (s *StatusResponse) Find(docID string) (DocumentEntry, bool) {
	for _, d := range s.Documents {
		if d.DocId == docID {
			return d, true
		}
	}
	return DocumentEntry{}, false
}

type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	DocId   string `json:"doc_id"`
}
