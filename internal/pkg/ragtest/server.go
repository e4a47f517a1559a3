// Package ragtest runs an in-memory document service over HTTP for tests.
package ragtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"pdf-chat-client/pkg/ragclient"
)

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	entries []ragclient.DocumentEntry
	files   map[string][]byte
	nextID  int

	// Answer builds the reply to an ask; nil echoes the question.
	Answer func(question string, docID *string) (string, int)
	// UploadStatus is the status new uploads are listed with.
	UploadStatus string
	Asks         []ragclient.AskRequest
}

func NewServer(entries ...ragclient.DocumentEntry) *Server {
	s := &Server{
		entries:      entries,
		files:        make(map[string][]byte),
		UploadStatus: ragclient.StatusReady,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/rag/status", s.status)
	mux.HandleFunc("/rag/upload", s.upload)
	mux.HandleFunc("/rag/ask", s.ask)
	mux.HandleFunc("/rag/documents/", s.document)
	s.Server = httptest.NewServer(mux)
	return s
}

func ReadyEntry(id, name string) ragclient.DocumentEntry {
	return ragclient.DocumentEntry{
		DocId:      id,
		Filename:   name,
		Status:     ragclient.StatusReady,
		Size:       1024,
		Chunks:     4,
		UploadedAt: "2025-01-01T10:00:00",
	}
}

// Entries returns a copy of what the service currently lists.
func (s *Server) Entries() []ragclient.DocumentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ragclient.DocumentEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Server) AskRequests() []ragclient.AskRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ragclient.AskRequest, len(s.Asks))
	copy(out, s.Asks)
	return out
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	entries := s.Entries()
	writeJSON(w, http.StatusOK, ragclient.StatusResponse{
		Documents:       entries,
		Total:           len(entries),
		ChromaPersisted: true,
	})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	s.mu.Lock()
	s.nextID++
	id := "doc-" + strings.Repeat("u", s.nextID)
	s.entries = append(s.entries, ragclient.DocumentEntry{
		DocId:      id,
		Filename:   header.Filename,
		Status:     s.UploadStatus,
		Size:       int64(len(data)),
		UploadedAt: "2025-01-02T10:00:00",
	})
	s.files[id] = data
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, ragclient.UploadResponse{Uploaded: true, Message: "ok", DocId: id})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req ragclient.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.Asks = append(s.Asks, req)
	answer := s.Answer
	s.mu.Unlock()

	if answer == nil {
		writeJSON(w, http.StatusOK, ragclient.AskResponse{Answer: "echo: " + req.Question})
		return
	}
	text, code := answer(req.Question, req.DocId)
	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"detail": text})
		return
	}
	writeJSON(w, http.StatusOK, ragclient.AskResponse{Answer: text})
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/rag/documents/")
	if id, ok := strings.CutSuffix(rest, "/download"); ok {
		s.download(w, id)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.DocId == rest {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			delete(s.files, rest)
			writeJSON(w, http.StatusOK, ragclient.DeleteResponse{Deleted: true, DocId: rest})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
}

func (s *Server) download(w http.ResponseWriter, id string) {
	s.mu.Lock()
	data, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		data = []byte("%PDF-1.4 stored " + id)
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(data)
}
