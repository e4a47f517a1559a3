package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestClient_ListStatus(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rag/status", r.URL.Path)
		_, _ = io.WriteString(w, `{"documents":[{"doc_id":"d1","filename":"a.pdf","uploaded_at":"2025-01-01T00:00:00","chunks":12,"status":"ready","size":2048,"pages":3}],"total":1,"chroma_persisted":true}`)
	})

	got, err := client.ListStatus(context.Background())

	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	entry, ok := got.Find("d1")
	require.True(t, ok)
	assert.Equal(t, "a.pdf", entry.Filename)
	assert.Equal(t, StatusReady, entry.Status)
	assert.Equal(t, 12, entry.Chunks)
	require.NotNil(t, entry.Pages)
	assert.Equal(t, 3, *entry.Pages)
	_, ok = got.Find("missing")
	assert.False(t, ok)
}

func TestClient_AskOmitsDocIdForAllScope(t *testing.T) {
	tests := []struct {
		name      string
		scopeKey  string
		wantDocID bool
	}{
		{name: "all documents", scopeKey: ScopeAll, wantDocID: false},
		{name: "empty scope", scopeKey: "", wantDocID: false},
		{name: "single document", scopeKey: "d1", wantDocID: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rag/ask", r.URL.Path)
				var raw map[string]interface{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
				assert.Equal(t, "what is it?", raw["question"])
				docID, present := raw["doc_id"]
				assert.Equal(t, tt.wantDocID, present)
				if tt.wantDocID {
					assert.Equal(t, tt.scopeKey, docID)
				}
				_, _ = io.WriteString(w, `{"answer":"42"}`)
			})

			got, err := client.Ask(context.Background(), "what is it?", tt.scopeKey)

			require.NoError(t, err)
			assert.Equal(t, "42", got.Answer)
		})
	}
}

func TestClient_UploadSendsMultipartFile(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "paper.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.7 body", string(content))
		_, _ = io.WriteString(w, `{"uploaded":true,"message":"Upload received; indexing scheduled","doc_id":"srv-1"}`)
	})

	got, err := client.Upload(context.Background(), "paper.pdf", strings.NewReader("%PDF-1.7 body"))

	require.NoError(t, err)
	assert.True(t, got.Uploaded)
	assert.Equal(t, "srv-1", got.DocId)
}

func TestClient_DeleteOne(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rag/documents/d1", r.URL.Path)
		_, _ = io.WriteString(w, `{"deleted":true,"doc_id":"d1"}`)
	})

	got, err := client.DeleteOne(context.Background(), "d1")

	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, "d1", got.DocId)
}

func TestClient_NonSuccessStatusIsAPIError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Document not found"}`)
	})

	_, err := client.DeleteOne(context.Background(), "nope")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Document not found")
}

func TestClient_Download(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/documents/d1/download", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 bytes")
	})

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "d1", &buf)

	require.NoError(t, err)
	assert.Equal(t, int64(len("%PDF-1.4 bytes")), n)
	assert.Equal(t, "%PDF-1.4 bytes", buf.String())
}

func TestClient_UnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.ListStatus(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
