package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for any non-2xx answer from the service.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the remote document question-answering service.
// Every call is one request/response exchange and never retries.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListStatus returns every document known to the service with its processing status.
func (c *Client) ListStatus(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.doJSON(ctx, "list status", http.MethodGet, "/rag/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends one PDF as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rag/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out UploadResponse
	if err := c.send(req, "upload", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOne removes a document and its index entries on the service.
func (c *Client) DeleteOne(ctx context.Context, docID string) (*DeleteResponse, error) {
	var out DeleteResponse
	path := "/rag/documents/" + url.PathEscape(docID)
	if err := c.doJSON(ctx, "delete document", http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask sends a question scoped to one document, or to all of them when
// scopeKey is ScopeAll or empty.
func (c *Client) Ask(ctx context.Context, question, scopeKey string) (*AskResponse, error) {
	payload := AskRequest{Question: question}
	if scopeKey != "" && scopeKey != ScopeAll {
		docID := scopeKey
		payload.DocId = &docID
	}

	var out AskResponse
	if err := c.doJSON(ctx, "ask", http.MethodPost, "/rag/ask", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download streams the original file bytes of docID into w.
func (c *Client) Download(ctx context.Context, docID string, w io.Writer) (int64, error) {
	path := "/rag/documents/" + url.PathEscape(docID) + "/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, &APIError{Op: "download", StatusCode: resp.StatusCode, Body: string(body)}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read download body: %w", err)
	}
	return n, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out interface{}) error {
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", op, err)
	}
	return nil
}
