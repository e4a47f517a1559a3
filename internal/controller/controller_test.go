package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-chat-client/internal/dto"
	"pdf-chat-client/internal/mapper"
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/internal/pkg/ragtest"
	"pdf-chat-client/internal/pkg/serverutils"
	"pdf-chat-client/internal/service"
	"pdf-chat-client/pkg/conversation"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/ragclient"
	"pdf-chat-client/pkg/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type testApp struct {
	app *fiber.App
	ws  *workspace.Workspace
	srv *ragtest.Server
}

func newTestApp(t *testing.T, srv *ragtest.Server, secret string) *testApp {
	t.Helper()
	store := conversation.NewStore(conversation.NewMemoryBackend(), logger.NewNopLogger())
	cfg := workspace.DefaultConfig()
	cfg.Poller = document.PollerConfig{InitialDelay: time.Millisecond, Interval: time.Millisecond, MaxAttempts: 5}
	cfg.ProgressTick = time.Millisecond
	cfg.DownloadDir = t.TempDir()

	ws := workspace.New(ragclient.NewClient(srv.URL, 5*time.Second), store, nil, cfg, logger.NewNopLogger())
	require.NoError(t, ws.Start(context.Background()))
	t.Cleanup(ws.Close)
	t.Cleanup(srv.Close)

	auth := serverutils.NewJwtMiddleware(secret)
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewDocumentController(service.NewDocumentService(ws, mapper.NewDocumentMapper()), auth).RegisterRoutes(api)
	NewChatController(service.NewChatService(ws, mapper.NewChatMapper()), auth).RegisterRoutes(api)

	return &testApp{app: app, ws: ws, srv: srv}
}

func (a *testApp) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(method, path string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents/v1", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDocumentController_List(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(
		ragtest.ReadyEntry("doc-1", "zeta.pdf"),
		ragtest.ReadyEntry("doc-2", "alpha.pdf"),
	), "")

	code, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/v1?sort=name", nil))
	require.Equal(t, http.StatusOK, code)

	var res envelope[dto.ListDocumentsResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	require.Len(t, res.Data.Documents, 2)
	assert.Equal(t, "alpha.pdf", res.Data.Documents[0].Name)
	assert.Equal(t, 2, res.Data.Ready)
}

func TestDocumentController_ListRejectsBadQuery(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(), "")

	code, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/v1?sort=colour", nil))
	assert.Equal(t, http.StatusBadRequest, code)

	var res envelope[any]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Sort")
}

func TestDocumentController_UploadAndShow(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(), "")

	code, body := a.do(t, uploadRequest(t, map[string][]byte{"paper.pdf": pdfBytes}))
	require.Equal(t, http.StatusOK, code)

	var res envelope[[]dto.UploadResultResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Data, 1)
	require.True(t, res.Data[0].Uploaded)
	id := res.Data[0].DocId

	a.ws.WaitPolls()
	code, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/v1/"+id, nil))
	require.Equal(t, http.StatusOK, code)
	var doc envelope[dto.DocumentResponse]
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "paper.pdf", doc.Data.Name)
	assert.Equal(t, "ready", doc.Data.Status)
}

func TestDocumentController_UploadWithoutFiles(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(), "")

	code, _ := a.do(t, uploadRequest(t, map[string][]byte{}))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDocumentController_ShowUnknown(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(), "")

	code, _ := a.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/v1/missing", nil))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDocumentController_DeleteAndDeleteAll(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(
		ragtest.ReadyEntry("doc-1", "one.pdf"),
		ragtest.ReadyEntry("doc-2", "two.pdf"),
		ragtest.ReadyEntry("doc-3", "three.pdf"),
	), "")

	code, _ := a.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/v1/doc-1", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, a.srv.Entries(), 2)

	code, _ = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/documents/v1", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, a.srv.Entries())

	snap, err := a.ws.Snapshot(document.Query{})
	require.NoError(t, err)
	assert.Zero(t, snap.Total)
}

func TestDocumentController_Download(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(ragtest.ReadyEntry("doc-1", "report.pdf")), "")

	code, body := a.do(t, httptest.NewRequest(http.MethodPost, "/api/documents/v1/doc-1/download", nil))
	require.Equal(t, http.StatusOK, code)

	var res envelope[dto.DownloadResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, strings.HasSuffix(res.Data.Path, "report.pdf"))
}

func TestChatController_SendAndState(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(ragtest.ReadyEntry("doc-1", "report.pdf")), "")

	code, _ := a.do(t, jsonRequest(http.MethodPut, "/api/chat/v1/scope", dto.SelectScopeRequest{ScopeKey: "doc-1"}))
	require.Equal(t, http.StatusOK, code)

	code, body := a.do(t, jsonRequest(http.MethodPost, "/api/chat/v1/messages", dto.SendMessageRequest{Question: "Summarize"}))
	require.Equal(t, http.StatusOK, code)
	var reply envelope[dto.ChatMessageResponse]
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "echo: Summarize", reply.Data.Content)

	code, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/chat/v1", nil))
	require.Equal(t, http.StatusOK, code)
	var state envelope[dto.ChatStateResponse]
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "doc-1", state.Data.ScopeKey)
	assert.Len(t, state.Data.Messages, 2)

	code, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/chat/v1/history/stats", nil))
	require.Equal(t, http.StatusOK, code)
	var stats envelope[dto.HistoryStatsResponse]
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 2, stats.Data.TotalMessages)

	code, _ = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/chat/v1/history", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, a.ws.HistoryStats().ConversationCount)
}

func TestChatController_SendErrors(t *testing.T) {
	tests := []struct {
		name     string
		entries  []ragclient.DocumentEntry
		answer   func(string, *string) (string, int)
		question string
		wantCode int
		wantData bool
	}{
		{name: "missing question", entries: []ragclient.DocumentEntry{ragtest.ReadyEntry("doc-1", "a.pdf")}, question: "", wantCode: http.StatusBadRequest},
		{name: "blank question", entries: []ragclient.DocumentEntry{ragtest.ReadyEntry("doc-1", "a.pdf")}, question: "   ", wantCode: http.StatusUnprocessableEntity},
		{name: "no ready documents", question: "hello", wantCode: http.StatusUnprocessableEntity},
		{
			name:     "service failure returns apology",
			entries:  []ragclient.DocumentEntry{ragtest.ReadyEntry("doc-1", "a.pdf")},
			answer:   func(string, *string) (string, int) { return "down", http.StatusServiceUnavailable },
			question: "hello",
			wantCode: http.StatusBadGateway,
			wantData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := ragtest.NewServer(tt.entries...)
			srv.Answer = tt.answer
			a := newTestApp(t, srv, "")

			code, body := a.do(t, jsonRequest(http.MethodPost, "/api/chat/v1/messages", dto.SendMessageRequest{Question: tt.question}))
			assert.Equal(t, tt.wantCode, code)

			var res envelope[*dto.ChatMessageResponse]
			require.NoError(t, json.Unmarshal(body, &res))
			assert.False(t, res.Success)
			if tt.wantData {
				require.NotNil(t, res.Data)
				assert.Equal(t, "ai", res.Data.Type)
			} else {
				assert.Nil(t, res.Data)
			}
		})
	}
}

func TestChatController_SelectScopeErrors(t *testing.T) {
	a := newTestApp(t, ragtest.NewServer(ragtest.ReadyEntry("doc-1", "a.pdf")), "")

	code, _ := a.do(t, jsonRequest(http.MethodPut, "/api/chat/v1/scope", dto.SelectScopeRequest{ScopeKey: "nope"}))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, jsonRequest(http.MethodPut, "/api/chat/v1/scope", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, jsonRequest(http.MethodPut, "/api/chat/v1/scope", dto.SelectScopeRequest{ScopeKey: conversation.AllDocuments}))
	require.Equal(t, http.StatusOK, code)
	var res envelope[dto.SelectScopeResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Data.Changed)
}

func TestRoutes_RequireTokenWhenSecretSet(t *testing.T) {
	const secret = "test-secret"
	a := newTestApp(t, ragtest.NewServer(), secret)

	code, _ := a.do(t, httptest.NewRequest(http.MethodGet, "/api/documents/v1", nil))
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/v1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	code, _ = a.do(t, req)
	assert.Equal(t, http.StatusOK, code)

	bad := httptest.NewRequest(http.MethodGet, "/api/chat/v1", nil)
	bad.Header.Set("Authorization", "Bearer not-a-token")
	code, _ = a.do(t, bad)
	assert.Equal(t, http.StatusUnauthorized, code)
}
