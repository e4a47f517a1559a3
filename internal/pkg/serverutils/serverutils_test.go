package serverutils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdf-chat-client/pkg/ragclient"
	"pdf-chat-client/pkg/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{"validation", &ValidationError{Fields: map[string]string{"Sort": "bad"}}, fiber.StatusBadRequest},
		{"unknown document", fmt.Errorf("show: %w", workspace.ErrUnknownDocument), fiber.StatusNotFound},
		{"duplicate name", workspace.ErrDuplicateName, fiber.StatusConflict},
		{"pending document", workspace.ErrDocumentPending, fiber.StatusConflict},
		{"not a pdf", fmt.Errorf("a.txt: %w", workspace.ErrNotPDF), fiber.StatusUnsupportedMediaType},
		{"empty question", workspace.ErrEmptyQuestion, fiber.StatusUnprocessableEntity},
		{"nothing ready", workspace.ErrNoReadyDocuments, fiber.StatusUnprocessableEntity},
		{"closed", workspace.ErrClosed, fiber.StatusServiceUnavailable},
		{"remote api error", fmt.Errorf("ask: %w", &ragclient.APIError{Op: "ask", StatusCode: 500}), fiber.StatusBadGateway},
		{"upload rejected", fmt.Errorf("%w: too big", workspace.ErrUploadRejected), fiber.StatusBadGateway},
		{"anything else", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Question string `validate:"required,max=5"`
		Sort     string `validate:"omitempty,oneof=name date"`
	}

	assert.NoError(t, ValidateRequest(req{Question: "hi", Sort: "name"}))

	err := ValidateRequest(req{Question: "too long", Sort: "size"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at most 5 characters", verr.Fields["Question"])
	assert.Equal(t, "must be one of [name date]", verr.Fields["Sort"])
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error { return workspace.ErrUnknownDocument })
	app.Get("/ok", func(ctx *fiber.Ctx) error { return ctx.JSON(SuccessResponse("fine", 1)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJwtMiddleware(t *testing.T) {
	newApp := func(secret string) *fiber.App {
		app := fiber.New()
		app.Use(NewJwtMiddleware(secret))
		app.Get("/", func(ctx *fiber.Ctx) error {
			sub, _ := ctx.Locals("subject").(string)
			return ctx.SendString(sub)
		})
		return app
	}

	resp, err := newApp("").Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app := newApp("secret")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+wrongAlg)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
