package handler

import (
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/internal/pkg/serverutils"
	"pdf-chat-client/internal/service"
	internalWS "pdf-chat-client/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

type NotificationHandler struct {
	service   *service.NotificationService
	hub       *internalWS.Hub
	jwtSecret string
	auth      fiber.Handler
	logger    logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		auth:      serverutils.NewJwtMiddleware(jwtSecret),
		logger:    log,
	}
}

// subject validates the handshake token. Browsers cannot set headers on a
// websocket handshake, so the "token" query parameter is accepted too.
func (h *NotificationHandler) subject(c *fiber.Ctx) (string, bool) {
	if h.jwtSecret == "" {
		return "", true
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return "", false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		h.logger.Warn("NotificationHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err})
		return "", false
	}

	sub, _ := token.Claims.GetSubject()
	return sub, true
}

// ServeWs upgrades the request and streams notifications until the peer leaves.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	sub, ok := h.subject(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid or missing token"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"subject": sub})
			internalWS.ServeWs(h.hub, conn, sub)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"subject": sub})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// GetRecent returns the notifications raised in the last few minutes.
func (h *NotificationHandler) GetRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(serverutils.SuccessResponse("Success get notifications", h.service.Recent(limit)))
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Use(h.auth)
	notif.Get("/", h.GetRecent)

	router.Get("/ws", h.ServeWs)
}
