package bootstrap

import (
	"context"

	"pdf-chat-client/internal/config"
	"pdf-chat-client/internal/controller"
	"pdf-chat-client/internal/handler"
	"pdf-chat-client/internal/mapper"
	"pdf-chat-client/internal/metrics"
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/internal/pkg/serverutils"
	"pdf-chat-client/internal/service"
	"pdf-chat-client/internal/websocket"
	"pdf-chat-client/pkg/workspace"

	pktNats "pdf-chat-client/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background services (started by Start)
	Workspace           *workspace.Workspace
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
	closers []func()
	stopHub context.CancelFunc
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			natsPub = pub
		}
	}

	rdb := NewRedisClient(cfg.App.RedisURL, sysLogger)

	store, closeStore, err := NewConversationStore(cfg, rdb, sysLogger)
	if err != nil {
		_ = pubSub.Close()
		return nil, err
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.NotificationTopic, pubSub)
	notifier := service.NewNotificationPublisher(publisherService, sysLogger)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	notificationService := service.NewNotificationService(pubSub, cfg.App.NotificationTopic, wsHub, eventPublisher, wsLogger)

	ws := NewWorkspace(cfg, store, notifier, sysLogger)
	if err := metrics.RegisterPollingGauge(prometheus.DefaultRegisterer, func() int {
		return len(ws.PollingDocuments())
	}); err != nil {
		sysLogger.Warn("Bootstrap", "Failed to register polling gauge", map[string]interface{}{"error": err.Error()})
	}

	documentService := service.NewDocumentService(ws, mapper.NewDocumentMapper())
	chatService := service.NewChatService(ws, mapper.NewChatMapper())

	// 5. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.Keys.JwtSecret)

	return &Container{
		Logger:              sysLogger,
		DocumentController:  controller.NewDocumentController(documentService, auth),
		ChatController:      controller.NewChatController(chatService, auth),
		Workspace:           ws,
		NotificationService: notificationService,
		NotificationHandler: handler.NewNotificationHandler(notificationService, wsHub, cfg.Keys.JwtSecret, wsLogger),
		WebSocketHub:        wsHub,
		pubSub:              pubSub,
		natsPub:             natsPub,
		rdb:                 rdb,
		closers:             []func(){closeStore},
	}, nil
}

// Start runs the hub and the notification consumer, then starts the workspace.
// The consumer subscribes first so the initial load notification is delivered.
func (c *Container) Start(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(ctx)
	c.stopHub = cancel
	go c.WebSocketHub.Run(hubCtx)

	if err := c.NotificationService.Consume(hubCtx); err != nil {
		return err
	}
	return c.Workspace.Start(ctx)
}

// Close stops the workspace first so no notification is published into a
// closed bus.
func (c *Container) Close() {
	c.Workspace.Close()
	if c.stopHub != nil {
		c.stopHub()
	}
	_ = c.pubSub.Close()
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	for _, closeFn := range c.closers {
		closeFn()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
