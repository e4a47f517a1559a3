package service

import (
	"context"
	"encoding/json"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/workspace"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}

// NotificationPublisher hands workspace notifications to the in-process bus.
// It never blocks on consumers, so it is safe to call from the workspace loop.
type NotificationPublisher struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewNotificationPublisher(publisher IPublisherService, log logger.ILogger) *NotificationPublisher {
	return &NotificationPublisher{
		publisher: publisher,
		logger:    log,
	}
}

func (p *NotificationPublisher) Notify(n workspace.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("NotificationPublisher", "Failed to marshal notification", map[string]interface{}{
			"event": n.Event,
			"error": err.Error(),
		})
		return
	}
	if err := p.publisher.Publish(context.Background(), payload); err != nil {
		p.logger.Warn("NotificationPublisher", "Failed to publish notification", map[string]interface{}{
			"event": n.Event,
			"error": err.Error(),
		})
	}
}
