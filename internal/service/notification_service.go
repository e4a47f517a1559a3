package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"pdf-chat-client/internal/metrics"
	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/events"
	"pdf-chat-client/pkg/workspace"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Broadcast(notification workspace.Notification)
}

// EventPublisher forwards notifications to the external event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

const recentNotificationTTL = 15 * time.Minute

// NotificationService drains the in-process notification topic and fans every
// notification out to websocket clients, the event bus and the recent buffer.
type NotificationService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   NotificationDelivery
	events     EventPublisher
	recent     *cache.Cache
	logger     logger.ILogger
}

// NewNotificationService accepts a nil delivery or event publisher; those
// outputs are skipped.
func NewNotificationService(sub message.Subscriber, topicName string, delivery NotificationDelivery, pub EventPublisher, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		topicName:  topicName,
		delivery:   delivery,
		events:     pub,
		recent:     cache.New(recentNotificationTTL, 2*recentNotificationTTL),
		logger:     log,
	}
}

// Consume subscribes to the topic and processes messages until ctx is done.
func (s *NotificationService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	s.logger.Info("NotificationService", "Notification consumer started", map[string]interface{}{
		"topic": s.topicName,
	})
	return nil
}

func (s *NotificationService) processMessage(ctx context.Context, msg *message.Message) {
	var n workspace.Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		s.logger.Error("NotificationService", "Failed to unmarshal notification", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	metrics.RecordNotification(n)
	s.recent.SetDefault(msg.UUID, n)

	if s.delivery != nil {
		s.delivery.Broadcast(n)
	}

	if s.events != nil {
		evt := events.BaseEvent{
			Type: n.Event,
			Data: map[string]interface{}{
				"level":       string(n.Level),
				"title":       n.Title,
				"description": n.Description,
				"document_id": n.DocumentID,
				"at":          n.At.Format(time.RFC3339Nano),
			},
			OccurredAt: n.At,
		}
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.Warn("NotificationService", "Failed to forward event", map[string]interface{}{
				"event": n.Event,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}

// Recent returns the notifications seen in the last few minutes, newest first.
func (s *NotificationService) Recent(limit int) []workspace.Notification {
	items := s.recent.Items()
	out := make([]workspace.Notification, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(workspace.Notification); ok {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
