package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/shop_admin/internal/logging"
)

const sideEffectTimeout = 5 * time.Second

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish never fails the caller; a lost event is logged.
func publish(ctx context.Context, pub EventPublisher, topic, key string, event any) {
	if pub == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := pub.PublishEvent(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}
