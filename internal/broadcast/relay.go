package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRelay публикует события в канал Redis и раздаёт полученные из него локальному хабу
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewRedisRelay(client *redis.Client, channel string, logger *logrus.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", r.channel, err)
	}
	return nil
}

// Run подписывается на канал и передаёт сообщения в hub до отмены ctx
func (r *RedisRelay) Run(ctx context.Context, hub *Hub) error {
	log := r.logger.WithFields(logrus.Fields{
		"component": "broadcast_relay",
		"channel":   r.channel,
	})

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.WithError(err).Warn("Failed to close pubsub")
		}
	}()

	// Ждём подтверждения подписки, чтобы не потерять первые события
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	log.Info("Redis relay is running")

	msgCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				log.Warn("Pubsub channel closed by Redis")
				return nil
			}
			if err := hub.Deliver(ctx, []byte(msg.Payload)); err != nil {
				log.WithError(err).Warn("Failed to deliver relayed event")
			}
		case <-ctx.Done():
			log.Info("Shutting down Redis relay")
			return nil
		}
	}
}
