package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/critter_connect/internal/models"
)

const (
	webhookQueueKey = "critter_connect:webhook_events"
	// maxQueuedEvents ограничивает очередь, если воркер не успевает или не запущен
	maxQueuedEvents = 1000

	EventUrgentReport = "urgent-report"
)

// WebhookEvent - уведомление о срочном отчёте, как оно лежит в очереди и уходит получателю
type WebhookEvent struct {
	Event     string                          `json:"event"`
	Report    models.UrgentReportNotification `json:"report"`
	Timestamp time.Time                       `json:"timestamp"`
}

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH слева, воркер забирает справа через BRPOP; LTRIM отбрасывает самые старые
	_, err = p.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, webhookQueueKey, payload)
		pipe.LTrim(ctx, webhookQueueKey, 0, maxQueuedEvents-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s webhook for report %s: %w", event.Event, event.Report.ReportID, err)
	}
	return nil
}
