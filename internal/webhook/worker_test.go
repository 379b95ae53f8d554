package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/critter_connect/internal/config"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newSilentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func testEvent() WebhookEvent {
	return WebhookEvent{
		Event: EventUrgentReport,
		Report: models.UrgentReportNotification{
			ReportID:   "doc-1",
			ReportCode: "WR-ABC-12345",
			Severity:   models.SeverityUrgent,
			Address:    "123 Orchard Road, Singapore 238890",
			PostalCode: "S238890",
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestPublish_PushesToQueue(t *testing.T) {
	client := newTestRedis(t)
	publisher := NewRedisWebhookPublisher(client)

	err := publisher.Publish(context.Background(), testEvent())
	require.NoError(t, err)

	raw, err := client.RPop(context.Background(), webhookQueueKey).Result()
	require.NoError(t, err)
	var got WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "WR-ABC-12345", got.Report.ReportCode)
}

func TestPublish_TrimsOldestEvents(t *testing.T) {
	client := newTestRedis(t)
	publisher := NewRedisWebhookPublisher(client)
	ctx := context.Background()

	for i := 0; i < maxQueuedEvents+5; i++ {
		event := testEvent()
		event.Report.ReportID = "doc-" + strconv.Itoa(i)
		require.NoError(t, publisher.Publish(ctx, event))
	}

	length, err := client.LLen(ctx, webhookQueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(maxQueuedEvents), length)

	// Справа лежит самое старое из оставшихся
	raw, err := client.RPop(ctx, webhookQueueKey).Result()
	require.NoError(t, err)
	var oldest WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &oldest))
	assert.Equal(t, "doc-5", oldest.Report.ReportID)
}

func TestWorker_DeliversSignedPayload(t *testing.T) {
	client := newTestRedis(t)
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		WebhookURL:        server.URL,
		WebhookSecret:     "s3cret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  10 * time.Millisecond,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWebhookWorker(client, newSilentLogger(), cfg)
	worker.popTimeout = 100 * time.Millisecond
	worker.Start(ctx)

	require.NoError(t, NewRedisWebhookPublisher(client).Publish(ctx, testEvent()))

	select {
	case req := <-received:
		body := <-bodies
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, generateHMACSHA256(string(body), "s3cret"), req.Header.Get(SignatureHeader))
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestProcessWebhookEvent_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := &config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 5,
		WebhookBaseDelay:  time.Millisecond,
	}
	worker := NewWebhookWorker(nil, newSilentLogger(), cfg)

	payload, _ := json.Marshal(testEvent())
	worker.processWebhookEvent(context.Background(), testEvent(), string(payload))

	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_NoURLSkips(t *testing.T) {
	worker := NewWebhookWorker(nil, newSilentLogger(), &config.Config{WebhookTimeout: time.Second})

	assert.NotPanics(t, func() {
		worker.processWebhookEvent(context.Background(), testEvent(), "{}")
	})
}
