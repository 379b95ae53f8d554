package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/sirupsen/logrus"
)

// broadcastQueueSize - буфер событий, ожидающих цикла хаба
const broadcastQueueSize = 256

// ErrHubClosed возвращается при публикации после остановки хаба
var ErrHubClosed = errors.New("broadcast hub is closed")

// Relay пересылает события между экземплярами сервиса
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
}

type outbound struct {
	eventType models.EventType
	data      []byte
	// exclude - id сессии, которой событие не отправляется
	exclude string
}

// Hub владеет набором подключённых сессий. Набор меняется только в цикле Run.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}

	sessions       atomic.Int64
	relay          Relay
	originPatterns []string
	logger         *logrus.Logger
}

func NewHub(logger *logrus.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan outbound, broadcastQueueSize),
		done:           make(chan struct{}),
		originPatterns: originPatterns(allowedOrigins),
		logger:         logger,
	}
}

// UseRelay включает пересылку событий жизненного цикла через relay. Вызывать до Run.
func (h *Hub) UseRelay(relay Relay) {
	h.relay = relay
}

// SessionCount - число сессий на этом экземпляре
func (h *Hub) SessionCount() int {
	return int(h.sessions.Load())
}

// Run обрабатывает подключения, отключения и рассылку до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	log := h.logger.WithField("component", "broadcast_hub")
	log.Info("Broadcast hub is running")

	for {
		select {
		case client := <-h.register:
			h.clients[client.ID] = client
			log.WithField("session_id", client.ID).Debug("Session connected")
			h.announcePresence()
		case client := <-h.unregister:
			if h.remove(client) {
				log.WithField("session_id", client.ID).Debug("Session disconnected")
				h.announcePresence()
			}
		case msg := <-h.broadcast:
			h.deliver(msg)
		case <-ctx.Done():
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.updateSessions()
			close(h.done)
			log.Info("Broadcast hub stopped")
			return
		}
	}
}

// Publish рассылает событие всем сессиям. С relay событие уходит в канал,
// а локальные сессии получают его от подписчика.
func (h *Hub) Publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	if h.relay != nil {
		err := h.relay.Publish(ctx, data)
		if err == nil {
			return nil
		}
		h.logger.WithError(err).WithField("event", event.Type).Warn("Relay publish failed, delivering locally")
	}
	return h.enqueue(ctx, outbound{eventType: event.Type, data: data})
}

// Deliver рассылает уже сериализованное событие только локальным сессиям
func (h *Hub) Deliver(ctx context.Context, payload []byte) error {
	var head struct {
		Type models.EventType `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return fmt.Errorf("failed to decode relayed event: %w", err)
	}
	return h.enqueue(ctx, outbound{eventType: head.Type, data: payload})
}

func (h *Hub) publishExcept(ctx context.Context, event models.Event, sessionID string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return h.enqueue(ctx, outbound{eventType: event.Type, data: data, exclude: sessionID})
}

func (h *Hub) enqueue(ctx context.Context, msg outbound) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver не блокируется: сессия с полной очередью отключается
func (h *Hub) deliver(msg outbound) {
	observability.BroadcastEvents.WithLabelValues(string(msg.eventType)).Inc()

	dropped := false
	for id, client := range h.clients {
		if id == msg.exclude {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			h.logger.WithFields(logrus.Fields{
				"component":  "broadcast_hub",
				"session_id": id,
			}).Warn("Session send queue is full, disconnecting")
			h.remove(client)
			dropped = true
		}
	}
	if dropped {
		h.announcePresence()
	}
}

func (h *Hub) remove(client *Client) bool {
	if current, ok := h.clients[client.ID]; !ok || current != client {
		return false
	}
	delete(h.clients, client.ID)
	h.updateSessions()
	close(client.send)
	return true
}

func (h *Hub) announcePresence() {
	h.updateSessions()
	data, err := json.Marshal(models.Event{
		Type: models.EventPresenceChanged,
		Data: models.PresencePayload{Count: len(h.clients)},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal presence event")
		return
	}
	h.deliver(outbound{eventType: models.EventPresenceChanged, data: data})
}

func (h *Hub) updateSessions() {
	h.sessions.Store(int64(len(h.clients)))
	observability.ConnectedSessions.Set(float64(len(h.clients)))
}
