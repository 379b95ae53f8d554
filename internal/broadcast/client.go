package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// sendChannelSize - сколько сообщений может ждать отправки одной сессии
	sendChannelSize = 16
	pingPeriod      = 54 * time.Second
	writeWait       = 10 * time.Second
)

// Входящие сообщения сессии
const (
	messageAcceptReport   = "accept-report"
	messageUpdateLocation = "update-location"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type acceptReportData struct {
	ReportID      string `json:"reportId"`
	VolunteerName string `json:"volunteerName"`
}

type locationData struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Client - одна сессия панели мониторинга
type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *logrus.Entry
}

// ServeWS принимает websocket-подключение и держит его до отключения клиента
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to accept websocket connection")
		return
	}

	id := uuid.NewString()
	client := &Client{
		ID:   id,
		conn: conn,
		hub:  h,
		send: make(chan []byte, sendChannelSize),
		logger: h.logger.WithFields(logrus.Fields{
			"component":  "broadcast_client",
			"session_id": id,
		}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	case <-r.Context().Done():
		_ = conn.CloseNow()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.CloseNow()
	}()

	for {
		var msg inboundMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				c.logger.WithError(err).Debug("Failed to read message")
			}
			return
		}
		c.handleMessage(ctx, msg)
	}
}

// writePump единственный пишет в соединение; закрытие send хабом завершает сессию
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.write(ctx, data); err != nil {
				c.logger.WithError(err).Debug("Failed to write message")
				_ = c.conn.CloseNow()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.WithError(err).Debug("Failed to ping session")
				_ = c.conn.CloseNow()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *Client) handleMessage(ctx context.Context, msg inboundMessage) {
	switch msg.Type {
	case messageAcceptReport:
		var data acceptReportData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.ReportID == "" {
			c.logger.WithError(err).Warn("Invalid accept-report message")
			return
		}
		err := c.hub.Publish(ctx, models.Event{
			Type: models.EventReportAccepted,
			Data: models.ReportAcceptedPayload{
				ReportID:      data.ReportID,
				VolunteerID:   c.ID,
				VolunteerName: data.VolunteerName,
			},
		})
		if err != nil {
			c.logger.WithError(err).Warn("Failed to broadcast report acceptance")
		}
	case messageUpdateLocation:
		var data locationData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.logger.WithError(err).Warn("Invalid update-location message")
			return
		}
		err := c.hub.publishExcept(ctx, models.Event{
			Type: models.EventVolunteerLocated,
			Data: models.VolunteerLocationPayload{SessionID: c.ID, Lat: data.Lat, Lng: data.Lng},
		}, c.ID)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to broadcast volunteer location")
		}
	default:
		c.logger.WithField("type", msg.Type).Debug("Received unknown message type")
	}
}

// originPatterns переводит разрешённые origin из конфигурации в шаблоны хостов
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			patterns = append(patterns, origin)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
