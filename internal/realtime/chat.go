package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/quillhq/quill/internal/broadcast"
	"github.com/quillhq/quill/internal/model"
)

// Chat handles /ws/chat. Every text frame is published on the chat channel
// as a MessageEvent; events from other users are relayed back as JSON.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Broker == nil {
		http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}

	username := usernameParam(r)
	logger := s.logger.With("conn_id", uuid.NewString(), "username", username)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := s.cfg.Broker.Subscribe(ctx, broadcast.ChatChannel)
	if err != nil {
		logger.Error("chat subscribe failed", "error", err)
		http.Error(w, "chat is unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	c, err := s.upgrade(w, r, maxTextMessage)
	if err != nil {
		return
	}
	defer c.close()

	logger.Debug("chat joined")
	go s.relay(c, sub, username, logger)

	limiter := rate.NewLimiter(rate.Limit(s.cfg.ChatRate), s.cfg.ChatBurst)
	for {
		text, err := c.readText()
		if err != nil {
			s.logClose("chat", err)
			return
		}
		if !limiter.Allow() {
			s.recorder.IncChatMessage("throttled")
			continue
		}

		payload, _ := json.Marshal(model.MessageEvent{Username: username, Message: text})
		if err := s.cfg.Broker.Publish(ctx, broadcast.ChatChannel, payload); err != nil {
			logger.Error("chat publish failed", "error", err)
			s.recorder.IncChatMessage("failed")
			c.closeWith(websocket.CloseInternalServerErr, "")
			return
		}
		s.recorder.IncChatMessage("published")
	}
}

// relay forwards events from other users until the subscription closes.
func (s *Server) relay(c *conn, sub *broadcast.Subscription, username string, logger *slog.Logger) {
	for payload := range sub.Messages() {
		var event model.MessageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Warn("discarding malformed chat event", "error", err)
			continue
		}
		if event.Username == username {
			continue
		}
		if err := c.writeJSON(event); err != nil {
			return
		}
	}
}
