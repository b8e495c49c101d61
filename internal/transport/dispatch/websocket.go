// WebSocket Sender: a gorilla/websocket client, dialing short-lived per
// Send rather than running a stateful server that fans a message out to
// many registered clients, since a provider callback uri here names one
// endpoint rather than a persistent broadcast channel.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketSender dials uri fresh for every Send and writes one text
// frame, then closes. HealthCheck reports UP unconditionally since there
// is no persistent connection to probe between sends.
type WebSocketSender struct {
	log    *zap.Logger
	dialer *websocket.Dialer
}

// NewWebSocketSender constructs a WebSocketSender with the default dialer.
func NewWebSocketSender(log *zap.Logger) *WebSocketSender {
	return &WebSocketSender{log: log, dialer: websocket.DefaultDialer}
}

func (s *WebSocketSender) Protocol() string { return "websocket" }

func (s *WebSocketSender) Send(ctx context.Context, uri string, payload []byte) error {
	conn, _, err := s.dialer.DialContext(ctx, uri, nil)
	if err != nil {
		return fmt.Errorf("websocket sender dial %s: %w", uri, err)
	}
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("websocket sender write %s: %w", uri, err)
	}
	if s.log != nil {
		s.log.Debug("websocket send", zap.String("uri", uri), zap.Int("bytes", len(payload)))
	}
	return nil
}

func (s *WebSocketSender) HealthCheck() HealthStatus {
	return HealthStatus{Status: "UP", Timestamp: time.Now()}
}

func (s *WebSocketSender) Close() error { return nil }
