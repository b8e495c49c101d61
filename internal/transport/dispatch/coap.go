// CoAP Sender: a plgd-dev/go-coap UDP client, trimmed to POST-and-forget
// since there is no separate Receive path here.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/plgd-dev/go-coap/v3/message"
	udp "github.com/plgd-dev/go-coap/v3/udp"
	client "github.com/plgd-dev/go-coap/v3/udp/client"
)

// CoAPSender dials addr once and POSTs every envelope to the path named
// by a record's uri.
type CoAPSender struct {
	conn *client.Conn
	addr string
}

// NewCoAPSender dials addr over UDP.
func NewCoAPSender(addr string) (*CoAPSender, error) {
	conn, err := udp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("coap sender dial %s: %w", addr, err)
	}
	return &CoAPSender{conn: conn, addr: addr}, nil
}

func (s *CoAPSender) Protocol() string { return "coap" }

func (s *CoAPSender) Send(ctx context.Context, uri string, payload []byte) error {
	if s.conn == nil {
		return fmt.Errorf("coap sender not connected")
	}
	if _, err := s.conn.Post(ctx, uri, message.AppJSON, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("coap sender post %s: %w", uri, err)
	}
	return nil
}

func (s *CoAPSender) HealthCheck() HealthStatus {
	status := "UP"
	if s.conn == nil {
		status = "DOWN"
	}
	return HealthStatus{Status: status, Timestamp: time.Now()}
}

func (s *CoAPSender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
