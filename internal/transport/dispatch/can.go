// CAN Sender. Kept as a stub rather than inventing CAN frame semantics
// the runtime has no way to exercise.
//
// TODO: wire a real CAN bus library (e.g. github.com/brutella/can) once a
// provider actually advertises the "can" protocol tag.
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CANSender logs every Send rather than putting bytes on a bus.
type CANSender struct {
	log *zap.Logger
}

// NewCANSender constructs a stub CAN sender.
func NewCANSender(log *zap.Logger) *CANSender { return &CANSender{log: log} }

func (s *CANSender) Protocol() string { return "can" }

func (s *CANSender) Send(_ context.Context, uri string, payload []byte) error {
	if s.log != nil {
		s.log.Debug("can send (stub)", zap.String("uri", uri), zap.Int("bytes", len(payload)))
	}
	return nil
}

func (s *CANSender) HealthCheck() HealthStatus {
	return HealthStatus{Status: "UP", Timestamp: time.Now()}
}

func (s *CANSender) Close() error { return nil }
