// BLE Sender. Kept as a stub for the same reason as the CAN sender: this
// runtime has no BLE-advertising provider in its reference deployment to
// drive a real BLE stack against.
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BLESender logs every Send rather than writing a GATT characteristic.
type BLESender struct {
	log *zap.Logger
}

// NewBLESender constructs a stub BLE sender.
func NewBLESender(log *zap.Logger) *BLESender { return &BLESender{log: log} }

func (s *BLESender) Protocol() string { return "ble" }

func (s *BLESender) Send(_ context.Context, uri string, payload []byte) error {
	if s.log != nil {
		s.log.Debug("ble send (stub)", zap.String("uri", uri), zap.Int("bytes", len(payload)))
	}
	return nil
}

func (s *BLESender) HealthCheck() HealthStatus {
	return HealthStatus{Status: "UP", Timestamp: time.Now()}
}

func (s *BLESender) Close() error { return nil }
