// Serial Sender: a go.bug.st/serial port, opened once at construction;
// uri is unused since a serial port has one fixed endpoint rather than
// an addressable uri space.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialSender writes every envelope to a single open serial port.
type SerialSender struct {
	port     serial.Port
	portName string
}

// NewSerialSender opens portName at baudRate.
func NewSerialSender(portName string, baudRate int) (*SerialSender, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("serial sender open %s: %w", portName, err)
	}
	return &SerialSender{port: port, portName: portName}, nil
}

func (s *SerialSender) Protocol() string { return "serial" }

func (s *SerialSender) Send(_ context.Context, _ string, payload []byte) error {
	if s.port == nil {
		return fmt.Errorf("serial sender not connected")
	}
	if _, err := s.port.Write(payload); err != nil {
		return fmt.Errorf("serial sender write %s: %w", s.portName, err)
	}
	return nil
}

func (s *SerialSender) HealthCheck() HealthStatus {
	status := "UP"
	if s.port == nil {
		status = "DOWN"
	}
	return HealthStatus{Status: status, Timestamp: time.Now()}
}

func (s *SerialSender) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
