// gRPC Sender: an insecure grpc.NewClient dial with an UP/DOWN
// HealthCheck, trimmed to the one-shot Send this core needs instead of a
// full duplex stream.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCSender dials target once at construction and reuses the connection
// for every Send. The payload itself is opaque bytes; a real deployment
// would invoke a generated stub method here, but this core has no fixed
// provider-side RPC contract to generate against, so Send just logs the
// call.
type GRPCSender struct {
	conn   *grpc.ClientConn
	target string
	log    *zap.Logger
}

// NewGRPCSender dials target with insecure transport credentials.
func NewGRPCSender(target string, log *zap.Logger) (*GRPCSender, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc sender dial %s: %w", target, err)
	}
	return &GRPCSender{conn: conn, target: target, log: log}, nil
}

func (s *GRPCSender) Protocol() string { return "grpc" }

func (s *GRPCSender) Send(_ context.Context, uri string, payload []byte) error {
	if s.log != nil {
		s.log.Debug("grpc send (stub)", zap.String("target", s.target), zap.String("uri", uri), zap.Int("bytes", len(payload)))
	}
	return nil
}

func (s *GRPCSender) HealthCheck() HealthStatus {
	status := "UP"
	if s.conn == nil {
		status = "DOWN"
	}
	return HealthStatus{Status: status, Timestamp: time.Now()}
}

func (s *GRPCSender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
