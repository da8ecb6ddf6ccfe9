package netplay

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

//go:generate go tool mockgen -destination=./mocks/transport_mock.go -package=mocks . Transport

// Transport moves opaque frames between the two peers of a linked battle.
// Delivery and retries are the transport's concern; Conn never retries.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Conn exchanges typed messages over a Transport.
//
// Invariant: t is non-nil.
type Conn struct {
	t      Transport
	logger *zap.Logger
}

// NewConn wraps t.
//
// Precondition: t must not be nil. A nil logger is replaced with zap.NewNop().
func NewConn(t Transport, logger *zap.Logger) *Conn {
	if t == nil {
		panic("netplay.NewConn: transport must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{t: t, logger: logger}
}

// Send encodes and writes m.
func (c *Conn) Send(ctx context.Context, m Message) error {
	b, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := c.t.Write(ctx, b); err != nil {
		return fmt.Errorf("sending %s: %w", m.Kind(), err)
	}
	c.logger.Debug("netplay sent", zap.Stringer("kind", m.Kind()), zap.Int("bytes", len(b)))
	return nil
}

// Receive reads and decodes the next message.
func (c *Conn) Receive(ctx context.Context) (Message, error) {
	b, err := c.t.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiving: %w", err)
	}
	m, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("netplay received", zap.Stringer("kind", m.Kind()), zap.Int("bytes", len(b)))
	return m, nil
}

// Close closes the transport.
func (c *Conn) Close() error {
	return c.t.Close()
}
