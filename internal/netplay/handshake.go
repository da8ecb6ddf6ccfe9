package netplay

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrVersionMismatch is returned when the peers speak different protocol versions.
	ErrVersionMismatch = errors.New("netplay: protocol version mismatch")
	// ErrHostConflict is returned unless exactly one peer claims to be the host.
	ErrHostConflict = errors.New("netplay: exactly one peer must host")
)

// Handshake sends local and waits for the peer's Hello.
//
// Precondition: local.Roster is non-empty.
// Postcondition: on success the versions match and exactly one side hosts.
func Handshake(ctx context.Context, c *Conn, local *Hello) (*Hello, error) {
	if local.Version == 0 {
		local.Version = ProtocolVersion
	}
	if err := c.Send(ctx, local); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	m, err := c.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	peer, ok := m.(*Hello)
	if !ok {
		return nil, fmt.Errorf("handshake: %w: got %s", ErrUnexpectedMessage, m.Kind())
	}
	if peer.Version != local.Version {
		return nil, fmt.Errorf("handshake: %w: local %d, peer %d", ErrVersionMismatch, local.Version, peer.Version)
	}
	if peer.Host == local.Host {
		return nil, fmt.Errorf("handshake: %w", ErrHostConflict)
	}
	if len(peer.Roster) == 0 {
		return nil, fmt.Errorf("handshake: %w: peer sent an empty roster", ErrMalformed)
	}
	return peer, nil
}

// SharedSeed returns the host's seed, which both peers battle with.
func SharedSeed(local, peer *Hello) uint64 {
	if local.Host {
		return local.Seed
	}
	return peer.Seed
}
