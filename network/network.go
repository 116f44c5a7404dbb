// Package network implements the network layer consumed by the transport
// core: a host-side pass-through that delivers segments addressed to the
// local VIP, and a router-side store-and-forward engine that never
// delivers locally.
package network

import (
	"context"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// Network is the interface consumed by the transport core: send is
// best-effort and returns immediately; receive blocks until a segment is
// available for local delivery, or the network is closed.
type Network interface {
	// Send originates a new packet carrying seg, addressed to dst.
	Send(seg wire.Segment, dst address.VIP) error
	// Receive blocks until a segment is available for local delivery.
	// It returns false once the network is closed.
	Receive(ctx context.Context) (wire.Segment, bool)
}

// Link is the interface consumed by the network layer: it moves
// byte-framed packets between directly connected neighbors. Framing,
// CRC, and loss/duplication are the link implementation's concern; see
// internal/netsim for the in-memory fabric used by this repository's
// tests and demo binary.
type Link interface {
	Send(frame []byte, nextHop address.VIP) error
	Receive(ctx context.Context) ([]byte, bool)
}
