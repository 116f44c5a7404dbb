package network

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/AndreKoraleski/Mini-Net/address"
	golog "github.com/AndreKoraleski/Mini-Net/log"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// HostNetwork is the network-layer collaborator used by a host. It hands
// outbound segments to its single uplink (the first-hop router or
// neighbor), and delivers inbound segments addressed to the local VIP
// up to the transport multiplexer. Unlike [Router] it never forwards.
type HostNetwork struct {
	local   address.VIP
	gateway address.VIP
	link    Link
	log     *slog.Logger
}

// HostOptions configures a [HostNetwork].
type HostOptions struct {
	Log *slog.Logger
}

func (o *HostOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return golog.Default()
	}
	return o.Log
}

// NewHostNetwork creates a host-side network layer that reaches the rest
// of the fabric through gateway, its directly connected neighbor.
func NewHostNetwork(local address.VIP, gateway address.VIP, link Link, opts *HostOptions) *HostNetwork {
	return &HostNetwork{
		local:   local,
		gateway: gateway,
		link:    link,
		log:     opts.log(),
	}
}

// Send originates a packet addressed to dst and hands it to the gateway.
func (n *HostNetwork) Send(seg wire.Segment, dst address.VIP) error {
	pkt := wire.NewPacket(n.local, dst, seg)
	return errtrace.Wrap(n.link.Send(wire.EncodePacket(pkt), n.gateway))
}

// Receive blocks until a segment addressed to the local VIP arrives.
// Frames misdelivered to this host (not addressed to it) are logged and
// discarded; the loop continues until one matches or the link closes.
func (n *HostNetwork) Receive(ctx context.Context) (wire.Segment, bool) {
	for {
		frame, ok := n.link.Receive(ctx)
		if !ok {
			return wire.Segment{}, false
		}

		pkt, err := wire.DecodePacket(frame)
		if err != nil {
			n.log.LogAttrs(ctx, slog.LevelWarn, "discarding malformed frame", slog.Any("error", err))
			continue
		}
		if pkt.DstVIP != n.local {
			n.log.LogAttrs(ctx, slog.LevelWarn, "discarding misdelivered packet",
				slog.String("dst", string(pkt.DstVIP)))
			continue
		}
		return pkt.Segment, true
	}
}
