package network

import (
	"context"
	"log/slog"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/internal/errs"
	"github.com/AndreKoraleski/Mini-Net/internal/syncutil"
	golog "github.com/AndreKoraleski/Mini-Net/log"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// Stats is a point-in-time snapshot of a [Router]'s forwarding counters.
// Router conservation holds: Forwarded + DroppedTTL + DroppedUnknown
// equals the total number of packets ever ingested.
type Stats struct {
	Forwarded      uint64
	DroppedTTL     uint64
	DroppedUnknown uint64
}

// Total returns the sum of all counters.
func (s Stats) Total() uint64 { return s.Forwarded + s.DroppedTTL + s.DroppedUnknown }

// RouterOptions configures a [Router].
type RouterOptions struct {
	Log *slog.Logger
}

func (o *RouterOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return golog.Default()
	}
	return o.Log
}

// Router is the store-and-forward engine: it forwards packets between
// neighbors and never terminates them locally. A single background
// goroutine pulls frames from the link and processes exactly one packet
// per iteration, per §4.1 of the design this implements.
type Router struct {
	link  Link
	local address.VIP
	routes *syncutil.RWMap[address.VIP, address.VIP]
	log   *slog.Logger

	forwarded      atomic.Uint64
	droppedTTL     atomic.Uint64
	droppedUnknown atomic.Uint64
}

// NewRouter creates a router forwarding on link for localVIP using the
// given initial routing table, and starts its background receiver.
func NewRouter(ctx context.Context, link Link, localVIP address.VIP, routes map[address.VIP]address.VIP, opts *RouterOptions) *Router {
	r := &Router{
		link:   link,
		local:  localVIP,
		routes: &syncutil.RWMap[address.VIP, address.VIP]{},
		log:    opts.log(),
	}
	for dst, nextHop := range routes {
		r.routes.Set(dst, nextHop)
	}
	go r.run(ctx)
	return r
}

// SetRoute installs or overwrites the next hop for dst.
func (r *Router) SetRoute(dst, nextHop address.VIP) {
	r.routes.Set(dst, nextHop)
}

// RemoveRoute removes any route for dst.
func (r *Router) RemoveRoute(dst address.VIP) {
	r.routes.Del(dst)
}

// Send originates a new packet with TTL = [wire.DefaultTTL] addressed to
// dst, carrying seg, and transmits it to the next hop. It fails with
// [errs.ErrUnknownDestination] if dst has no routing table entry.
func (r *Router) Send(seg wire.Segment, dst address.VIP) error {
	nextHop, ok := r.routes.Get(dst)
	if !ok {
		return errtrace.Wrap(errs.ErrUnknownDestination)
	}
	pkt := wire.NewPacket(r.local, dst, seg)
	return errtrace.Wrap(r.link.Send(wire.EncodePacket(pkt), nextHop))
}

// Stats returns a snapshot of the forwarding counters. Each field is read
// independently and atomically; the snapshot as a whole is not a single
// atomic operation, matching §5's "reads may be slightly stale" policy.
func (r *Router) Stats() Stats {
	return Stats{
		Forwarded:      r.forwarded.Load(),
		DroppedTTL:     r.droppedTTL.Load(),
		DroppedUnknown: r.droppedUnknown.Load(),
	}
}

func (r *Router) run(ctx context.Context) {
	for {
		frame, ok := r.link.Receive(ctx)
		if !ok {
			return
		}

		pkt, err := wire.DecodePacket(frame)
		if err != nil {
			r.log.LogAttrs(ctx, slog.LevelWarn, "discarding malformed frame", slog.Any("error", err))
			continue
		}
		r.ProcessOne(ctx, pkt)
	}
}

// ProcessOne runs the forwarding algorithm for exactly one packet: TTL is
// checked before decrement, so a packet arriving with ttl<=0 is dropped
// without ever producing a negative TTL on the wire. Exposed directly so
// tests can drive the algorithm without a live link.
func (r *Router) ProcessOne(ctx context.Context, pkt wire.Packet) {
	if pkt.TTL <= 0 {
		r.droppedTTL.Add(1)
		r.log.LogAttrs(ctx, slog.LevelDebug, "dropping packet with expired ttl", slog.String("dst", string(pkt.DstVIP)))
		return
	}
	pkt.TTL--

	nextHop, ok := r.routes.Get(pkt.DstVIP)
	if !ok {
		r.droppedUnknown.Add(1)
		r.log.LogAttrs(ctx, slog.LevelDebug, "dropping packet with unknown destination", slog.String("dst", string(pkt.DstVIP)))
		return
	}

	if err := r.link.Send(wire.EncodePacket(pkt), nextHop); err != nil {
		r.log.LogAttrs(ctx, slog.LevelWarn, "failed to forward packet", slog.Any("error", err))
		return
	}
	r.forwarded.Add(1)
}
