// Package transport implements the reliable-connection multiplexer: it
// demultiplexes inbound segments from one [network.Network] to the
// per-connection state machines in [github.com/AndreKoraleski/Mini-Net/conn],
// and offers the listen/connect surface applications use.
package transport

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/conn"
	"github.com/AndreKoraleski/Mini-Net/internal/errs"
	"github.com/AndreKoraleski/Mini-Net/internal/syncutil"
	"github.com/AndreKoraleski/Mini-Net/network"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// ReliableTransport demultiplexes a network's inbound segments to
// per-connection endpoints, keyed by (remote VIP, remote port, local
// port). It owns exactly one background dispatch goroutine; connections
// themselves have none.
type ReliableTransport struct {
	local address.VIP
	net   network.Network
	opts  *Options
	log   *slog.Logger

	table  *syncutil.RWMap[address.ConnectionKey, *conn.Connection]
	accept *syncutil.ElasticChan[*conn.Connection]

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
	closeOnce sync.Once
}

// New creates a transport bound to localVIP over net and starts its
// dispatch goroutine.
func New(ctx context.Context, localVIP address.VIP, net network.Network, opts *Options) *ReliableTransport {
	dispatchCtx, cancel := context.WithCancel(ctx)
	t := &ReliableTransport{
		local:  localVIP,
		net:    net,
		opts:   opts,
		log:    opts.log(),
		table:  &syncutil.RWMap[address.ConnectionKey, *conn.Connection]{},
		accept: syncutil.NewElasticChan[*conn.Connection](),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run(dispatchCtx)
	return t
}

// Connect registers a new connection to destination bound to localPort
// and returns it immediately. It does not itself run the handshake: the
// caller drives that by calling Connect on the returned connection. A
// second registration under the same key silently overwrites the first
// (last-writer-wins; double-connect on one key is unsupported).
func (t *ReliableTransport) Connect(destination address.VirtualAddress, localPort address.Port) (*conn.Connection, error) {
	if t.closed.Load() {
		return nil, errtrace.Wrap(errs.ErrTransportClosed)
	}

	local := address.VirtualAddress{VIP: t.local, Port: localPort}
	key := address.NewConnectionKey(destination, localPort)

	c := conn.New(local, destination, t.net, func() { t.table.Del(key) }, t.opts.connOptions())
	t.table.Set(key, c)
	return c, nil
}

// Accept blocks until an inbound connection has been registered by the
// dispatch goroutine, and returns it in FIFO order with respect to
// registration.
func (t *ReliableTransport) Accept(ctx context.Context) (*conn.Connection, error) {
	select {
	case c := <-t.accept.Out():
		return c, nil
	case <-t.done:
		return nil, errtrace.Wrap(errs.ErrTransportClosed)
	case <-ctx.Done():
		return nil, errtrace.Wrap(ctx.Err())
	}
}

func (t *ReliableTransport) run(ctx context.Context) {
	defer t.wg.Done()
	for {
		seg, ok := t.net.Receive(ctx)
		if !ok {
			return
		}
		t.route(ctx, seg)
	}
}

// route implements the multiplexer's dispatch rule: an existing
// connection gets the segment; a stray ACK or FIN with no connection is
// dropped; anything else (SYN or data) originates a new connection,
// inserted with the table's atomic GetOrSet so a connection a racing
// Connect registered after the lookup is kept and receives the segment.
// A Connect that registers after the insert overwrites the new entry
// (Connect is last-writer-wins).
func (t *ReliableTransport) route(ctx context.Context, seg wire.Segment) {
	remote := seg.SrcAddr()
	key := address.NewConnectionKey(remote, seg.Payload.DstPort)

	if c, ok := t.table.Get(key); ok {
		c.Dispatch(ctx, seg)
		return
	}

	if seg.IsAck || seg.Payload.Fin {
		t.log.LogAttrs(ctx, slog.LevelDebug, "dropping segment for unknown connection", slog.Any("key", key))
		return
	}

	local := address.VirtualAddress{VIP: t.local, Port: seg.Payload.DstPort}
	candidate := conn.New(local, remote, t.net, func() { t.table.Del(key) }, t.opts.connOptions())

	owner, alreadyRegistered := t.table.GetOrSet(key, candidate)
	if alreadyRegistered {
		t.log.LogAttrs(ctx, slog.LevelDebug, "connection raced into existence for key", slog.Any("key", key))
		owner.Dispatch(ctx, seg)
		return
	}

	candidate.Dispatch(ctx, seg)
	t.accept.Push(candidate)
}

// Close stops the dispatch goroutine and aborts every live connection so
// no caller is left blocked forever. It is idempotent.
func (t *ReliableTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.done)
		t.cancel()
		t.wg.Wait()

		ctx := context.Background()
		for key, c := range t.table.All() {
			c.Abort(ctx)
			t.table.Del(key)
		}
		t.accept.Close()
	})
	return nil
}
