// Package conn implements the reliable, stop-and-wait connection that
// runs over an unreliable [network.Network]: three-way handshake,
// alternating-bit chunked data transfer, and four-way teardown.
package conn

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/internal/errs"
	"github.com/AndreKoraleski/Mini-Net/internal/syncutil"
	"github.com/AndreKoraleski/Mini-Net/network"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// Connection is a reliable bytestream between two virtual addresses. It
// owns no goroutine of its own: the caller's goroutine drives connect,
// accept, send, receive and close, while the owning transport's single
// dispatch goroutine delivers inbound segments through [Connection.Dispatch].
type Connection struct {
	local  address.VirtualAddress
	remote address.VirtualAddress
	net    network.Network

	opts *Options
	log  *slog.Logger

	sendSeq atomic.Int32
	recvSeq wire.SeqNum

	connected atomic.Bool
	closed    atomic.Bool

	sendLock  sync.Mutex
	closeLock sync.Mutex

	ackQ    *syncutil.ElasticChan[ackItem]
	synAckQ *syncutil.ElasticChan[wire.Segment]
	finQ    *syncutil.ElasticChan[finItem]
	dataQ   *syncutil.ElasticChan[dataItem]

	onClose     func()
	onCloseOnce sync.Once

	fsmMu sync.Mutex
	sm    *stateless.StateMachine
	state State
}

// New creates a connection between local and remote over net. onClose,
// if non-nil, is invoked exactly once when the connection is fully torn
// down, so the owning transport can remove its table entry.
func New(local, remote address.VirtualAddress, net network.Network, onClose func(), opts *Options) *Connection {
	c := &Connection{
		local:   local,
		remote:  remote,
		net:     net,
		opts:    opts,
		log:     opts.log(),
		ackQ:    syncutil.NewElasticChan[ackItem](),
		synAckQ: syncutil.NewElasticChan[wire.Segment](),
		finQ:    syncutil.NewElasticChan[finItem](),
		dataQ:   syncutil.NewElasticChan[dataItem](),
		onClose: onClose,
	}
	c.sm = newLifecycle(func(s State) { c.state = s })
	return c
}

// Local returns the connection's local endpoint.
func (c *Connection) Local() address.VirtualAddress { return c.local }

// Remote returns the connection's peer endpoint.
func (c *Connection) Remote() address.VirtualAddress { return c.remote }

// Logger satisfies the interface [golog.LoggerFromValues] looks for.
func (c *Connection) Logger() *slog.Logger { return c.log }

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.fsmMu.Lock()
	defer c.fsmMu.Unlock()
	return c.state
}

func (c *Connection) fire(ctx context.Context, t trigger) {
	c.fsmMu.Lock()
	defer c.fsmMu.Unlock()
	fireTrigger(c.sm, ctx, t)
}

func (c *Connection) isClosed() bool { return c.closed.Load() }

// Connect is the active opener: it transmits a SYN, retransmitting
// indefinitely on [Options.Timeout] expiry, until a SYN-ACK arrives, then
// acks it and marks the connection established.
func (c *Connection) Connect(ctx context.Context) error {
	c.fire(ctx, triggerHandshakeStart)

	syn := wire.Syn(c.local, c.remote.Port, 0)
	timer := time.NewTimer(c.opts.timeout())
	defer timer.Stop()

	if err := c.net.Send(syn, c.remote.VIP); err != nil {
		return errtrace.Wrap(err)
	}

	for {
		if c.isClosed() {
			return errtrace.Wrap(errs.ErrConnectionClosed)
		}
		select {
		case <-ctx.Done():
			return errtrace.Wrap(ctx.Err())
		case <-c.synAckQ.Out():
			c.connected.Store(true)
			c.fire(ctx, triggerEstablished)
			ack := wire.Ack(c.local, c.remote.Port, 0)
			return errtrace.Wrap(c.net.Send(ack, c.remote.VIP))
		case <-timer.C:
			c.log.LogAttrs(ctx, slog.LevelDebug, "retransmitting syn", slog.Any("remote", c.remote))
			if err := c.net.Send(syn, c.remote.VIP); err != nil {
				return errtrace.Wrap(err)
			}
			timer.Reset(c.opts.timeout())
		}
	}
}

// Accept is the passive opener: it consumes the inbound SYN already
// delivered to the data queue by the dispatcher, replies with a SYN-ACK,
// retransmitting on timeout, until the peer's ACK arrives.
func (c *Connection) Accept(ctx context.Context) error {
	c.fire(ctx, triggerHandshakeStart)

	var syn wire.Segment
	select {
	case <-ctx.Done():
		return errtrace.Wrap(ctx.Err())
	case item := <-c.dataQ.Out():
		if item.eof {
			return errtrace.Wrap(errs.ErrConnectionClosed)
		}
		syn = item.seg
	}

	synAck := wire.SynAck(c.local, syn.Payload.SrcPort, 0)
	timer := time.NewTimer(c.opts.timeout())
	defer timer.Stop()

	if err := c.net.Send(synAck, c.remote.VIP); err != nil {
		return errtrace.Wrap(err)
	}

	for {
		if c.isClosed() {
			return errtrace.Wrap(errs.ErrConnectionClosed)
		}
		select {
		case <-ctx.Done():
			return errtrace.Wrap(ctx.Err())
		case item := <-c.ackQ.Out():
			if item.abort {
				return errtrace.Wrap(errs.ErrConnectionClosed)
			}
			c.connected.Store(true)
			c.fire(ctx, triggerEstablished)
			return nil
		case <-timer.C:
			c.log.LogAttrs(ctx, slog.LevelDebug, "retransmitting syn-ack", slog.Any("remote", c.remote))
			if err := c.net.Send(synAck, c.remote.VIP); err != nil {
				return errtrace.Wrap(err)
			}
			timer.Reset(c.opts.timeout())
		}
	}
}

// Send splits data into MSS-sized chunks and transmits them in order,
// waiting for the matching ACK before advancing to the next chunk. It
// serializes with any concurrent Send via an internal lock, so a call
// completes atomically with respect to send_sequence.
func (c *Connection) Send(ctx context.Context, data []byte) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if c.isClosed() {
		return errtrace.Wrap(errs.ErrConnectionClosed)
	}
	if !c.connected.Load() {
		return errtrace.Wrap(errs.ErrConnectionNotEstablished)
	}

	chunks := chunkify(data, MSS)
	for i, chunk := range chunks {
		more := i != len(chunks)-1
		seq := wire.SeqNum(c.sendSeq.Load())
		seg := wire.Data(c.local, c.remote.Port, seq, chunk, more)

		if err := c.sendUntilAcked(ctx, seg, seq); err != nil {
			return errtrace.Wrap(err)
		}
		c.sendSeq.Store(int32(seq ^ 1))
	}
	return nil
}

// sendUntilAcked transmits seg, then waits on the ACK queue until an ACK
// matching want arrives. A mismatched ACK is a stale duplicate and is
// discarded without resetting the deadline; on timeout the segment is
// retransmitted and the deadline renewed.
func (c *Connection) sendUntilAcked(ctx context.Context, seg wire.Segment, want wire.SeqNum) error {
	if err := c.net.Send(seg, c.remote.VIP); err != nil {
		return errtrace.Wrap(err)
	}

	timer := time.NewTimer(c.opts.timeout())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return errtrace.Wrap(ctx.Err())
		case item := <-c.ackQ.Out():
			if item.abort {
				return errtrace.Wrap(errs.ErrConnectionClosed)
			}
			if item.seq != want {
				continue
			}
			return nil
		case <-timer.C:
			if err := c.net.Send(seg, c.remote.VIP); err != nil {
				return errtrace.Wrap(err)
			}
			timer.Reset(c.opts.timeout())
		}
	}
}

// Receive reads chunks off the data queue until one with more=false
// arrives, concatenates them, and returns the result. ok is false once
// the connection has reached end-of-stream (peer close or local abort).
func (c *Connection) Receive(ctx context.Context) (data []byte, ok bool) {
	for {
		seg, ok := c.receiveOne(ctx)
		if !ok {
			return nil, false
		}
		data = append(data, seg.Payload.Data...)
		if !seg.Payload.More {
			return data, true
		}
	}
}

func (c *Connection) receiveOne(ctx context.Context) (wire.Segment, bool) {
	for {
		select {
		case <-ctx.Done():
			return wire.Segment{}, false
		case item := <-c.dataQ.Out():
			if item.eof {
				return wire.Segment{}, false
			}
			seg := item.seg

			if seg.SequenceNumber != c.recvSeq {
				reAck := wire.Ack(c.local, c.remote.Port, c.recvSeq^1)
				if err := c.net.Send(reAck, c.remote.VIP); err != nil {
					c.log.LogAttrs(ctx, slog.LevelWarn, "failed to re-ack duplicate segment", slog.Any("error", err))
				}
				continue
			}

			ack := wire.Ack(c.local, c.remote.Port, c.recvSeq)
			if err := c.net.Send(ack, c.remote.VIP); err != nil {
				c.log.LogAttrs(ctx, slog.LevelWarn, "failed to ack segment", slog.Any("error", err))
			}
			c.recvSeq ^= 1
			return seg, true
		}
	}
}

// Close initiates four-way teardown and is idempotent: a second call, or
// a call racing an in-flight Abort, is a no-op. Whether this side is the
// active or passive closer is decided by whether the peer's FIN has
// already been queued by the dispatcher.
// closeLock guards only the idempotency flag and the passive/active
// classification below; it is never held across a network call or a
// queue wait, so a concurrent Abort is free to run the instant this
// section releases it.
func (c *Connection) Close(ctx context.Context) error {
	c.closeLock.Lock()
	if !c.closed.CompareAndSwap(false, true) {
		c.closeLock.Unlock()
		return nil
	}

	passive := false
	select {
	case <-c.finQ.Out():
		passive = true
	default:
	}
	seq := wire.SeqNum(c.sendSeq.Load())
	c.closeLock.Unlock()

	fin := wire.Fin(c.local, c.remote.Port, seq)

	if passive {
		c.fire(ctx, triggerClosePassive)
		c.sendFinUntilAckedOrExhausted(ctx, fin, seq)
		c.finishClose(ctx, triggerClosed)
		return nil
	}

	c.fire(ctx, triggerCloseActive)
	c.sendFinUntilAckedOrExhausted(ctx, fin, seq)

	select {
	case <-c.finQ.Out():
	case <-ctx.Done():
	}
	c.finishClose(ctx, triggerClosed)
	return nil
}

func (c *Connection) sendFinUntilAckedOrExhausted(ctx context.Context, fin wire.Segment, want wire.SeqNum) {
	if err := c.net.Send(fin, c.remote.VIP); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "failed to send fin", slog.Any("error", err))
	}

	timer := time.NewTimer(c.opts.timeout())
	defer timer.Stop()

	for attempt := 1; ; {
		select {
		case <-ctx.Done():
			return
		case item := <-c.ackQ.Out():
			if item.abort || item.seq == want {
				return
			}
		case <-timer.C:
			if attempt >= MaxFinRetries {
				c.log.LogAttrs(ctx, slog.LevelWarn, "fin retransmit limit reached",
					slog.Any("error", errs.ErrRetransmitExhausted))
				return
			}
			attempt++
			if err := c.net.Send(fin, c.remote.VIP); err != nil {
				c.log.LogAttrs(ctx, slog.LevelWarn, "failed to retransmit fin", slog.Any("error", err))
			}
			timer.Reset(c.opts.timeout())
		}
	}
}

// Abort tears the connection down without a handshake, waking any
// in-flight Accept/Send/Receive; an in-flight Connect notices the closed
// flag at its next retransmit timeout. It is idempotent, and a no-op once
// Close has started, so it does not wake a Close already in progress.
func (c *Connection) Abort(ctx context.Context) {
	c.closeLock.Lock()
	won := c.closed.CompareAndSwap(false, true)
	c.closeLock.Unlock()
	if !won {
		return
	}

	c.dataQ.Push(dataItem{eof: true})
	c.ackQ.Push(ackItem{abort: true, seq: wire.SeqNum(c.sendSeq.Load())})
	c.finQ.Push(finItem{abort: true})

	c.finishClose(ctx, triggerAbort)
}

func (c *Connection) finishClose(ctx context.Context, t trigger) {
	c.onCloseOnce.Do(func() {
		c.fire(ctx, t)
		c.ackQ.Close()
		c.synAckQ.Close()
		c.finQ.Close()
		c.dataQ.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
}
