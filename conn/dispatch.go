package conn

import (
	"context"
	"log/slog"

	"github.com/AndreKoraleski/Mini-Net/internal/errs"
	golog "github.com/AndreKoraleski/Mini-Net/log"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

// Dispatch classifies an inbound segment and routes it to the right
// internal queue. It is called exclusively by the owning transport's
// single dispatch goroutine and must never block: every queue push here
// goes through an [syncutil.ElasticChan], whose Push never blocks the
// caller on a full buffer.
func (c *Connection) Dispatch(ctx context.Context, seg wire.Segment) {
	switch seg.Classify() {
	case wire.ClassFin:
		ack := wire.Ack(c.local, c.remote.Port, seg.SequenceNumber)
		if err := c.net.Send(ack, c.remote.VIP); err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "failed to ack fin", slog.Any("error", err))
		}
		c.finQ.Push(finItem{seq: seg.SequenceNumber})
		c.dataQ.Push(dataItem{eof: true})

	case wire.ClassSynAck:
		if c.connected.Load() {
			ack := wire.Ack(c.local, c.remote.Port, 0)
			if err := c.net.Send(ack, c.remote.VIP); err != nil {
				c.log.LogAttrs(ctx, slog.LevelWarn, "failed to re-ack syn-ack", slog.Any("error", err))
			}
			c.log.LogAttrs(ctx, slog.LevelDebug, "dropping retransmitted syn-ack")
			return
		}
		c.synAckQ.Push(seg)

	case wire.ClassSyn:
		if c.connected.Load() {
			c.log.LogAttrs(ctx, slog.LevelDebug, "dropping duplicate syn",
				slog.Any("error", errs.ErrDuplicateConnection))
			return
		}
		c.dataQ.Push(dataItem{seg: seg})

	case wire.ClassAck:
		c.ackQ.Push(ackItem{seq: seg.SequenceNumber})

	default:
		c.log.LogAttrs(ctx, slog.LevelDebug, "queued data segment",
			slog.Any("seq", seg.SequenceNumber), slog.Any("data", golog.StringValue(seg.Payload.Data)))
		c.dataQ.Push(dataItem{seg: seg})
	}
}
