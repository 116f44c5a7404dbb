// Package wire defines the transport- and network-layer wire shapes
// (segments and packets) and their byte-level encoding.
package wire

import "github.com/AndreKoraleski/Mini-Net/address"

// SeqNum is an alternating-bit sequence number, always 0 or 1.
type SeqNum uint8

// SegmentPayload carries everything a [Segment] needs beyond its
// sequence number and ack flag: the sender's return address, the
// destination port, optional control flags, and data.
type SegmentPayload struct {
	SrcVIP   address.VIP
	SrcPort  address.Port
	DstPort  address.Port
	Data     []byte
	Syn      bool
	Fin      bool
	More     bool
}

// Segment is the transport-layer PDU. Exactly one of the control
// classifications {pure-SYN, SYN-ACK, pure-ACK, FIN, data} applies to a
// segment once interpreted: see [Segment.Classify].
type Segment struct {
	SequenceNumber SeqNum
	IsAck          bool
	Payload        SegmentPayload
}

// Class is the dispatch classification of an inbound segment.
type Class int

const (
	ClassData Class = iota
	ClassFin
	ClassSynAck
	ClassSyn
	ClassAck
)

// Classify returns the dispatch classification for s, per the
// connection's dispatch table: FIN beats everything else, then SYN
// (with or without ack), then plain ACK, then data.
func (s Segment) Classify() Class {
	switch {
	case s.Payload.Fin:
		return ClassFin
	case s.Payload.Syn && s.IsAck:
		return ClassSynAck
	case s.Payload.Syn && !s.IsAck:
		return ClassSyn
	case s.IsAck:
		return ClassAck
	default:
		return ClassData
	}
}

// SrcAddr returns the segment's source endpoint.
func (s Segment) SrcAddr() address.VirtualAddress {
	return address.VirtualAddress{VIP: s.Payload.SrcVIP, Port: s.Payload.SrcPort}
}

// Syn builds a pure-SYN segment (is_ack=false). dstPort is carried in
// the payload so the peer's multiplexer can key the new connection by
// (src_vip, src_port, dst_port) exactly like every later segment.
func Syn(local address.VirtualAddress, dstPort address.Port, seq SeqNum) Segment {
	return Segment{
		SequenceNumber: seq,
		IsAck:          false,
		Payload: SegmentPayload{
			SrcVIP:  local.VIP,
			SrcPort: local.Port,
			DstPort: dstPort,
			Syn:     true,
		},
	}
}

// SynAck builds a SYN-ACK segment (is_ack=true, syn=true).
func SynAck(local address.VirtualAddress, dstPort address.Port, seq SeqNum) Segment {
	return Segment{
		SequenceNumber: seq,
		IsAck:          true,
		Payload: SegmentPayload{
			SrcVIP:  local.VIP,
			SrcPort: local.Port,
			DstPort: dstPort,
			Syn:     true,
		},
	}
}

// Ack builds a pure-ACK segment for the given sequence number.
func Ack(local address.VirtualAddress, dstPort address.Port, seq SeqNum) Segment {
	return Segment{
		SequenceNumber: seq,
		IsAck:          true,
		Payload: SegmentPayload{
			SrcVIP:  local.VIP,
			SrcPort: local.Port,
			DstPort: dstPort,
		},
	}
}

// Fin builds a FIN segment; per §3 it always carries empty data.
func Fin(local address.VirtualAddress, dstPort address.Port, seq SeqNum) Segment {
	return Segment{
		SequenceNumber: seq,
		IsAck:          false,
		Payload: SegmentPayload{
			SrcVIP:  local.VIP,
			SrcPort: local.Port,
			DstPort: dstPort,
			Fin:     true,
		},
	}
}

// Data builds a data-bearing segment.
func Data(local address.VirtualAddress, dstPort address.Port, seq SeqNum, chunk []byte, more bool) Segment {
	return Segment{
		SequenceNumber: seq,
		IsAck:          false,
		Payload: SegmentPayload{
			SrcVIP:  local.VIP,
			SrcPort: local.Port,
			DstPort: dstPort,
			Data:    chunk,
			More:    more,
		},
	}
}
