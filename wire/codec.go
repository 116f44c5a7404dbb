package wire

import (
	"braces.dev/errtrace"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/internal/util"
)

// EncodePacket renders a packet to its byte-framed wire form, the shape
// a [Link] implementation actually moves between neighbors. Fields are
// length-prefixed the same way this codebase already frames variable
// length strings elsewhere.
func EncodePacket(p Packet) []byte {
	b := make([]byte, 0, 64+len(p.Segment.Payload.Data))
	b = util.AppendPrefixedString(b, string(p.SrcVIP))
	b = util.AppendPrefixedString(b, string(p.DstVIP))
	b = util.AppendUVarInt(b, uint64(p.TTL))
	b = util.AppendUVarInt(b, uint64(p.Segment.SequenceNumber))
	b = appendBool(b, p.Segment.IsAck)
	b = util.AppendPrefixedString(b, string(p.Segment.Payload.SrcVIP))
	b = util.AppendUVarInt(b, uint64(p.Segment.Payload.SrcPort))
	b = util.AppendUVarInt(b, uint64(p.Segment.Payload.DstPort))
	b = appendBool(b, p.Segment.Payload.Syn)
	b = appendBool(b, p.Segment.Payload.Fin)
	b = appendBool(b, p.Segment.Payload.More)
	b = util.AppendPrefixedString(b, p.Segment.Payload.Data)

	return b
}

// DecodePacket parses the byte-framed form produced by [EncodePacket].
func DecodePacket(data []byte) (Packet, error) {
	var p Packet

	srcVIP, rest, err := util.ConsumePrefixedString(data)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	dstVIP, rest, err := util.ConsumePrefixedString(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	ttl, rest, err := util.ConsumeUVarInt(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	seq, rest, err := util.ConsumeUVarInt(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	isAck, rest, err := consumeBool(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	payloadSrcVIP, rest, err := util.ConsumePrefixedString(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	srcPort, rest, err := util.ConsumeUVarInt(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	dstPort, rest, err := util.ConsumeUVarInt(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	syn, rest, err := consumeBool(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	fin, rest, err := consumeBool(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	more, rest, err := consumeBool(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	payloadData, _, err := util.ConsumePrefixedString(rest)
	if err != nil {
		return Packet{}, errtrace.Wrap(err)
	}
	// Empty data decodes as nil, the same as the segment constructors
	// leave it, so a decoded packet equals the one that was encoded.
	var data []byte
	if payloadData != "" {
		data = []byte(payloadData)
	}

	p.SrcVIP = address.VIP(srcVIP)
	p.DstVIP = address.VIP(dstVIP)
	p.TTL = int(ttl)
	p.Segment = Segment{
		SequenceNumber: SeqNum(seq),
		IsAck:          isAck,
		Payload: SegmentPayload{
			SrcVIP:  address.VIP(payloadSrcVIP),
			SrcPort: address.Port(srcPort),
			DstPort: address.Port(dstPort),
			Syn:     syn,
			Fin:     fin,
			More:    more,
			Data:    data,
		},
	}
	return p, nil
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func consumeBool(data []byte) (bool, []byte, error) {
	if len(data) == 0 {
		return false, nil, errtrace.Wrap(util.ErrUnexpectedEOF)
	}
	return data[0] != 0, data[1:], nil
}
