package wire

import "github.com/AndreKoraleski/Mini-Net/address"

// DefaultTTL is the stack-wide initial hop budget placed in newly
// originated packets.
const DefaultTTL = 16

// Packet is the network-layer PDU: a segment wrapped with routing
// metadata. TTL is mutable and is decremented once per hop by the
// forwarding engine.
type Packet struct {
	SrcVIP  address.VIP
	DstVIP  address.VIP
	TTL     int
	Segment Segment
}

// NewPacket originates a packet with TTL = [DefaultTTL].
func NewPacket(src, dst address.VIP, seg Segment) Packet {
	return Packet{
		SrcVIP:  src,
		DstVIP:  dst,
		TTL:     DefaultTTL,
		Segment: seg,
	}
}
