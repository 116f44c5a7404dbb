package conn

import "github.com/AndreKoraleski/Mini-Net/wire"

// ackItem is the sum type carried on the ACK queue: either a real ACK
// observed off the wire, or a synthetic wakeup posted by abort().
type ackItem struct {
	seq   wire.SeqNum
	abort bool
}

// dataItem is the sum type carried on the data queue: either an inbound
// segment, or the EOF sentinel posted on FIN receipt or abort().
type dataItem struct {
	seg wire.Segment
	eof bool
}

// finItem is the sum type carried on the FIN queue: either the peer's
// FIN sequence number, or a synthetic wakeup posted by abort().
type finItem struct {
	seq   wire.SeqNum
	abort bool
}
