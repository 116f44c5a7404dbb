// Package netsim provides an in-memory [network.Link] implementation
// standing in for the link layer and the noisy-channel emulator that
// this module's core treats as external collaborators. It exists so the
// router and transport packages have a real, non-mocked collaborator to
// run against in tests and the demo binary.
package netsim

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/AndreKoraleski/Mini-Net/address"
)

// Fabric is a shared, in-memory virtual medium. Each participant
// registers a VIP and gets back a [Link] bound to it; sending a frame to
// a VIP delivers it to that VIP's inbox, subject to the sending link's
// configured independent drop probability.
type Fabric struct {
	mu     sync.Mutex
	inboxes map[address.VIP]chan []byte
}

// NewFabric creates an empty fabric.
func NewFabric() *Fabric {
	return &Fabric{inboxes: make(map[address.VIP]chan []byte)}
}

func (f *Fabric) inbox(vip address.VIP) chan []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.inboxes[vip]
	if !ok {
		ch = make(chan []byte, 64)
		f.inboxes[vip] = ch
	}
	return ch
}

// NewLink registers vip on the fabric and returns a link for it. dropProb
// is the independent probability, in [0,1], that any frame sent through
// this link is silently dropped rather than delivered, emulating the
// original noisy channel.
func (f *Fabric) NewLink(vip address.VIP, dropProb float64) *FabricLink {
	return &FabricLink{
		fabric:   f,
		self:     vip,
		dropProb: dropProb,
		inbox:    f.inbox(vip),
	}
}

// FabricLink is one participant's view of a [Fabric].
type FabricLink struct {
	fabric   *Fabric
	self     address.VIP
	dropProb float64
	inbox    chan []byte
}

// Send delivers frame to nextHop's inbox, unless this link's drop
// probability fires first.
func (l *FabricLink) Send(frame []byte, nextHop address.VIP) error {
	if l.dropProb > 0 && rand.Float64() < l.dropProb {
		return nil
	}

	dst := l.fabric.inbox(nextHop)
	select {
	case dst <- frame:
	default:
		// Inbox full: treat like a dropped frame rather than blocking
		// the sender indefinitely.
	}
	return nil
}

// Receive blocks until a frame arrives for this link's VIP, or ctx is
// cancelled.
func (l *FabricLink) Receive(ctx context.Context) ([]byte, bool) {
	select {
	case frame := <-l.inbox:
		return frame, true
	case <-ctx.Done():
		return nil, false
	}
}
