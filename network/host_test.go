package network_test

import (
	"context"
	"testing"
	"time"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/internal/netsim"
	"github.com/AndreKoraleski/Mini-Net/network"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

func TestHostNetwork_SendAndReceive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fabric := netsim.NewFabric()
	hostNet := network.NewHostNetwork(vipA, vipR1, fabric.NewLink(vipA, 0), nil)
	gatewayLink := fabric.NewLink(vipR1, 0)

	local := address.VirtualAddress{VIP: vipA, Port: 1000}
	if err := hostNet.Send(wire.Syn(local, 2000, 0), vipZ); err != nil {
		t.Fatalf("Send: %v", err)
	}

	frame, ok := gatewayLink.Receive(ctx)
	if !ok {
		t.Fatal("gateway never received the frame")
	}
	pkt, err := wire.DecodePacket(frame)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if pkt.SrcVIP != vipA || pkt.DstVIP != vipZ {
		t.Fatalf("pkt = %+v, want src=%s dst=%s", pkt, vipA, vipZ)
	}
}

// TestHostNetwork_DropsMisdeliveredPacket covers the "never delivers a
// packet not addressed to the local VIP" requirement: a frame destined
// for a different host is silently discarded, and Receive keeps waiting
// for one that actually matches.
func TestHostNetwork_DropsMisdeliveredPacket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fabric := netsim.NewFabric()
	hostNet := network.NewHostNetwork(vipA, vipR1, fabric.NewLink(vipA, 0), nil)
	sender := fabric.NewLink(vipR1, 0)

	local := address.VirtualAddress{VIP: vipZ, Port: 1000}
	misdelivered := wire.NewPacket(vipZ, vipR2, wire.Syn(local, 2000, 0))
	if err := sender.Send(wire.EncodePacket(misdelivered), vipA); err != nil {
		t.Fatalf("Send: %v", err)
	}

	good := wire.NewPacket(vipR1, vipA, wire.Ack(local, 1000, 0))
	if err := sender.Send(wire.EncodePacket(good), vipA); err != nil {
		t.Fatalf("Send: %v", err)
	}

	seg, ok := hostNet.Receive(ctx)
	if !ok {
		t.Fatal("Receive returned ok=false")
	}
	if !seg.IsAck {
		t.Fatalf("Receive() = %+v, want the ack segment (misdelivered one should have been skipped)", seg)
	}
}
