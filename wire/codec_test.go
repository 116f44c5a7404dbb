package wire_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/wire"
)

func TestEncodeDecodePacket_RoundTrip(t *testing.T) {
	local := address.VirtualAddress{VIP: "h1", Port: 1000}

	cases := []struct {
		name string
		pkt  wire.Packet
	}{
		{"syn", wire.NewPacket("h1", "h2", wire.Syn(local, 2000, 0))},
		{"syn-ack", wire.NewPacket("h1", "h2", wire.SynAck(local, 2000, 1))},
		{"ack", wire.NewPacket("h1", "h2", wire.Ack(local, 2000, 0))},
		{"fin", wire.NewPacket("h1", "h2", wire.Fin(local, 2000, 1))},
		{"empty data", wire.NewPacket("h1", "h2", wire.Data(local, 2000, 0, nil, false))},
		{"data with payload", wire.NewPacket("h1", "h2", wire.Data(local, 2000, 1, []byte("hello world"), true))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			frame := wire.EncodePacket(c.pkt)
			got, err := wire.DecodePacket(frame)
			if err != nil {
				t.Fatalf("DecodePacket: %v", err)
			}
			if diff := cmp.Diff(c.pkt, got); diff != "" {
				t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodePacket_MalformedInput(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x01, 0x02, 0x03},
	}
	for _, c := range cases {
		if _, err := wire.DecodePacket(c); err == nil {
			t.Errorf("DecodePacket(%v) succeeded, want error", c)
		}
	}
}

func TestSegment_Classify(t *testing.T) {
	local := address.VirtualAddress{VIP: "h1", Port: 1000}

	cases := []struct {
		name string
		seg  wire.Segment
		want wire.Class
	}{
		{"syn", wire.Syn(local, 2000, 0), wire.ClassSyn},
		{"syn-ack", wire.SynAck(local, 2000, 0), wire.ClassSynAck},
		{"ack", wire.Ack(local, 2000, 0), wire.ClassAck},
		{"fin", wire.Fin(local, 2000, 0), wire.ClassFin},
		{"data", wire.Data(local, 2000, 0, []byte("x"), false), wire.ClassData},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.seg.Classify(); got != c.want {
				t.Errorf("Classify() = %v, want %v", got, c.want)
			}
		})
	}

	t.Run("fin beats ack", func(t *testing.T) {
		seg := wire.Fin(local, 2000, 0)
		seg.IsAck = true
		if got := seg.Classify(); got != wire.ClassFin {
			t.Errorf("Classify() = %v, want ClassFin", got)
		}
	})
}
