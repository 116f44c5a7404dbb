package netsim_test

import (
	"context"
	"testing"
	"time"

	"github.com/AndreKoraleski/Mini-Net/internal/netsim"
)

func TestFabricLink_DeliversFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fabric := netsim.NewFabric()
	a := fabric.NewLink("a", 0)
	b := fabric.NewLink("b", 0)

	want := []byte("hello")
	if err := a.Send(want, "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, ok := b.Receive(ctx)
	if !ok {
		t.Fatal("Receive returned ok=false")
	}
	if string(got) != string(want) {
		t.Fatalf("Receive() = %q, want %q", got, want)
	}
}

func TestFabricLink_ReceiveUnblocksOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fabric := netsim.NewFabric()
	a := fabric.NewLink("a", 0)

	if _, ok := a.Receive(ctx); ok {
		t.Fatal("Receive returned ok=true with nothing ever sent")
	}
}

// TestFabricLink_FullDropProbabilityNeverDelivers exercises the drop
// path deterministically at probability 1: every frame is lost.
func TestFabricLink_FullDropProbabilityNeverDelivers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fabric := netsim.NewFabric()
	a := fabric.NewLink("a", 1)
	b := fabric.NewLink("b", 0)

	for i := 0; i < 10; i++ {
		if err := a.Send([]byte("x"), "b"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	if _, ok := b.Receive(ctx); ok {
		t.Fatal("Receive delivered a frame despite drop probability 1")
	}
}

// TestFabricLink_ZeroDropProbabilityAlwaysDelivers is the counterpart
// deterministic check at probability 0.
func TestFabricLink_ZeroDropProbabilityAlwaysDelivers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fabric := netsim.NewFabric()
	a := fabric.NewLink("a", 0)
	b := fabric.NewLink("b", 0)

	const n = 20
	for i := 0; i < n; i++ {
		if err := a.Send([]byte("x"), "b"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for i := 0; i < n; i++ {
		if _, ok := b.Receive(ctx); !ok {
			t.Fatalf("Receive %d returned ok=false", i)
		}
	}
}
