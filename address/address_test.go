package address_test

import (
	"testing"

	"github.com/AndreKoraleski/Mini-Net/address"
)

func TestVirtualAddress_MarshalUnmarshalRoundTrip(t *testing.T) {
	cases := []address.VirtualAddress{
		{VIP: "host-a", Port: 5000},
		{VIP: "10.0.0.1", Port: 0},
		{VIP: "", Port: 1},
	}

	for _, want := range cases {
		text, err := want.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%+v): %v", want, err)
		}

		var got address.VirtualAddress
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != want {
			t.Fatalf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestVirtualAddress_UnmarshalTextRejectsMalformed(t *testing.T) {
	cases := []string{
		"no-colon-here",
		"host:not-a-number",
		"host:-1",
		"host:99999",
	}

	for _, s := range cases {
		var a address.VirtualAddress
		if err := a.UnmarshalText([]byte(s)); err == nil {
			t.Fatalf("UnmarshalText(%q) = nil error, want one", s)
		}
	}
}

func TestVirtualAddress_Equal(t *testing.T) {
	a := address.VirtualAddress{VIP: "x", Port: 1}
	b := address.VirtualAddress{VIP: "x", Port: 1}
	c := address.VirtualAddress{VIP: "x", Port: 2}

	if !a.Equal(b) {
		t.Fatalf("%+v.Equal(%+v) = false, want true", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("%+v.Equal(%+v) = true, want false", a, c)
	}
}

func TestNewConnectionKey(t *testing.T) {
	remote := address.VirtualAddress{VIP: "peer", Port: 4000}
	got := address.NewConnectionKey(remote, 9000)
	want := address.ConnectionKey{RemoteVIP: "peer", RemotePort: 4000, LocalPort: 9000}
	if got != want {
		t.Fatalf("NewConnectionKey = %+v, want %+v", got, want)
	}
}
