// Package address provides the value types identifying endpoints on the
// virtual fabric: virtual IP addresses, ports, and the pairs and triples
// built from them.
package address

import (
	"fmt"
	"strconv"
	"strings"
)

// VIP is an opaque identifier for a host or router on the virtual fabric.
type VIP string

// Port is a transport-level port number.
type Port uint16

// VirtualAddress identifies one transport endpoint on the fabric.
type VirtualAddress struct {
	VIP  VIP
	Port Port
}

// String renders the address as "vip:port".
func (a VirtualAddress) String() string {
	return fmt.Sprintf("%s:%d", a.VIP, a.Port)
}

// Equal reports whether a equals other.
func (a VirtualAddress) Equal(other VirtualAddress) bool {
	return a.VIP == other.VIP && a.Port == other.Port
}

// MarshalText implements encoding.TextMarshaler.
func (a VirtualAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, inverting MarshalText.
// The VIP is everything before the last colon, so a VIP containing a
// colon round-trips correctly.
func (a *VirtualAddress) UnmarshalText(text []byte) error {
	s := string(text)
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return fmt.Errorf("address: malformed virtual address %q", s)
	}
	port, err := strconv.ParseUint(s[idx+1:], 10, 16)
	if err != nil {
		return fmt.Errorf("address: malformed port in %q: %w", s, err)
	}
	a.VIP = VIP(s[:idx])
	a.Port = Port(port)
	return nil
}

// ConnectionKey uniquely identifies a connection within one transport
// instance: the remote endpoint plus the local port the connection is
// bound to.
type ConnectionKey struct {
	RemoteVIP  VIP
	RemotePort Port
	LocalPort  Port
}

// String renders the key for logging and error messages.
func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s:%d->*:%d", k.RemoteVIP, k.RemotePort, k.LocalPort)
}

// NewConnectionKey builds the key a dispatcher uses to look up the
// connection owning an inbound segment: the segment's source endpoint
// paired with the local port it was addressed to.
func NewConnectionKey(remote VirtualAddress, localPort Port) ConnectionKey {
	return ConnectionKey{
		RemoteVIP:  remote.VIP,
		RemotePort: remote.Port,
		LocalPort:  localPort,
	}
}
