package errs

// Router errors.
const (
	// ErrUnknownDestination is returned when a destination VIP has no
	// entry in the routing table.
	ErrUnknownDestination Error = "unknown destination"
)

// Connection errors.
const (
	// ErrEndOfStream names the end-of-stream condition of a closed or
	// aborted connection. No code path returns it: callers observe
	// end-of-stream as Receive returning ok=false.
	ErrEndOfStream Error = "end of stream"
	// ErrConnectionClosed is returned by Send/Connect/Accept when the
	// connection has already been closed or aborted.
	ErrConnectionClosed Error = "connection closed"
	// ErrConnectionNotEstablished is returned by Send when called
	// before the handshake has completed.
	ErrConnectionNotEstablished Error = "connection not established"
	// ErrRetransmitExhausted is logged when the FIN retransmit limit is
	// hit; close proceeds regardless, treating the peer as gone.
	ErrRetransmitExhausted Error = "retransmit limit exhausted"
)

// Transport errors.
const (
	// ErrDuplicateConnection is logged (not returned) when a SYN arrives
	// for a connection that has already completed its handshake.
	ErrDuplicateConnection Error = "duplicate connection"
	// ErrTransportClosed is returned by Connect/Accept once the
	// transport has been shut down.
	ErrTransportClosed Error = "transport closed"
)

// NewInvalidArgumentError wraps args with [ErrInvalidArgument].
const ErrInvalidArgument Error = "invalid argument"

func NewInvalidArgumentError(args ...any) error {
	return NewWrapperError(ErrInvalidArgument, args...) //errtrace:skip
}
