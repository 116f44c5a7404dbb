package conn

import (
	"log/slog"
	"time"

	golog "github.com/AndreKoraleski/Mini-Net/log"
)

// MSS is the maximum chunk size a [Connection] ever places in one
// segment's data field.
const MSS = 4096

// MaxFinRetries bounds the FIN retransmit loop in close(); SYN and data
// retransmit indefinitely instead, matching this stack's "liveness is
// the caller's problem via abort" policy.
const MaxFinRetries = 8

// DefaultTimeout is the retransmission deadline used when Options.Timeout
// is zero.
const DefaultTimeout = 200 * time.Millisecond

// Options configures a [Connection]. A nil *Options, or a zero field
// within one, falls back to the documented default.
type Options struct {
	// Timeout is the retransmission deadline for handshake, data, and
	// FIN segments.
	Timeout time.Duration
	Log     *slog.Logger
}

func (o *Options) timeout() time.Duration {
	if o == nil || o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return golog.Default()
	}
	return o.Log
}
