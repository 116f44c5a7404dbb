package transport

import (
	"log/slog"
	"time"

	"github.com/AndreKoraleski/Mini-Net/conn"
	golog "github.com/AndreKoraleski/Mini-Net/log"
)

// Options configures a [ReliableTransport] and the connections it
// constructs.
type Options struct {
	// Timeout is the retransmission deadline passed to every connection
	// this transport creates.
	Timeout time.Duration
	Log     *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return golog.Default()
	}
	return o.Log
}

func (o *Options) connOptions() *conn.Options {
	if o == nil {
		return nil
	}
	return &conn.Options{Timeout: o.Timeout, Log: o.Log}
}
