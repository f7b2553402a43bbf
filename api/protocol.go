// File: api/protocol.go
// Package api defines the protocol vtable contract every transport
// (TCP, UDP, and accelerated transports such as RDMA/userio) implements.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "context"

// ProtocolID is a stable, case-insensitive string identifying a wire
// protocol. Comparisons must go through protocol.Registry.Lookup, which
// normalizes case; the constants below are the canonical spellings.
type ProtocolID string

const (
	ProtocolStreamTCP        ProtocolID = "STREAM_SOCKET_TCP"
	ProtocolDatagramUDP      ProtocolID = "DATAGRAM_SOCKET_UDP"
	ProtocolDatagramRDMACMRC ProtocolID = "DATAGRAM_RDMACM_RC"
)

// Protocol is a struct-of-closures vtable, not an interface, so a
// transport package can build one from free functions without declaring
// a receiver type purely to satisfy method sets.
type Protocol struct {
	ID          ProtocolID
	Name        string
	IsStream    bool
	IsConnected bool // true if this protocol requires an explicit connect/accept

	// Connect establishes an outbound bind to addr.
	Connect func(ctx context.Context, addr Address, notify NotifyFunc) (Bind, error)

	// Listen establishes a passive bind accepting inbound connections or
	// datagrams at addr. acceptNotify is invoked once per accepted peer
	// for stream protocols; unconnected datagram protocols invoke it once
	// with the returned Bind itself, which then receives NotifyRecvMsg
	// directly.
	Listen func(ctx context.Context, addr Address, acceptNotify func(Bind)) (Bind, error)

	// Close tears down protocol-global resources (e.g. a listening
	// socket); per-bind teardown goes through Bind.Close.
	Close func() error

	// Flush gives the protocol a chance to push any protocol-level
	// buffered state (e.g. coalesced small sends) out to the wire.
	Flush func(Bind) error
}

// Bind is the per-endpoint contract every protocol's Connect/Listen/Accept
// returns. See core/bind for the concrete implementation and its full
// lifecycle (segmentation, deferred close, double-buffered receive).
type Bind interface {
	LocalAddress() Address
	RemoteAddress() Address

	// Send queues a Bvec for transmission; ownership of the Bvec (one
	// refcount unit) transfers to the bind.
	Send(v Bvec) error
	// SendTo queues a Bvec for transmission to addr (datagram binds only).
	SendTo(v Bvec, addr Address) error

	// RequestSendNotifications arms a NotifySent notification for the
	// next time queued send data fully flushes to the transport.
	RequestSendNotifications()

	// SetNotify replaces the bind's notify callback. Used by a stream
	// protocol's Listen/accept path, which constructs each accepted Bind
	// before the application has supplied its notify function: the
	// acceptNotify callback calls SetNotify before the bind's first
	// NotifyConnected fires, mirroring the original evpl accept path's
	// by-reference assignment of new_bind->notify_callback.
	SetNotify(fn NotifyFunc)

	// SetSegment installs (or clears, with nil) the message-segmentation
	// callback: given the number of bytes currently queued in the
	// receive ring, it returns the length of the next complete message
	// (0 if more data is needed, negative for a protocol-error status).
	// Like SetNotify, accepted stream binds take this from the
	// application inside acceptNotify, before any data can arrive.
	SetSegment(fn func(bytesQueued int) int)

	// Recv copies up to len(buf) bytes from the front of the receive
	// ring into buf, returning the number of bytes copied. Valid on any
	// bind regardless of whether a segmentation callback is configured.
	Recv(buf []byte) (int, error)

	// RecvMsg removes and returns the next complete message queued by
	// the segmentation callback (or, for unconnected datagram binds, the
	// next datagram) as zero-copy Bvecs.
	RecvMsg() ([]Bvec, error)

	// Finish requests an orderly close: queued sends still drain, no new
	// sends are accepted, and a DISCONNECTED notification follows once
	// teardown completes. Finish against an already-closing bind is a
	// no-op, not an error.
	Finish() error

	// Close requests immediate teardown, discarding any queued sends.
	Close() error
}
