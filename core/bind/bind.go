// File: core/bind/bind.go
// Package bind implements the endpoint instance every protocol's
// Connect/Listen/Accept returns: queueing, the segmentation protocol,
// double-buffered receive, and the idempotent deferred-close lifecycle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the original evpl core's socket/tcp.c read/write/close
// paths (recv1/recv2 double buffering, segment_callback loop, deferred
// close-on-error), generalized here so both stream and datagram
// transports drive the same bind lifecycle through injected I/O
// closures instead of duplicating this bookkeeping per protocol.

package bind

import (
	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
	"github.com/momentics/evplgo/core/iovring"
)

// SegmentFunc inspects the receive ring and returns the length of the
// next complete message, 0 if more data is needed, or a negative
// protocol-error status if the data seen so far is invalid.
type SegmentFunc func(bytesQueued int) int

// Config carries everything a Bind needs at construction; Protocol
// implementations populate this from their Connect/Listen/Accept logic.
type Config struct {
	Protocol api.Protocol
	Local    api.Address
	Remote   api.Address
	Notify   api.NotifyFunc
	Segment  SegmentFunc
	Pool     api.BufferPool
	Queue    *deferq.Queue
	Event    *ioevent.Event
	MaxIov   int

	// Datagram marks a bind whose sends must preserve message boundaries:
	// DrainSend stops gathering at the first EOM-marked ring entry
	// instead of coalescing the whole ring into one writev, so a
	// connected datagram socket's writev still emits exactly one
	// datagram per queued message.
	Datagram bool

	// CloseFn releases the transport-level resource (socket fd, etc.)
	// exactly once during the close lifecycle.
	CloseFn func() error
}

// Bind is the canonical api.Bind implementation.
type Bind struct {
	protocol api.Protocol
	local    api.Address
	remote   api.Address
	notify   api.NotifyFunc
	segment  SegmentFunc
	pool     api.BufferPool
	dq       *deferq.Queue
	event    *ioevent.Event
	maxIov   int
	datagram bool
	closeFn  func() error

	sendRing *iovring.Ring
	recvRing *iovring.Ring

	recv1, recv2 api.Bvec

	closeDeferred   *deferq.Deferred
	closed          bool
	closeArmed      bool
	finishRequested bool
	sendNotifyArmed bool
	closeErr        error
}

// New constructs a Bind from cfg. The returned Bind is ready to have its
// send/recv paths driven by a transport's ioevent callbacks.
func New(cfg Config) *Bind {
	b := &Bind{
		protocol: cfg.Protocol,
		local:    cfg.Local,
		remote:   cfg.Remote,
		notify:   cfg.Notify,
		segment:  cfg.Segment,
		pool:     cfg.Pool,
		dq:       cfg.Queue,
		event:    cfg.Event,
		maxIov:   cfg.MaxIov,
		datagram: cfg.Datagram,
		closeFn:  cfg.CloseFn,
		sendRing: iovring.New(),
		recvRing: iovring.New(),
	}
	if b.maxIov <= 0 {
		b.maxIov = 16
	}
	b.closeDeferred = deferq.NewDeferred(b.runClose)
	return b
}

func (b *Bind) LocalAddress() api.Address  { return b.local }
func (b *Bind) RemoteAddress() api.Address { return b.remote }

// Send queues v on the stream send ring and arms write interest.
//
// Calling Send once Close (or a ring-drained Finish) has armed teardown
// is a contract violation, not an ordinary failure: the caller is
// handing a buffer to a bind whose transport-level resources are about
// to be released on this same turn. It aborts fatally rather than
// returning an error, matching spec scenario 6 (send-after-close within
// the same turn).
func (b *Bind) Send(v api.Bvec) error {
	api.AbortIf(b.closeArmed, "bind: Send called after Close/Finish already armed teardown")
	if b.closed || b.finishRequested {
		v.Decref()
		return api.ErrTransportClosed
	}
	// A datagram bind's every Send is one logical message: mark it EOM
	// unconditionally so DrainSend's Iov(maxIov, stopOnEOM=true) call
	// always stops after this entry, never coalescing it with whatever
	// is queued behind it into one writev/sendto. Stream binds leave EOM
	// false, since DrainSend passes stopOnEOM=false for them and nothing
	// reads the flag.
	if b.datagram {
		v.EOM = true
	}
	b.sendRing.Add(v)
	b.event.WriteInterested()
	return nil
}

// SendTo is Send with a destination address. Binds of a connected
// protocol reject it with ErrNotSupported; on any other bind v is queued
// exactly as Send queues it and addr is not used.
func (b *Bind) SendTo(v api.Bvec, addr api.Address) error {
	if b.protocol.IsConnected {
		v.Decref()
		return api.ErrNotSupported
	}
	return b.Send(v)
}

// RequestSendNotifications arms a one-shot NotifySent for the next full
// flush of the send ring to the transport.
func (b *Bind) RequestSendNotifications() { b.sendNotifyArmed = true }

// SetNotify replaces the bind's notify callback; see api.Bind for when a
// protocol's accept path needs this.
func (b *Bind) SetNotify(fn api.NotifyFunc) { b.notify = fn }

// SetSegment installs or clears the segmentation callback; see api.Bind.
func (b *Bind) SetSegment(fn func(bytesQueued int) int) { b.segment = fn }

// Recv copies up to len(buf) bytes out of the receive ring. Valid
// regardless of whether a segmentation callback is configured.
func (b *Bind) Recv(buf []byte) (int, error) {
	taken := b.recvRing.Take(len(buf))
	n := 0
	for _, v := range taken {
		n += copy(buf[n:], v.Data)
		v.Decref()
	}
	return n, nil
}

// RecvMsg removes and returns the next complete message as zero-copy
// Bvecs, for a manual pull outside of the NotifyRecvMsg path (the common
// case already receives the message inline via Notification.Messages;
// see processSegments). The caller is responsible for Decref'ing each
// returned Bvec. Mirrors processSegments' own segment-length handling:
// zero or insufficient bytes queued returns nothing, a negative length
// arms the same protocol-error close rather than failing silently.
func (b *Bind) RecvMsg() ([]api.Bvec, error) {
	if b.segment == nil {
		return nil, api.ErrNotSupported
	}
	queued := b.recvRing.Bytes()
	length := b.segment(queued)
	if length == 0 || queued < length {
		return nil, nil
	}
	if length < 0 {
		err := api.ErrProtocol(-length, nil)
		b.RequestClose(err)
		return nil, err
	}
	return b.recvRing.Take(length), nil
}

// Finish requests an orderly close: queued sends still drain; no new
// sends are accepted. Calling it again (or after Close already fired)
// is a graceful no-op, matching an already-armed or already-fired
// deferral rather than a special abortive path.
func (b *Bind) Finish() error {
	if b.closed || b.finishRequested {
		return nil
	}
	b.finishRequested = true
	if b.sendRing.Empty() {
		b.RequestClose(nil)
	}
	return nil
}

// Close requests immediate teardown, discarding any queued sends.
func (b *Bind) Close() error {
	b.RequestClose(nil)
	return nil
}

// RequestClose arms the deferred close with err as the eventual
// DISCONNECTED reason (nil for a clean/local close). Idempotent: further
// calls never arm a second close, and only the first non-nil err is
// kept; once the close has fired, calls are no-ops.
func (b *Bind) RequestClose(err error) {
	if b.closed {
		return
	}
	if err != nil && b.closeErr == nil {
		b.closeErr = err
	}
	b.closeArmed = true
	b.dq.Arm(b.closeDeferred)
}

// runClose is the deferred teardown body: protocol close, ring drain,
// single DISCONNECTED notification. Only ever runs once per Bind.
func (b *Bind) runClose() {
	if b.closed {
		return
	}
	b.closed = true

	if b.closeFn != nil {
		_ = b.closeFn()
	}

	b.sendRing.Clear()
	b.recvRing.Clear()
	if b.recv1.Buffer != nil {
		b.recv1.Decref()
		b.recv1 = api.Bvec{}
	}
	if b.recv2.Buffer != nil {
		b.recv2.Decref()
		b.recv2 = api.Bvec{}
	}

	b.notify(b, api.Notification{Kind: api.NotifyDisconnected, Error: b.closeErr, Address: b.remote})
}

// NotifyConnected delivers the one-time CONNECTED notification; called
// by a protocol's Connect/Listen accept path once a connection completes.
func (b *Bind) NotifyConnected() {
	b.notify(b, api.Notification{Kind: api.NotifyConnected, Address: b.remote})
}

var _ api.Bind = (*Bind)(nil)
