// File: transport/udp/multipeer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// multiPeerBind is the api.Bind for an unconnected (listening) UDP
// socket: a single fd fielding datagrams from many source addresses,
// which core/bind's one-fd-one-peer ring model has no room for. Each
// inbound datagram is handed to the application inline, via
// NotifyRecvMsg's own Notification.Messages/Address, the instant it is
// read off the wire — there is no separate queue to pull from
// afterward, since the datagram and its sender are already fully known
// by the time the notification fires. Outbound sendto calls are
// synchronous: UDP send rarely blocks, and queuing would need
// per-destination backpressure tracking this exercise's scope does not
// call for.

package udp

import (
	"github.com/momentics/evplgo/api"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
)

type multiPeerBind struct {
	fd    int
	local api.Address
	ev    *ioevent.Event
	deps  Deps

	notify api.NotifyFunc

	closed        bool
	closeErr      error
	closeDeferred *deferq.Deferred
}

func newMultiPeerBind(fd int, local api.Address, deps Deps) *multiPeerBind {
	b := &multiPeerBind{
		fd:     fd,
		local:  local,
		deps:   deps,
		notify: func(api.Bind, api.Notification) {},
	}
	b.ev = ioevent.New(fd)
	b.ev.ReadCallback = func(*ioevent.Event) { b.drainOne() }
	b.ev.ErrorCallback = func(*ioevent.Event) { b.requestClose() }
	b.ev.ReadInterested()
	b.closeDeferred = deferq.NewDeferred(b.runClose)
	return b
}

func (b *multiPeerBind) event() *ioevent.Event { return b.ev }

func (b *multiPeerBind) drainOne() {
	if b.closed {
		return
	}
	v := b.deps.Pool.AllocateWhole()
	n, peer, err := recvfromOne(b.fd, v.Data)
	if err != nil {
		v.Decref()
		b.requestCloseErr(err)
		return
	}
	if n == 0 {
		v.Decref()
		return
	}
	v.Data = v.Data[:n]

	b.notify(b, api.Notification{Kind: api.NotifyRecvMsg, Address: peer, Messages: []api.Bvec{v}})
}

func (b *multiPeerBind) LocalAddress() api.Address  { return b.local }
func (b *multiPeerBind) RemoteAddress() api.Address { return api.Address{} }

func (b *multiPeerBind) Send(v api.Bvec) error {
	v.Decref()
	return api.ErrNotSupported
}

func (b *multiPeerBind) SendTo(v api.Bvec, addr api.Address) error {
	defer v.Decref()
	if b.closed {
		return api.ErrTransportClosed
	}
	_, err := sendtoOne(b.fd, v.Data, addr)
	return err
}

// RequestSendNotifications is a no-op: sendto completes synchronously in
// SendTo itself, so there is no pending-flush state to notify about.
func (b *multiPeerBind) RequestSendNotifications() {}

func (b *multiPeerBind) SetNotify(fn api.NotifyFunc) { b.notify = fn }

// SetSegment is a no-op: every inbound datagram is delivered as one
// complete message, so there is nothing for a length-based segmenter to
// decide.
func (b *multiPeerBind) SetSegment(fn func(bytesQueued int) int) {}

// Recv is not meaningful on a multi-peer bind: every datagram carries a
// sender address that a flat byte copy would discard, so it always
// reports nothing rather than silently dropping that information.
func (b *multiPeerBind) Recv(buf []byte) (int, error) { return 0, nil }

// RecvMsg always reports nothing: every datagram is already handed to
// the application inline via NotifyRecvMsg's own Notification.Messages
// the instant drainOne reads it, so there is never a backlog to pull
// from here afterward.
func (b *multiPeerBind) RecvMsg() ([]api.Bvec, error) { return nil, nil }

func (b *multiPeerBind) Finish() error { return b.Close() }

func (b *multiPeerBind) Close() error {
	b.requestClose()
	return nil
}

func (b *multiPeerBind) requestClose() { b.requestCloseErr(nil) }

func (b *multiPeerBind) requestCloseErr(err error) {
	if b.closed {
		return
	}
	if err != nil && b.closeErr == nil {
		b.closeErr = err
	}
	b.deps.Queue.Arm(b.closeDeferred)
}

func (b *multiPeerBind) runClose() {
	if b.closed {
		return
	}
	b.closed = true
	_ = b.deps.Backend.Remove(b.ev)
	_ = closeFD(b.fd)

	b.notify(b, api.Notification{Kind: api.NotifyDisconnected, Error: b.closeErr, Address: api.Address{}})
}

var _ api.Bind = (*multiPeerBind)(nil)
