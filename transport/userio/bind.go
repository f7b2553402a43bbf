// File: transport/userio/bind.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// loopbackBind is the api.Bind for both the connected (Connect) and
// unconnected (Listen) forms of the loopback transport: a Listen bind is
// registered under a well-known name, a Connect bind under a freshly
// minted ephemeral one, and both can Send/SendTo symmetrically once
// registered — there is no listener/client asymmetry once a name is
// claimed. A delivered datagram waits in the bind's pending list until
// the hub's next poll, which hands it to the application inline via
// NotifyRecvMsg's own Notification.Messages/Address; Recv/RecvMsg can
// pull it from the pending list before then.

package userio

import (
	"sync"

	"github.com/momentics/evplgo/api"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
)

type pendingDatagram struct {
	data api.Bvec
	addr api.Address
}

type loopbackBind struct {
	h    *hub
	name string // this bind's own registered address
	peer string // fixed peer name for a Connect bind; "" once unconnected

	local, remote api.Address
	ev            *ioevent.Event
	notify        api.NotifyFunc

	// mu guards pending: deliver (called from SendTo, on whatever
	// goroutine the sender runs on) and dispatchReady (called only from
	// the owning runtime's loop goroutine) race each other, unlike
	// multiPeerBind's single-goroutine epoll read path.
	mu      sync.Mutex
	pending []pendingDatagram

	closed        bool
	closeErr      error
	closeDeferred *deferq.Deferred
	dq            *deferq.Queue
}

func newLoopbackBind(h *hub, name, peer string, local, remote api.Address, dq *deferq.Queue) *loopbackBind {
	b := &loopbackBind{
		h:      h,
		name:   name,
		peer:   peer,
		local:  local,
		remote: remote,
		dq:     dq,
		notify: func(api.Bind, api.Notification) {},
	}
	b.ev = ioevent.New(0)
	b.closeDeferred = deferq.NewDeferred(b.runClose)
	return b
}

func (b *loopbackBind) LocalAddress() api.Address  { return b.local }
func (b *loopbackBind) RemoteAddress() api.Address { return b.remote }

// Send delivers v to this bind's fixed peer; only valid on a Connect bind.
func (b *loopbackBind) Send(v api.Bvec) error {
	if b.peer == "" {
		v.Decref()
		return api.ErrNotSupported
	}
	return b.SendTo(v, api.Address{Host: b.peer})
}

// SendTo delivers v to addr.Host, looked up in the shared hub directory.
func (b *loopbackBind) SendTo(v api.Bvec, addr api.Address) error {
	if b.closed {
		v.Decref()
		return api.ErrTransportClosed
	}
	dst, ok := b.h.lookup(addr.Host)
	if !ok {
		v.Decref()
		return api.ErrNotFound
	}
	b.h.deliver(dst, pendingDatagram{data: v, addr: b.local})
	return nil
}

func (b *loopbackBind) RequestSendNotifications() {}

func (b *loopbackBind) SetNotify(fn api.NotifyFunc) { b.notify = fn }

func (b *loopbackBind) SetSegment(fn func(bytesQueued int) int) {}

func (b *loopbackBind) Recv(buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return 0, nil
	}
	front := b.pending[0]
	n := copy(buf, front.data.Data)
	front.data.Decref()
	b.pending = b.pending[1:]
	return n, nil
}

func (b *loopbackBind) RecvMsg() ([]api.Bvec, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, nil
	}
	front := b.pending[0]
	b.pending = b.pending[1:]
	return []api.Bvec{front.data}, nil
}

func (b *loopbackBind) Finish() error { return b.Close() }

func (b *loopbackBind) Close() error {
	if b.closed {
		return nil
	}
	b.dq.Arm(b.closeDeferred)
	return nil
}

func (b *loopbackBind) runClose() {
	if b.closed {
		return
	}
	b.closed = true
	if b.name != "" {
		b.h.unregister(b.name)
	}

	b.mu.Lock()
	for _, p := range b.pending {
		p.data.Decref()
	}
	b.pending = nil
	b.mu.Unlock()

	b.notify(b, api.Notification{Kind: api.NotifyDisconnected, Error: b.closeErr, Address: b.remote})
}

// dispatchReady fires whenever the hub's poll marks this bind's event
// readable: drain every datagram delivered since the last dispatch and
// fire one NotifyRecvMsg per datagram, each carrying its payload inline
// via Notification.Messages, so the application never needs a separate
// RecvMsg call for the common case.
func (b *loopbackBind) dispatchReady(*ioevent.Event) {
	b.mu.Lock()
	due := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, d := range due {
		b.notify(b, api.Notification{Kind: api.NotifyRecvMsg, Address: d.addr, Messages: []api.Bvec{d.data}})
	}
}

var _ api.Bind = (*loopbackBind)(nil)
