// File: transport/userio/hub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hub is the in-process "wire": a name -> bind directory plus a queue of
// binds that received a datagram since the last poll, standing in for
// an RDMA completion queue. Delivery is a synchronous append to the
// recipient's inbox; readiness dispatch is deferred to the next Wait
// call so callbacks still fire from the runtime's single loop goroutine,
// not from whichever goroutine called Send/SendTo.

package userio

import (
	"sync"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/ioevent"
)

type hub struct {
	mu        sync.Mutex
	listeners map[string]*loopbackBind
	pending   []*ioevent.Event
}

func newHub() *hub {
	return &hub{listeners: make(map[string]*loopbackBind)}
}

func (h *hub) register(name string, b *loopbackBind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.listeners[name]; exists {
		return api.ErrAlreadyExists
	}
	h.listeners[name] = b
	return nil
}

func (h *hub) unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, name)
}

func (h *hub) lookup(name string) (*loopbackBind, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.listeners[name]
	return b, ok
}

// deliver appends datagram to dst's inbox and schedules its event for
// the next poll dispatch.
func (h *hub) deliver(dst *loopbackBind, d pendingDatagram) {
	dst.mu.Lock()
	dst.pending = append(dst.pending, d)
	dst.mu.Unlock()

	h.mu.Lock()
	h.pending = append(h.pending, dst.ev)
	h.mu.Unlock()
}

// poll dispatches MarkReadable on every bind that received a datagram
// since the last call. timeoutMillis is unused: delivery already
// happened synchronously in Send/SendTo, so there is nothing to
// actually block on.
func (h *hub) poll(timeoutMillis int) (int, error) {
	h.mu.Lock()
	due := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, ev := range due {
		ev.MarkReadable()
	}
	return len(due), nil
}

func (h *hub) closeAll() {
	h.mu.Lock()
	listeners := make([]*loopbackBind, 0, len(h.listeners))
	for _, b := range h.listeners {
		listeners = append(listeners, b)
	}
	h.mu.Unlock()

	for _, b := range listeners {
		b.Close()
	}
}
