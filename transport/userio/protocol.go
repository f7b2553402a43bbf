// File: transport/userio/protocol.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builds the DATAGRAM_USERIO_LOOPBACK protocol vtable against a hub
// handed out by Framework.Create. Connect registers the caller under a
// fresh ephemeral name so replies route back; Listen registers the
// caller under addr.Host as a well-known name, rejecting a second
// Listen under the same name (ErrAlreadyExists).

package userio

import (
	"context"

	"github.com/momentics/evplgo/api"
	deferq "github.com/momentics/evplgo/core/defer"
)

// ProtocolDatagramUserioLoopback identifies this transport; distinct
// from api.ProtocolDatagramRDMACMRC since this is an explicit, honestly
// named stand-in rather than a claim to implement real RDMA semantics.
const ProtocolDatagramUserioLoopback api.ProtocolID = "DATAGRAM_USERIO_LOOPBACK"

// Protocol builds the protocol vtable for handle (the *hub Create
// returned), queuing deferred close work on queue like every other
// transport in this repo.
func (f *Framework) Protocol(handle any, queue *deferq.Queue) api.Protocol {
	h := handle.(*hub)
	return api.Protocol{
		ID:          ProtocolDatagramUserioLoopback,
		Name:        "userio-loopback",
		IsStream:    false,
		IsConnected: false,
		Connect: func(ctx context.Context, addr api.Address, notify api.NotifyFunc) (api.Bind, error) {
			name := f.nextEphemeralName()
			b := newLoopbackBind(h, name, addr.Host, api.Address{Host: name}, addr, queue)
			b.ev.ReadCallback = b.dispatchReady
			b.ev.ReadInterested()
			if err := h.register(name, b); err != nil {
				return nil, err
			}
			if notify != nil {
				b.SetNotify(notify)
			}
			b.notify(b, api.Notification{Kind: api.NotifyConnected, Address: addr})
			return b, nil
		},
		Listen: func(ctx context.Context, addr api.Address, acceptNotify func(api.Bind)) (api.Bind, error) {
			b := newLoopbackBind(h, addr.Host, "", addr, api.Address{}, queue)
			b.ev.ReadCallback = b.dispatchReady
			b.ev.ReadInterested()
			if err := h.register(addr.Host, b); err != nil {
				return nil, err
			}
			if acceptNotify != nil {
				acceptNotify(b)
			}
			return b, nil
		},
		Close: func() error { return nil },
		Flush: func(api.Bind) error { return nil },
	}
}
