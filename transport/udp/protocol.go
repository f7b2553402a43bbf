// File: transport/udp/protocol.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wires the DATAGRAM_SOCKET_UDP protocol vtable. Connect yields a
// core/bind.Bind (Datagram: true, so DrainSend's writev never coalesces
// two queued messages into one). Listen yields this package's own
// multiPeerBind, since one listening socket fielding datagrams from many
// peers doesn't fit core/bind's one-fd-one-peer ring model.

package udp

import (
	"context"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/bind"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
	"github.com/momentics/evplgo/core/poll"
	"github.com/momentics/evplgo/internal/logging"
)

// Deps carries the runtime services a UDP bind is wired against.
type Deps struct {
	Pool    api.BufferPool
	Queue   *deferq.Queue
	Backend poll.Backend
	Logger  *logging.Logger
	MaxIov  int
}

type protocol struct {
	deps Deps
}

// New builds the DATAGRAM_SOCKET_UDP protocol vtable.
func New(deps Deps) api.Protocol {
	p := &protocol{deps: deps}
	return api.Protocol{
		ID:          api.ProtocolDatagramUDP,
		Name:        "udp",
		IsStream:    false,
		IsConnected: false,
		Connect:     p.connect,
		Listen:      p.listen,
		Close:       func() error { return nil },
		Flush:       func(api.Bind) error { return nil },
	}
}

// connect creates a connected datagram socket: one fixed peer, reusing
// core/bind's ring/segmentation machinery with Datagram:true so each
// queued Send emits its own writev.
func (p *protocol) connect(ctx context.Context, addr api.Address, notify api.NotifyFunc) (api.Bind, error) {
	fd, err := connectSocket(addr.Host, addr.Port)
	if err != nil {
		return nil, err
	}
	local, _ := localAddress(fd)

	ev := ioevent.New(fd)
	b := bind.New(bind.Config{
		Protocol: api.Protocol{ID: api.ProtocolDatagramUDP, IsStream: false, IsConnected: true},
		Local:    local,
		Remote:   addr,
		Notify:   notify,
		Pool:     p.deps.Pool,
		Queue:    p.deps.Queue,
		Event:    ev,
		MaxIov:   p.deps.MaxIov,
		Datagram: true,
		CloseFn: func() error {
			_ = p.deps.Backend.Remove(ev)
			return closeFD(fd)
		},
	})

	ev.WriteCallback = func(*ioevent.Event) {
		b.DrainSend(func(segs [][]byte) (int, error) {
			if len(segs) == 1 {
				return writeOne(fd, segs[0])
			}
			var buf []byte
			for _, s := range segs {
				buf = append(buf, s...)
			}
			return writeOne(fd, buf)
		})
	}
	ev.ReadCallback = func(*ioevent.Event) {
		b.DrainRecv(func(segs [][]byte) (int, error) { return readOne(fd, segs[0]) })
	}
	ev.ErrorCallback = func(*ioevent.Event) {
		b.RequestClose(api.ErrTransportClosed)
	}

	ev.ReadInterested()
	ev.WriteInterested()
	if err := p.deps.Backend.Add(ev); err != nil {
		closeFD(fd)
		return nil, err
	}

	b.NotifyConnected()
	return b, nil
}

// listen creates an unconnected socket receiving datagrams from any
// peer, returning a single multiPeerBind for the lifetime of the
// listener. acceptNotify, if non-nil, is invoked once with the bind so
// the caller can SetNotify before any datagram can arrive.
func (p *protocol) listen(ctx context.Context, addr api.Address, acceptNotify func(api.Bind)) (api.Bind, error) {
	fd, err := bindSocket(addr.Host, addr.Port)
	if err != nil {
		return nil, err
	}
	local, err := localAddress(fd)
	if err != nil {
		closeFD(fd)
		return nil, err
	}

	b := newMultiPeerBind(fd, local, p.deps)

	if err := p.deps.Backend.Add(b.event()); err != nil {
		closeFD(fd)
		return nil, err
	}

	if acceptNotify != nil {
		acceptNotify(b)
	}
	return b, nil
}
