// File: transport/tcp/protocol.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wires core/bind's drain routines to this package's raw readv/writev
// syscalls and registers each connection's ioevent.Event with the
// runtime's poll.Backend. Grounded on the original evpl core's
// evpl_socket_tcp_connect/evpl_accept_tcp (connect-completion detected
// on first writable via SO_ERROR, accept loop draining accept4 to
// EAGAIN, per-bind event wiring) and on the teacher's
// transport/tcp/listener.go accept-loop structure.

package tcp

import (
	"context"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/bind"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
	"github.com/momentics/evplgo/core/poll"
	"github.com/momentics/evplgo/internal/logging"
)

// Deps carries the runtime services every TCP bind is wired against.
type Deps struct {
	Pool    api.BufferPool
	Queue   *deferq.Queue
	Backend poll.Backend
	Logger  *logging.Logger
	MaxIov  int
	Backlog int
}

type protocol struct {
	deps Deps
}

// New builds the STREAM_SOCKET_TCP protocol vtable.
func New(deps Deps) api.Protocol {
	if deps.Backlog <= 0 {
		deps.Backlog = 128
	}
	p := &protocol{deps: deps}
	return api.Protocol{
		ID:          api.ProtocolStreamTCP,
		Name:        "tcp",
		IsStream:    true,
		IsConnected: true,
		Connect:     p.connect,
		Listen:      p.listen,
		Close:       func() error { return nil },
		Flush:       func(api.Bind) error { return nil },
	}
}

func (p *protocol) vtable() api.Protocol {
	return api.Protocol{ID: api.ProtocolStreamTCP, Name: "tcp", IsStream: true, IsConnected: true}
}

// connect establishes a non-blocking outbound connection. Completion is
// detected on the first write-ready dispatch via SO_ERROR, mirroring
// evpl_check_conn; CONNECTED fires at that point, not before.
func (p *protocol) connect(ctx context.Context, addr api.Address, notify api.NotifyFunc) (api.Bind, error) {
	fd, err := dial(addr.Host, addr.Port)
	if err != nil {
		return nil, err
	}

	ev := ioevent.New(fd)
	connected := false

	b := bind.New(bind.Config{
		Protocol: p.vtable(),
		Remote:   addr,
		Notify:   notify,
		Pool:     p.deps.Pool,
		Queue:    p.deps.Queue,
		Event:    ev,
		MaxIov:   p.deps.MaxIov,
		CloseFn: func() error {
			_ = p.deps.Backend.Remove(ev)
			return closeFD(fd)
		},
	})

	ev.WriteCallback = func(*ioevent.Event) {
		if !connected {
			if cerr := socketError(fd); cerr != nil {
				b.RequestClose(cerr)
				return
			}
			connected = true
			b.NotifyConnected()
		}
		b.DrainSend(func(segs [][]byte) (int, error) { return writev(fd, segs) })
	}
	ev.ReadCallback = func(*ioevent.Event) {
		b.DrainRecv(func(segs [][]byte) (int, error) { return readv(fd, segs) })
	}
	ev.ErrorCallback = func(*ioevent.Event) {
		b.RequestClose(socketError(fd))
	}

	ev.ReadInterested()
	ev.WriteInterested()
	if err := p.deps.Backend.Add(ev); err != nil {
		closeFD(fd)
		return nil, err
	}

	return b, nil
}

// listen establishes a passive socket and drives its own accept loop
// off read-readiness, draining accept4 to EAGAIN per dispatch just like
// evpl_accept_tcp's while(1) loop.
func (p *protocol) listen(ctx context.Context, addr api.Address, acceptNotify func(api.Bind)) (api.Bind, error) {
	lfd, err := listenSocket(addr.Host, addr.Port, p.deps.Backlog)
	if err != nil {
		return nil, err
	}
	local, err := localAddress(lfd)
	if err != nil {
		closeFD(lfd)
		return nil, err
	}

	listenEv := ioevent.New(lfd)
	listenBind := bind.New(bind.Config{
		Protocol: p.vtable(),
		Local:    local,
		Notify:   func(api.Bind, api.Notification) {},
		Pool:     p.deps.Pool,
		Queue:    p.deps.Queue,
		Event:    listenEv,
		CloseFn: func() error {
			_ = p.deps.Backend.Remove(listenEv)
			return closeFD(lfd)
		},
	})

	listenEv.ReadCallback = func(*ioevent.Event) {
		for {
			fd, peer, err := acceptConn(lfd)
			if err != nil {
				listenEv.MarkUnreadable()
				return
			}
			p.acceptOne(fd, peer, local, acceptNotify)
		}
	}
	listenEv.ReadInterested()
	if err := p.deps.Backend.Add(listenEv); err != nil {
		closeFD(lfd)
		return nil, err
	}

	return listenBind, nil
}

// acceptOne constructs the Bind for one accepted peer, hands it to
// acceptNotify for the application to attach its own NotifyFunc via
// SetNotify, then fires the one-time CONNECTED notification — the same
// order the original accept_callback/notify_callback handoff follows.
func (p *protocol) acceptOne(fd int, peer, local api.Address, acceptNotify func(api.Bind)) {
	ev := ioevent.New(fd)
	var b *bind.Bind
	b = bind.New(bind.Config{
		Protocol: p.vtable(),
		Local:    local,
		Remote:   peer,
		Notify:   func(api.Bind, api.Notification) {},
		Pool:     p.deps.Pool,
		Queue:    p.deps.Queue,
		Event:    ev,
		MaxIov:   p.deps.MaxIov,
		CloseFn: func() error {
			_ = p.deps.Backend.Remove(ev)
			return closeFD(fd)
		},
	})

	ev.WriteCallback = func(*ioevent.Event) {
		b.DrainSend(func(segs [][]byte) (int, error) { return writev(fd, segs) })
	}
	ev.ReadCallback = func(*ioevent.Event) {
		b.DrainRecv(func(segs [][]byte) (int, error) { return readv(fd, segs) })
	}
	ev.ErrorCallback = func(*ioevent.Event) {
		b.RequestClose(socketError(fd))
	}
	ev.ReadInterested()

	if err := p.deps.Backend.Add(ev); err != nil {
		closeFD(fd)
		return
	}

	if acceptNotify != nil {
		acceptNotify(b)
	}
	b.NotifyConnected()
}
