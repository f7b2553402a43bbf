//go:build linux

// File: core/poll/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based Backend. Grounded on the teacher's own
// reactor_linux.go epoll wrapper, extended to dispatch through
// core/ioevent instead of a raw callback table.

package poll

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/evplgo/core/ioevent"
)

const maxEpollEvents = 256

// EpollBackend drives readiness for a set of ioevent.Event via Linux's
// epoll facility in level-triggered mode.
type EpollBackend struct {
	epfd int

	mu     sync.Mutex
	events map[int32]*ioevent.Event
}

// NewEpollBackend creates a Backend backed by a fresh epoll instance.
func NewEpollBackend() (*EpollBackend, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &EpollBackend{epfd: epfd, events: make(map[int32]*ioevent.Event)}, nil
}

// Add registers event's fd for read and write readiness.
func (b *EpollBackend) Add(event *ioevent.Event) error {
	fd := int32(event.FD)
	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLOUT, Fd: fd}

	b.mu.Lock()
	b.events[fd] = event
	b.mu.Unlock()

	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, int(fd), ev)
}

// Remove unregisters event's fd from epoll.
func (b *EpollBackend) Remove(event *ioevent.Event) error {
	fd := int32(event.FD)

	b.mu.Lock()
	delete(b.events, fd)
	b.mu.Unlock()

	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

// Wait blocks for up to timeoutMillis and dispatches readiness on every
// fd epoll reports.
func (b *EpollBackend) Wait(timeoutMillis int) (int, error) {
	var raw [maxEpollEvents]unix.EpollEvent

	n, err := unix.EpollWait(b.epfd, raw[:], timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		fd := raw[i].Fd

		b.mu.Lock()
		ev, ok := b.events[fd]
		b.mu.Unlock()
		if !ok {
			continue
		}

		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			ev.MarkError()
			dispatched++
			continue
		}
		if raw[i].Events&unix.EPOLLIN != 0 {
			ev.MarkReadable()
			dispatched++
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			ev.MarkWritable()
			dispatched++
		}
	}
	return dispatched, nil
}

// Close releases the underlying epoll file descriptor.
func (b *EpollBackend) Close() error {
	return unix.Close(b.epfd)
}
