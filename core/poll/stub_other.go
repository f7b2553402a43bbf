//go:build !linux

// File: core/poll/stub_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub kernel-poll Backend for platforms without an epoll equivalent
// wired in yet, matching the teacher's own reactor_stub.go precedent of
// returning a clear unsupported-platform error rather than silently
// degrading to a busy poll.

package poll

import (
	"errors"

	"github.com/momentics/evplgo/core/ioevent"
)

// ErrPlatformNotSupported is returned by NewEpollBackend on platforms
// without a kernel-poll backend implemented.
var ErrPlatformNotSupported = errors.New("poll: no kernel backend implemented for this platform")

// EpollBackend is a placeholder type kept so callers can reference it
// uniformly across platforms; NewEpollBackend always fails here.
type EpollBackend struct{}

// NewEpollBackend always returns ErrPlatformNotSupported on non-Linux
// platforms. Use UserBackend for an explicit user-space poll loop
// instead.
func NewEpollBackend() (*EpollBackend, error) {
	return nil, ErrPlatformNotSupported
}

func (b *EpollBackend) Add(event *ioevent.Event) error    { return ErrPlatformNotSupported }
func (b *EpollBackend) Remove(event *ioevent.Event) error { return ErrPlatformNotSupported }
func (b *EpollBackend) Wait(timeoutMillis int) (int, error) {
	return 0, ErrPlatformNotSupported
}
func (b *EpollBackend) Close() error { return nil }
