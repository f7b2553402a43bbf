// File: core/poll/user.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poll

import "github.com/momentics/evplgo/core/ioevent"

// UserBackend adapts a transport-owned completion mechanism (an RDMA or
// DPDK-class queue, or the in-process loopback in transport/userio) into
// the Backend contract by delegating Wait to a caller-supplied poll
// function. Add/Remove are no-ops since such transports typically poll
// one shared completion queue rather than per-descriptor readiness.
type UserBackend struct {
	poll  UserPollFunc
	close func() error
}

// NewUserBackend wraps poll (and an optional close callback) as a Backend.
func NewUserBackend(poll UserPollFunc, close func() error) *UserBackend {
	return &UserBackend{poll: poll, close: close}
}

func (b *UserBackend) Add(event *ioevent.Event) error    { return nil }
func (b *UserBackend) Remove(event *ioevent.Event) error { return nil }

func (b *UserBackend) Wait(timeoutMillis int) (int, error) {
	return b.poll(timeoutMillis)
}

func (b *UserBackend) Close() error {
	if b.close != nil {
		return b.close()
	}
	return nil
}
