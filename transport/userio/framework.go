// File: transport/userio/framework.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's pool.DefaultManager (sync.Once-guarded
// process-wide singleton) for Init, and on facade.HioloadWS.New's
// per-subsystem construction sequence for the Create/Destroy pairing:
// Init runs once per process regardless of how many runtimes activate
// this framework, while Create/Destroy scope a fresh loopback namespace
// to each runtime that registers it.

package userio

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/evplgo/core/framework"
	"github.com/momentics/evplgo/core/poll"
)

var processInit sync.Once

// Framework implements core/framework.Framework, handing out one fresh
// loopback hub per runtime that registers it via engine.Config.Frameworks.
type Framework struct {
	seq atomic.Uint64
}

// NewFramework constructs an unregistered loopback framework.
func NewFramework() *Framework {
	return &Framework{}
}

// Init runs the process-wide, idempotent setup this framework needs
// (currently none beyond guaranteeing it runs exactly once).
func (f *Framework) Init() error {
	processInit.Do(func() {})
	return nil
}

// Create allocates a fresh hub for one runtime, returned as the opaque
// handle core/framework.Registry stashes.
func (f *Framework) Create() (any, error) {
	return newHub(), nil
}

// Destroy tears down every still-registered listener on handle's hub.
func (f *Framework) Destroy(handle any) error {
	h := handle.(*hub)
	h.closeAll()
	return nil
}

// Cleanup releases any process-wide state Init allocated. Nothing to do
// here: this framework has no such state.
func (f *Framework) Cleanup() error { return nil }

// Backend builds the core/poll.Backend that drives handle's hub: its
// Wait dispatches MarkReadable on every bind that received a datagram
// since the last call, simulating a completion-queue poll instead of a
// kernel epoll_wait.
func (f *Framework) Backend(handle any) poll.Backend {
	h := handle.(*hub)
	return poll.NewUserBackend(h.poll, func() error { h.closeAll(); return nil })
}

// nextEphemeralName assigns a unique loopback address to an outbound
// (Connect) bind so replies have somewhere to route back to, mirroring
// an ephemeral source port on a real socket.
func (f *Framework) nextEphemeralName() string {
	return "ephemeral:" + itoa(f.seq.Add(1))
}

var _ framework.Framework = (*Framework)(nil)

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
