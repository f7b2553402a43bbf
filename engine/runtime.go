// File: engine/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime is the single-threaded-per-instance reactor: one buffer pool,
// one deferral queue, one protocol registry, one poll registry driving
// zero or more concrete poll.Backend instances (a kernel epoll backend
// plus, optionally, one user-space backend per accelerated transport).
// Grounded on the teacher's facade.HioloadWS construction sequence
// (control -> pool -> transport -> poller, one-call New/Start/Stop),
// generalized from a WebSocket-specific facade into the protocol- and
// framework-agnostic reactor spec.md §6 describes.

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/control"
	"github.com/momentics/evplgo/core/buffer"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/framework"
	"github.com/momentics/evplgo/core/poll"
	"github.com/momentics/evplgo/core/protocol"
	"github.com/momentics/evplgo/internal/logging"
	"github.com/momentics/evplgo/transport/tcp"
	"github.com/momentics/evplgo/transport/udp"
)

// Runtime owns every subsystem a bound endpoint needs: buffer pool,
// deferral queue, poll registry, protocol registry, framework registry,
// and the control facade exposing them as api.Control/api.Debug.
type Runtime struct {
	cfg *Config
	log *logging.Logger

	pool    *buffer.Pool
	queue   *deferq.Queue
	polls   *poll.Registry
	kernel  poll.Backend
	protos  *protocol.Registry
	frames  *framework.Registry
	control *control.Facade

	stopOnce sync.Once
	stopCh   chan struct{}

	closeOnce sync.Once
}

// New builds a Runtime from cfg, or DefaultConfig() if cfg is nil.
// Registers every cfg.Frameworks entry before sizing the buffer pool (so
// each Buffer's FrameworkSlots array is sized correctly), then builds
// the default kernel poll backend and pre-registers the STREAM_SOCKET_TCP
// and DATAGRAM_SOCKET_UDP protocol vtables against it.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("engine", nil)
	}

	frames := framework.NewRegistry()
	for _, fw := range cfg.Frameworks {
		if _, err := frames.Register(fw); err != nil {
			return nil, err
		}
	}

	pool := buffer.New(frames.NumSlots())
	queue := deferq.New()

	kernel, err := poll.NewEpollBackend()
	if err != nil {
		return nil, err
	}
	polls := poll.NewRegistry()
	polls.AddBackend(kernel)

	maxIov := cfg.MaxIovecsPerSyscall
	if maxIov <= 0 {
		maxIov = 16
	}

	protos := protocol.NewRegistry()
	protos.Register(tcp.New(tcp.Deps{
		Pool:    pool,
		Queue:   queue,
		Backend: kernel,
		Logger:  log.With("tcp"),
		MaxIov:  maxIov,
		Backlog: cfg.MaxPendingBacklog,
	}))
	protos.Register(udp.New(udp.Deps{
		Pool:    pool,
		Queue:   queue,
		Backend: kernel,
		Logger:  log.With("udp"),
		MaxIov:  maxIov,
	}))

	facade := control.NewFacade()
	facade.Config().SetConfig(map[string]any{
		"default_buffer_size":    cfg.DefaultBufferSize,
		"pool_high_water":        cfg.PoolHighWater,
		"max_iovecs_per_syscall": maxIov,
		"max_pending_backlog":    cfg.MaxPendingBacklog,
		"numa_node":              cfg.NUMANode,
		"poll_timeout_ms":        cfg.PollTimeout.Milliseconds(),
	})
	facade.RegisterDebugProbe("pool.stats", func() any { return pool.Stats() })

	return &Runtime{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		queue:   queue,
		polls:   polls,
		kernel:  kernel,
		protos:  protos,
		frames:  frames,
		control: facade,
		stopCh:  make(chan struct{}),
	}, nil
}

// Endpoint names a connect/listen target by host and port, deferring
// resolution to the protocol implementation.
func Endpoint(host string, port int) *api.Endpoint {
	return api.NewEndpoint(host, port)
}

// AddUserBackend registers an additional poll.Backend (typically a
// transport/userio completion-queue adapter) with this runtime's poll
// registry, so Run's single Wait call drives it alongside the kernel
// backend.
func (r *Runtime) AddUserBackend(b poll.Backend) {
	r.polls.AddBackend(b)
}

// RegisterProtocol adds (or replaces) a protocol vtable, e.g. for an
// accelerated transport built against this runtime's pool/queue/kernel.
func (r *Runtime) RegisterProtocol(p api.Protocol) {
	r.protos.Register(p)
}

// FrameworkHandle returns the per-runtime handle Create returned for the
// framework registered at slot (frameworks are assigned slots in
// cfg.Frameworks order), so the caller can build and wire that
// framework's own protocol/backend (see transport/userio.Framework).
func (r *Runtime) FrameworkHandle(slot int) any {
	return r.frames.Handle(slot)
}

// Connect resolves id to a registered protocol and establishes an
// outbound bind to addr.
func (r *Runtime) Connect(ctx context.Context, id api.ProtocolID, addr api.Address, notify api.NotifyFunc) (api.Bind, error) {
	p := r.protos.MustLookup(id)
	return p.Connect(ctx, addr, notify)
}

// Listen resolves id to a registered protocol and establishes a passive
// bind at addr.
func (r *Runtime) Listen(ctx context.Context, id api.ProtocolID, addr api.Address, acceptNotify func(api.Bind)) (api.Bind, error) {
	p := r.protos.MustLookup(id)
	return p.Listen(ctx, addr, acceptNotify)
}

// Pool exposes the runtime's shared buffer pool, for components (tests,
// accelerated transports) that need to allocate Bvecs directly.
func (r *Runtime) Pool() api.BufferPool { return r.pool }

// Queue exposes the runtime's deferral queue, for an accelerated
// transport's protocol vtable (see transport/userio.Framework.Protocol)
// to arm close teardown on the same turn boundary every other
// transport's binds use.
func (r *Runtime) Queue() *deferq.Queue { return r.queue }

// Control exposes the runtime's configuration/metrics/reload surface.
func (r *Runtime) Control() api.Control { return r.control }

// Debug exposes the runtime's introspection surface.
func (r *Runtime) Debug() api.Debug { return r.control }

// Wait performs exactly one reactor turn: a single poll across every
// registered backend bounded by timeout, followed by draining whatever
// the turn armed in the deferral queue. timeout < 0 blocks until some
// backend reports readiness; timeout == 0 polls without blocking;
// timeout > 0 bounds the wait by that budget. Run is built on top of
// this so a caller that wants hand-driven pacing (e.g. to interleave
// other work between turns) can call Wait directly instead.
func (r *Runtime) Wait(timeout time.Duration) error {
	millis := -1
	switch {
	case timeout == 0:
		millis = 0
	case timeout > 0:
		millis = int(timeout.Milliseconds())
		if millis <= 0 {
			millis = 1
		}
	}

	if _, err := r.polls.Wait(millis); err != nil {
		return err
	}
	r.queue.Run()
	r.control.Metrics().Incr("reactor.turns", 1)
	return nil
}

// Run drives the reactor loop until ctx is cancelled or Stop is called,
// calling Wait once per turn with cfg.PollTimeout as the budget.
func (r *Runtime) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-r.stopCh:
			return r.Close()
		default:
		}

		if err := r.Wait(r.cfg.PollTimeout); err != nil {
			r.log.Error("poll wait failed", "err", err)
			return err
		}
	}
}

// Stop signals Run's loop to exit and tear down on its next turn. Safe
// to call more than once or before Run starts.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Close tears down every poll backend and registered framework; the
// registered protocols' Close functions are not called. Idempotent: a
// second call returns nil. Satisfies api.GracefulShutdown.
func (r *Runtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.polls.Close()
		if fwErr := r.frames.Shutdown(); fwErr != nil && err == nil {
			err = fwErr
		}
	})
	return err
}

// Shutdown satisfies api.GracefulShutdown.
func (r *Runtime) Shutdown() error {
	r.Stop()
	return r.Close()
}

var (
	_ api.GracefulShutdown = (*Runtime)(nil)
)
