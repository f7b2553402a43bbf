// File: engine/config.go
// Package engine exposes Runtime, the single-threaded-per-instance
// reactor that owns the buffer pool, poll registry, deferral queue, and
// protocol/framework registries, and drives every registered Bind's
// read/write callbacks once per loop turn.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's facade.HioloadWS/facade.Config construction
// sequence (control -> pool -> transport -> poller, one-call New/Start/
// Stop), adapted from a WebSocket-specific facade into the generic
// protocol/framework-agnostic reactor spec.md §6 describes.

package engine

import (
	"time"

	"github.com/momentics/evplgo/core/framework"
	"github.com/momentics/evplgo/internal/logging"
)

// Config carries every tuning knob a Runtime needs at construction.
// Matches the Config keys table from spec.md §6, plus the ambient
// logging/control additions SPEC_FULL.md documents.
type Config struct {
	// DefaultBufferSize is recorded in the control config snapshot
	// ("default_buffer_size"). The buffer pool does not read it: every
	// pooled segment is core/buffer.DefaultSize (64 KiB) whatever its value.
	DefaultBufferSize int

	// PoolHighWater is recorded in the control config snapshot
	// ("pool_high_water"). The buffer pool does not read it: each shard's
	// free list is bounded by core/buffer's built-in capacity (4096).
	PoolHighWater int

	// MaxIovecsPerSyscall bounds how many ring entries a single
	// readv/writev call gathers; 0 means 16 (core/bind's default).
	MaxIovecsPerSyscall int

	// MaxPendingBacklog is the listen backlog handed to transport/tcp
	// (tcp.Deps.Backlog, which falls back to 128 when it is 0 or
	// negative). UDP binds have no listen backlog.
	MaxPendingBacklog int

	// PollBackend names the kernel readiness backend ("epoll"). New does
	// not read it: it always builds core/poll.NewEpollBackend.
	PollBackend string

	// NUMANode is recorded in the control config snapshot ("numa_node");
	// -1 (the default) means no preference. The buffer pool does not read
	// it: AllocateWhole and Allocate always use shard -1.
	NUMANode int

	// Frameworks lists plugins to register at New time, in order;
	// each gets a sequential FrameworkSlots index (core/framework).
	Frameworks []framework.Framework

	// PollTimeout bounds how long one Run loop turn blocks waiting for
	// readiness before running the deferral queue and checking for Stop.
	PollTimeout time.Duration

	// Logger overrides the runtime's internal/logging.Logger; nil means
	// internal/logging.New("engine", nil) (leveled, stderr, Info).
	Logger *logging.Logger
}

// DefaultConfig returns the baseline configuration used when New is
// called with a nil Config.
func DefaultConfig() *Config {
	return &Config{
		DefaultBufferSize:   0,
		PoolHighWater:       0,
		MaxIovecsPerSyscall: 16,
		MaxPendingBacklog:   128,
		PollBackend:         "epoll",
		NUMANode:            -1,
		PollTimeout:         100 * time.Millisecond,
	}
}
