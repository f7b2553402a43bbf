// File: core/framework/framework.go
// Package framework implements the plugin contract higher-level
// libraries (an RPC layer, a message broker binding) use to attach
// private, per-buffer state to the runtime without the core knowing
// anything about its shape.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package framework

import "github.com/momentics/evplgo/api"

// Framework is implemented by a plugin registered with an engine.Runtime
// at construction time.
type Framework interface {
	// Init runs once, process-wide, the first time this framework type is
	// registered with any runtime. Implementations must be safe to call
	// concurrently from multiple runtimes and idempotent after the first
	// successful call.
	Init() error

	// Create runs once per runtime that registers this framework,
	// returning an opaque per-runtime handle the framework can stash.
	Create() (any, error)

	// Destroy tears down the per-runtime handle returned by Create.
	Destroy(handle any) error

	// Cleanup runs at process exit (or test teardown) to release any
	// process-wide state Init allocated.
	Cleanup() error
}

// Registry assigns each registered Framework a stable slot index into
// every Buffer's FrameworkSlots array, and drives the Init/Create/
// Destroy/Cleanup lifecycle described above.
type Registry struct {
	entries []entry
}

type entry struct {
	fw     Framework
	handle any
}

// NewRegistry creates an empty framework registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fw, assigning it the next free slot index. Must be
// called before any engine.Runtime allocates buffers, since
// NumSlots determines the size of every Buffer.FrameworkSlots array.
func (r *Registry) Register(fw Framework) (slot int, err error) {
	if err := fw.Init(); err != nil {
		return 0, err
	}
	handle, err := fw.Create()
	if err != nil {
		return 0, err
	}
	slot = len(r.entries)
	r.entries = append(r.entries, entry{fw: fw, handle: handle})
	return slot, nil
}

// NumSlots reports how many FrameworkSlots every Buffer allocated by a
// pool wired to this registry must carry.
func (r *Registry) NumSlots() int { return len(r.entries) }

// Handle returns the per-runtime handle Create returned for the
// framework registered at slot.
func (r *Registry) Handle(slot int) any {
	api.AbortIf(slot < 0 || slot >= len(r.entries), "framework: slot %d out of range", slot)
	return r.entries[slot].handle
}

// Shutdown calls Destroy on every registered framework's handle, in
// reverse registration order, then Cleanup. Returns the first error
// encountered, continuing to tear down the rest regardless.
func (r *Registry) Shutdown() error {
	var first error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if err := e.fw.Destroy(e.handle); err != nil && first == nil {
			first = err
		}
	}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if err := r.entries[i].fw.Cleanup(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
