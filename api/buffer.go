// File: api/buffer.go
// Package api defines Buffer, Bvec and BufferPool — the zero-copy memory
// contract shared by core/buffer, core/iovring and every transport.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "sync/atomic"

// Buffer is a pooled, reference-counted, contiguous region of memory.
// It is always handled as *Buffer so refcount mutation and pool return
// are visible to every holder of a Bvec that references it.
type Buffer struct {
	data []byte
	used int // bump-allocated watermark; used <= len(data)
	refs atomic.Int32

	NUMA  int
	Class int
	Pool  BufferPool

	// FrameworkSlots is opaque, per-framework storage, one slot per
	// framework registered with the owning runtime at construction time.
	// The core never interprets its contents; see core/framework.
	FrameworkSlots []any
}

// NewBuffer wraps data as a fresh Buffer with a starting refcount of zero;
// the pool handing it out is expected to Incref before returning it.
func NewBuffer(data []byte, numa, class int, pool BufferPool) *Buffer {
	return &Buffer{data: data, NUMA: numa, Class: class, Pool: pool}
}

// Bytes returns the full backing region, including any unused tail.
func (b *Buffer) Bytes() []byte { return b.data }

// Used returns the bump-allocated watermark.
func (b *Buffer) Used() int { return b.used }

// Left reports remaining unused capacity.
func (b *Buffer) Left() int { return len(b.data) - b.used }

// Bump advances the used watermark by n bytes, returning the region just
// claimed. A request past the buffer's capacity is a caller bug in the
// allocator, not a recoverable condition.
func (b *Buffer) Bump(n int) []byte {
	AbortIf(n < 0 || b.used+n > len(b.data), "buffer bump %d overruns capacity (used=%d size=%d)", n, b.used, len(b.data))
	start := b.used
	b.used += n
	return b.data[start:b.used]
}

// RefCount returns the current reference count.
func (b *Buffer) RefCount() int32 { return b.refs.Load() }

// Incref adds one reference unit. Callers must hold a Bvec or equivalent
// claim on the buffer before calling this.
func (b *Buffer) Incref() { b.refs.Add(1) }

// Decref removes one reference unit, returning the buffer to its pool when
// the count reaches zero. Decref below zero is a fatal double-release.
func (b *Buffer) Decref() {
	n := b.refs.Add(-1)
	AbortIf(n < 0, "buffer released with negative refcount")
	if n == 0 && b.Pool != nil {
		b.Pool.Reclaim(b)
	}
}

// ResetForReuse clears the bump-allocation watermark and framework slot
// contents so a reclaimed buffer is safe to hand back out of a free list.
// Callers must only invoke this once refcount has reached zero.
func (b *Buffer) ResetForReuse() {
	b.used = 0
	for i := range b.FrameworkSlots {
		b.FrameworkSlots[i] = nil
	}
}

// NUMANode returns the NUMA node (or pool shard) this buffer was allocated from.
func (b *Buffer) NUMANode() int { return b.NUMA }

// Pad returns the number of bytes needed to align the used watermark to
// the given power-of-two alignment.
func (b *Buffer) Pad(alignment int) int {
	return (alignment - (b.used & (alignment - 1))) & (alignment - 1)
}

// Bvec (byte vector) is a view into a Buffer plus an end-of-message marker.
// Holding a Bvec implies exactly one refcount unit on Buffer; callers must
// not mutate Data once the Bvec has been placed into any ring.
type Bvec struct {
	Buffer *Buffer
	Data   []byte
	EOM    bool
}

// Length returns the number of bytes this vector currently spans.
func (v Bvec) Length() int { return len(v.Data) }

// Incref adds a reference unit to the underlying buffer.
func (v Bvec) Incref() {
	if v.Buffer != nil {
		v.Buffer.Incref()
	}
}

// Decref removes a reference unit from the underlying buffer.
func (v Bvec) Decref() {
	if v.Buffer != nil {
		v.Buffer.Decref()
	}
}

// BufferPool provides zero-copy buffer allocation, sized in classes and
// optionally sharded by NUMA node; see core/buffer for the concrete impl.
type BufferPool interface {
	// AllocateWhole returns a Bvec covering one fresh default-size buffer.
	AllocateWhole() Bvec

	// Allocate returns 1..maxBvecs contiguous segments whose total length
	// covers length, each aligned to alignment.
	Allocate(length, alignment, maxBvecs int) []Bvec

	// Release decrements the underlying buffer's refcount, returning it to
	// the pool at zero. Aborts fatally on an already-zero refcount.
	Release(v Bvec)

	// Stats reports pool-wide allocation counters.
	Stats() BufferPoolStats

	// Reclaim returns a drained buffer (refcount reached zero) to the pool.
	// Called by Buffer.Decref; not intended to be called directly.
	Reclaim(b *Buffer)
}

// BufferPoolStats summarizes pool usage for control/debug surfaces.
type BufferPoolStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
	ShardStats map[int]int64
}
