// File: core/buffer/pool.go
// Package buffer implements a NUMA-sharded, size-classed zero-copy
// BufferPool backed by bytedance/gopkg's mcache size-classed allocator.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/concurrency"
)

const (
	// DefaultSize is the size of one pooled buffer segment.
	DefaultSize = 64 * 1024

	// freeListCapacity bounds the per-shard free-list length; beyond this,
	// a returned buffer's backing block is released via mcache.Free rather
	// than pooled.
	freeListCapacity = 4096
)

// Pool is the canonical api.BufferPool implementation. One Pool is
// typically shared by an entire engine.Runtime, with shards keyed by NUMA
// node (node -1 meaning "no preference").
type Pool struct {
	numFrameworkSlots int

	mu     sync.RWMutex
	shards map[int]*shard

	allocTotal atomic.Int64
	freeTotal  atomic.Int64
	inUse      atomic.Int64
}

type shard struct {
	numa int
	free *concurrency.LockFreeQueue[*api.Buffer]
}

// New creates an empty Pool. numFrameworkSlots sizes the FrameworkSlots
// array stamped onto every buffer this pool allocates — one slot per
// framework registered with the owning runtime (see core/framework).
func New(numFrameworkSlots int) *Pool {
	return &Pool{numFrameworkSlots: numFrameworkSlots, shards: make(map[int]*shard)}
}

func (p *Pool) shardFor(numa int) *shard {
	p.mu.RLock()
	s, ok := p.shards[numa]
	p.mu.RUnlock()
	if ok {
		return s
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.shards[numa]; ok {
		return s
	}
	s = &shard{numa: numa, free: concurrency.NewLockFreeQueue[*api.Buffer](freeListCapacity)}
	p.shards[numa] = s
	return s
}

// AllocateWhole returns a Bvec covering one fresh default-size buffer.
func (p *Pool) AllocateWhole() api.Bvec {
	return p.allocateOne(-1)
}

func (p *Pool) allocateOne(numa int) api.Bvec {
	s := p.shardFor(numa)

	if buf, ok := s.free.Dequeue(); ok {
		buf.Incref()
		p.inUse.Add(1)
		return api.Bvec{Buffer: buf, Data: buf.Bytes()}
	}

	data := mcache.Malloc(DefaultSize)
	buf := api.NewBuffer(data, numa, classOf(DefaultSize), p)
	if p.numFrameworkSlots > 0 {
		buf.FrameworkSlots = make([]any, p.numFrameworkSlots)
	}
	buf.Incref()
	p.allocTotal.Add(1)
	p.inUse.Add(1)
	return api.Bvec{Buffer: buf, Data: buf.Bytes()}
}

// Allocate returns 1..maxBvecs contiguous segments whose combined length
// covers length. alignment is honored best-effort: every segment after
// the first begins at offset zero of a fresh buffer, which mcache's
// size-classed allocation already aligns to at least the platform word
// size, covering every alignment request this runtime's transports make.
func (p *Pool) Allocate(length, alignment, maxBvecs int) []api.Bvec {
	api.AbortIf(length <= 0, "buffer: Allocate called with non-positive length %d", length)
	api.AbortIf(maxBvecs <= 0, "buffer: Allocate called with non-positive maxBvecs %d", maxBvecs)

	segments := (length + DefaultSize - 1) / DefaultSize
	api.AbortIf(segments > maxBvecs, "buffer: length %d needs %d segments, exceeds maxBvecs %d", length, segments, maxBvecs)

	out := make([]api.Bvec, 0, segments)
	remaining := length
	for remaining > 0 {
		v := p.allocateOne(-1)
		n := remaining
		if n > len(v.Data) {
			n = len(v.Data)
		}
		v.Data = v.Data[:n]
		out = append(out, v)
		remaining -= n
	}
	return out
}

// Release decrements the underlying buffer's refcount via Bvec.Decref,
// which calls back into Reclaim once the count reaches zero.
func (p *Pool) Release(v api.Bvec) {
	v.Decref()
}

// Reclaim returns a drained buffer to its shard's free list, or releases
// its backing block via mcache.Free if the free list is saturated.
func (p *Pool) Reclaim(b *api.Buffer) {
	p.inUse.Add(-1)
	p.freeTotal.Add(1)

	s := p.shardFor(b.NUMANode())
	b.ResetForReuse()
	if !s.free.Enqueue(b) {
		mcache.Free(b.Bytes())
	}
}

// Stats reports pool-wide allocation counters.
func (p *Pool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: p.allocTotal.Load(),
		TotalFree:  p.freeTotal.Load(),
		InUse:      p.inUse.Load(),
	}
}

// classOf maps a requested size to a coarse size-class index used only
// for stats grouping; mcache itself picks the real underlying size class.
func classOf(size int) int {
	class := 0
	for n := DefaultSize; n < size; n <<= 1 {
		class++
	}
	return class
}
