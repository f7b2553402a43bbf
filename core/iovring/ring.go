// File: core/iovring/ring.go
// Package iovring implements the power-of-two circular buffer of byte
// vectors (Bvecs) every bind uses for its send and receive queues.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ported from the bvec ring in the original evpl core (buffer.h):
// FIFO-preserving doubling growth, in-place coalescing append, partial
// consume, and gather-export for readv/writev.

package iovring

import (
	"unsafe"

	"github.com/momentics/evplgo/api"
)

const initialCapacity = 16

// Ring is a growable circular queue of api.Bvec entries.
type Ring struct {
	items []api.Bvec
	start int
	count int
}

// New creates an empty Ring with initial capacity rounded to a power of two.
func New() *Ring {
	return &Ring{items: make([]api.Bvec, initialCapacity)}
}

// Len reports the number of entries currently queued.
func (r *Ring) Len() int { return r.count }

// Empty reports whether the ring holds no entries.
func (r *Ring) Empty() bool { return r.count == 0 }

// Bytes reports the total byte length spanned by all queued entries.
func (r *Ring) Bytes() int {
	total := 0
	for i := 0; i < r.count; i++ {
		total += r.at(i).Length()
	}
	return total
}

func (r *Ring) index(i int) int { return (r.start + i) & (len(r.items) - 1) }

func (r *Ring) at(i int) *api.Bvec { return &r.items[r.index(i)] }

func (r *Ring) grow() {
	newSize := len(r.items) << 1
	newItems := make([]api.Bvec, newSize)
	for i := 0; i < r.count; i++ {
		newItems[i] = r.items[r.index(i)]
	}
	r.items = newItems
	r.start = 0
}

// Add appends v as a new entry, growing the ring if full. The ring takes
// ownership of the one refcount unit v already carries; callers that want
// to retain their own reference must Incref beforehand.
func (r *Ring) Add(v api.Bvec) {
	if r.count == len(r.items) {
		r.grow()
	}
	r.items[r.index(r.count)] = v
	r.count++
}

// Back returns a pointer to the most recently added entry, or nil if the
// ring is empty. The pointer is valid only until the next Add/grow.
func (r *Ring) Back() *api.Bvec {
	if r.count == 0 {
		return nil
	}
	return r.at(r.count - 1)
}

// Append adds length bytes from v to the ring, coalescing them into the
// current back entry in place when v's data is physically contiguous
// with it (same buffer, immediately following byte). Otherwise v is
// added as a new entry carrying one more refcount unit on its buffer.
// v is mutated to reflect the bytes consumed; once fully consumed its
// reference is dropped.
func (r *Ring) Append(v *api.Bvec, length int, eom bool) {
	chunk := v.Data[:length]

	back := r.Back()
	if back != nil && !back.EOM && back.Buffer == v.Buffer && contiguous(back.Data, chunk) {
		back.Data = back.Data[:len(back.Data)+length]
	} else {
		v.Incref()
		r.Add(api.Bvec{Buffer: v.Buffer, Data: chunk, EOM: eom})
	}

	v.Data = v.Data[length:]
	if len(v.Data) == 0 {
		v.Decref()
	}
}

// contiguous reports whether b is immediately followed in memory by next,
// i.e. whether &b[0]+len(b) == &next[0]. Both slices must share the same
// underlying buffer for this comparison to be meaningful.
func contiguous(b, next []byte) bool {
	if len(b) == 0 || len(next) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&b[len(b)-1]))+1 == uintptr(unsafe.Pointer(&next[0]))
}

// Consume drops length bytes from the front of the ring, releasing fully
// consumed entries and trimming a partially consumed one in place.
func (r *Ring) Consume(length int) {
	for length > 0 && r.count > 0 {
		front := r.at(0)
		if front.Length() <= length {
			length -= front.Length()
			front.Decref()
			r.start = r.index(1)
			r.count--
		} else {
			front.Data = front.Data[length:]
			length = 0
		}
	}
}

// Take removes length bytes from the front of the ring and returns them
// as Bvecs, transferring their reference ownership to the caller (unlike
// Consume, which drops the ring's own references). A final entry that
// only partially satisfies length is split: the returned prefix carries
// a fresh reference on the shared buffer, and the ring keeps the suffix.
func (r *Ring) Take(length int) []api.Bvec {
	var out []api.Bvec
	for length > 0 && r.count > 0 {
		front := r.at(0)
		if front.Length() <= length {
			out = append(out, *front)
			length -= front.Length()
			r.start = r.index(1)
			r.count--
		} else {
			taken := api.Bvec{Buffer: front.Buffer, Data: front.Data[:length]}
			taken.Incref()
			front.Data = front.Data[length:]
			out = append(out, taken)
			length = 0
		}
	}
	return out
}

// Clear releases every queued entry and empties the ring.
func (r *Ring) Clear() {
	for i := 0; i < r.count; i++ {
		r.at(i).Decref()
	}
	r.start = 0
	r.count = 0
}

// Iov exports up to maxIov queued entries as net-package-compatible byte
// slices for a scatter/gather readv/writev call. If stopOnEOM is set,
// export stops (inclusive) at the first entry marked EOM. Returns the
// exported slices and their total length.
func (r *Ring) Iov(maxIov int, stopOnEOM bool) (segs [][]byte, total int) {
	n := r.count
	if n > maxIov {
		n = maxIov
	}
	segs = make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		v := r.at(i)
		segs = append(segs, v.Data)
		total += v.Length()
		if stopOnEOM && v.EOM {
			break
		}
	}
	return segs, total
}
