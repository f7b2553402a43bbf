// File: core/ioevent/event.go
// Package ioevent implements the readiness/interest bit machine every
// poll backend and bind sits on top of.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ported bit-for-bit from the original evpl core's event.h: six
// orthogonal flags plus two derived "ready" predicates. Dispatch fires a
// callback only when both the readiness bit and the matching interest
// bit are set, so a poll backend reporting readiness on a descriptor
// nobody currently cares about is simply dropped.

package ioevent

// Flags is a bitmask over the six orthogonal readiness/interest bits.
type Flags uint32

const (
	Readable     Flags = 0x01
	Writable     Flags = 0x02
	Error        Flags = 0x04
	Active       Flags = 0x08
	ReadInterest Flags = 0x10
	WriteInterest Flags = 0x20

	ReadReady  = Readable | ReadInterest
	WriteReady = Writable | WriteInterest
)

// Callback is invoked when an Event transitions into read-ready,
// write-ready, or error state.
type Callback func(*Event)

// Event binds a file descriptor (or user-poll handle, see core/poll) to
// read/write/error callbacks and tracks its current flag state. It is
// not safe for concurrent use — all mutation happens on the owning
// engine.Runtime's single loop goroutine.
type Event struct {
	FD    int
	flags Flags

	ReadCallback  Callback
	WriteCallback Callback
	ErrorCallback Callback
}

// New constructs an Event for fd with no interest or readiness set.
func New(fd int) *Event {
	return &Event{FD: fd}
}

// Flags returns the event's current bitmask.
func (e *Event) Flags() Flags { return e.flags }

// Set applies bits to the event's flags.
func (e *Event) Set(bits Flags) { e.flags |= bits }

// Clear removes bits from the event's flags.
func (e *Event) Clear(bits Flags) { e.flags &^= bits }

// Has reports whether all of bits are currently set.
func (e *Event) Has(bits Flags) bool { return e.flags&bits == bits }

// ReadInterested arms read dispatch: read_callback fires whenever the
// event is also marked Readable.
func (e *Event) ReadInterested() { e.Set(ReadInterest) }

// ReadDisinterested disarms read dispatch.
func (e *Event) ReadDisinterested() { e.Clear(ReadInterest) }

// WriteInterested arms write dispatch.
func (e *Event) WriteInterested() { e.Set(WriteInterest) }

// WriteDisinterested disarms write dispatch.
func (e *Event) WriteDisinterested() { e.Clear(WriteInterest) }

// MarkReadable records that the descriptor has data available, and
// dispatches ReadCallback immediately if read interest is armed.
func (e *Event) MarkReadable() {
	e.Set(Readable)
	if e.Has(ReadReady) && e.ReadCallback != nil {
		e.ReadCallback(e)
	}
}

// MarkUnreadable clears the readable bit, e.g. after a read drains a
// socket to EAGAIN.
func (e *Event) MarkUnreadable() { e.Clear(Readable) }

// MarkWritable records that the descriptor can accept more data, and
// dispatches WriteCallback immediately if write interest is armed.
func (e *Event) MarkWritable() {
	e.Set(Writable)
	if e.Has(WriteReady) && e.WriteCallback != nil {
		e.WriteCallback(e)
	}
}

// MarkUnwritable clears the writable bit.
func (e *Event) MarkUnwritable() { e.Clear(Writable) }

// MarkError sets the error bit and unconditionally dispatches
// ErrorCallback; errors are always reported regardless of interest.
func (e *Event) MarkError() {
	e.Set(Error)
	if e.ErrorCallback != nil {
		e.ErrorCallback(e)
	}
}
