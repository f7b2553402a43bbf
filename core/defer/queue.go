// File: core/defer/queue.go
// Package deferq implements the end-of-turn deferral queue every bind's
// close lifecycle and other turn-boundary teardown runs through.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deferred callbacks are the only safe site for freeing state a handler
// is currently running on top of: I/O dispatch for a loop turn can arm a
// deferral but must never execute teardown inline. Grounded on the
// teacher's queue-backed task dispatch (internal/concurrency/executor.go),
// adapted from a worker-pool task queue into a single-threaded,
// idempotent, re-armable deferral FIFO.

package deferq

import "github.com/eapache/queue"

// Deferred is a single-shot, idempotently-armable callback. Arming it
// more than once before it runs enqueues it exactly once; after it runs,
// it may be armed again to schedule another turn.
type Deferred struct {
	cb    func()
	armed bool
}

// NewDeferred wraps cb in a Deferred, initially disarmed.
func NewDeferred(cb func()) *Deferred {
	return &Deferred{cb: cb}
}

// Armed reports whether this Deferred is currently queued to run.
func (d *Deferred) Armed() bool { return d.armed }

// Queue is the FIFO of armed Deferred callbacks, drained once per loop
// turn after all I/O dispatch for that turn has completed.
type Queue struct {
	q *queue.Queue
}

// New creates an empty deferral queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Arm enqueues d if it is not already armed; repeated calls before the
// next Run are no-ops, making arming idempotent.
func (dq *Queue) Arm(d *Deferred) {
	if d.armed {
		return
	}
	d.armed = true
	dq.q.Add(d)
}

// Len reports the number of deferrals armed but not yet run.
func (dq *Queue) Len() int { return dq.q.Length() }

// Run invokes every Deferred armed before this call began, exactly once
// each, clearing each one's armed flag so it may be re-armed for a
// future turn. A callback that arms a new Deferred during Run does not
// have it drained until the following call, preserving turn boundaries.
func (dq *Queue) Run() {
	n := dq.q.Length()
	for i := 0; i < n; i++ {
		d := dq.q.Remove().(*Deferred)
		d.armed = false
		d.cb()
	}
}
