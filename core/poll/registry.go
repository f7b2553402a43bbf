// File: core/poll/registry.go
// Package poll abstracts over the two shapes a readiness source can
// take: a blocking kernel poll (epoll) and a user-space poll callback
// driven by an accelerated transport's own completion mechanism
// (RDMA/DPDK-class queues, see transport/userio).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poll

import "github.com/momentics/evplgo/core/ioevent"

// Backend is implemented by every poll source a Registry can drive.
type Backend interface {
	// Add registers event for readiness notification.
	Add(event *ioevent.Event) error
	// Remove unregisters event; further readiness on its fd is ignored.
	Remove(event *ioevent.Event) error
	// Wait blocks up to timeoutMillis (negative means forever) for
	// readiness, dispatching MarkReadable/MarkWritable/MarkError on
	// every event that became ready. Returns the number dispatched.
	Wait(timeoutMillis int) (int, error)
	// Close releases backend resources.
	Close() error
}

// UserPollFunc is supplied by an accelerated transport that drives its
// own completion queue instead of a kernel readiness mechanism. It is
// invoked once per Wait call and should dispatch Mark* on any events it
// knows became ready, returning how many it dispatched.
type UserPollFunc func(timeoutMillis int) (int, error)

// Registry multiplexes one or more Backends behind a single Wait call,
// so an engine.Runtime can mix a kernel epoll backend with one or more
// user-poll backends (one per accelerated transport) in the same loop.
type Registry struct {
	backends []Backend
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddBackend registers a Backend with the registry; every call to Wait
// polls all registered backends.
func (r *Registry) AddBackend(b Backend) {
	r.backends = append(r.backends, b)
}

// Wait polls every registered backend once, in registration order, each
// with the given timeout, returning the total number of events
// dispatched across all of them.
func (r *Registry) Wait(timeoutMillis int) (int, error) {
	total := 0
	for _, b := range r.backends {
		n, err := b.Wait(timeoutMillis)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Close closes every registered backend, returning the first error
// encountered (if any) after attempting to close them all.
func (r *Registry) Close() error {
	var first error
	for _, b := range r.backends {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
