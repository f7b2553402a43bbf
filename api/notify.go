// File: api/notify.go
// Package api defines the notification contract binds use to report
// lifecycle and I/O events to their owning application.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "strconv"

// NotifyKind identifies the category of a Notification.
type NotifyKind int

const (
	// NotifyConnected reports a bind's connect (or accept) completed.
	NotifyConnected NotifyKind = iota
	// NotifyDisconnected reports a bind has torn down; Error, if non-nil,
	// carries the reason (ErrPeerClosed, a *ProtocolError, or nil for a
	// locally requested close).
	NotifyDisconnected
	// NotifyRecvData reports a stream bind has data ready in its recv ring.
	NotifyRecvData
	// NotifyRecvMsg reports one complete message ready: a datagram, or a
	// segment cut by a stream bind's segmentation callback.
	NotifyRecvMsg
	// NotifySent reports queued send data has been flushed to the transport.
	NotifySent
)

// Notification is delivered to a bind's NotifyFunc. Notifications are
// closures bound to a specific bind instance, not entries in a global
// callback table, so application state capture is direct and type-safe.
type Notification struct {
	Kind    NotifyKind
	Error   error // set only for NotifyDisconnected
	Address Address

	// Messages carries the complete message as zero-copy Bvecs, set only
	// for NotifyRecvMsg: unlike NotifyRecvData (which only signals that a
	// Recv call will find bytes), a message's boundary is already known
	// the instant it completes, so it is handed over directly instead of
	// making the application call RecvMsg a second time. Ownership
	// transfers to the callback; each Bvec must be Decref'd once done.
	Messages []Bvec
}

// NotifyFunc receives notifications for a single bind, along with the
// Bind itself so the application can pull queued data out (Recv/RecvMsg)
// or issue further Send/Close calls from within the callback. It is
// invoked from the owning engine.Runtime's loop goroutine and must not
// block.
type NotifyFunc func(Bind, Notification)

// Address identifies an endpoint (local or remote) in a protocol-neutral
// way; protocols populate Host/Port and may place a richer native
// representation in Native.
type Address struct {
	Host   string
	Port   int
	Native any
}

func (a Address) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}
