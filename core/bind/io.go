// File: core/bind/io.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport-agnostic drain routines. A protocol's ioevent read/write
// callbacks call these, injecting the actual syscall (readv/writev for
// TCP, recvfrom/sendto for UDP) as a closure; the ring bookkeeping,
// segmentation protocol, and notification dispatch live here once.

package bind

import "github.com/momentics/evplgo/api"

// WritevFunc performs one scatter write of segs, returning the number of
// bytes actually written. A transient condition (EAGAIN) must be
// reported as (0, nil), not an error; any non-nil error is treated as
// fatal to the connection and triggers RequestClose(err).
type WritevFunc func(segs [][]byte) (int, error)

// ReadvFunc performs one gather read into segs, returning the number of
// bytes actually read. (0, nil) means the peer performed an orderly
// shutdown; a non-nil error triggers RequestClose(err).
type ReadvFunc func(segs [][]byte) (int, error)

// DrainSend flushes as much of the send ring as one writev call can
// take, consumes what was written, and fires NotifySent if armed and
// the ring fully drained. Called from a stream protocol's write-ready
// callback.
func (b *Bind) DrainSend(writev WritevFunc) {
	if b.closed {
		return
	}

	segs, total := b.sendRing.Iov(b.maxIov, b.datagram)
	if len(segs) == 0 {
		b.event.WriteDisinterested()
		return
	}

	n, err := writev(segs)
	if err != nil {
		b.RequestClose(err)
		return
	}
	if n == 0 && total > 0 {
		b.event.MarkUnwritable()
		return
	}

	b.sendRing.Consume(n)

	if b.sendRing.Empty() && b.sendNotifyArmed {
		b.sendNotifyArmed = false
		b.notify(b, api.Notification{Kind: api.NotifySent, Address: b.remote})
	}

	if b.sendRing.Empty() {
		b.event.WriteDisinterested()
		if b.finishRequested {
			b.RequestClose(nil)
		}
	} else {
		b.event.MarkUnwritable()
	}
}

// DrainRecv performs one double-buffered gather read (recv1/recv2),
// appends whatever arrived into the receive ring, and runs the
// segmentation protocol (or a plain NotifyRecvData) over the result.
// Called from a stream protocol's read-ready callback.
func (b *Bind) DrainRecv(readv ReadvFunc) {
	if b.closed {
		return
	}

	a, spare := b.takeRecvBuffers()
	segs := [][]byte{a.Data, spare.Data}
	total := len(a.Data) + len(spare.Data)

	n, err := readv(segs)
	if err != nil {
		b.returnRecvBuffers(a, spare)
		b.RequestClose(err)
		return
	}
	if n == 0 {
		b.returnRecvBuffers(a, spare)
		b.RequestClose(api.ErrPeerClosed)
		return
	}

	if len(a.Data) >= n {
		b.recvRing.Append(&a, n, false)
	} else {
		remain := n - len(a.Data)
		full := len(a.Data)
		b.recvRing.Append(&a, full, false)
		b.recvRing.Append(&spare, remain, false)
	}
	b.returnRecvBuffers(a, spare)

	b.processSegments()

	if n < total {
		b.event.MarkUnreadable()
	}
}

func (b *Bind) takeRecvBuffers() (a, spare api.Bvec) {
	if b.recv1.Buffer == nil {
		if b.recv2.Buffer != nil {
			b.recv1 = b.recv2
			b.recv2 = api.Bvec{}
		} else {
			b.recv1 = b.pool.AllocateWhole()
		}
	}
	if b.recv2.Buffer == nil {
		b.recv2 = b.pool.AllocateWhole()
	}
	a, spare = b.recv1, b.recv2
	b.recv1, b.recv2 = api.Bvec{}, api.Bvec{}
	return a, spare
}

// returnRecvBuffers stashes back whichever of a/spare still holds unused
// bytes (DrainRecv's Append calls may have fully consumed either or
// both), so the next DrainRecv call can reuse it instead of allocating.
func (b *Bind) returnRecvBuffers(a, spare api.Bvec) {
	if a.Buffer != nil && a.Length() > 0 {
		b.recv1 = a
	}
	if spare.Buffer != nil && spare.Length() > 0 {
		if b.recv1.Buffer == nil {
			b.recv1 = spare
		} else {
			b.recv2 = spare
		}
	}
}

// processSegments runs the segmentation protocol over the receive ring,
// delivering one NotifyRecvMsg per complete message, or a single
// NotifyRecvData if no segmentation callback is configured. Each complete
// message is taken off the ring and handed to the application inline via
// Notification.Messages, so the common case needs no separate RecvMsg
// call back into the bind.
func (b *Bind) processSegments() {
	if b.segment == nil {
		b.notify(b, api.Notification{Kind: api.NotifyRecvData, Address: b.remote})
		return
	}

	for {
		queued := b.recvRing.Bytes()
		length := b.segment(queued)
		if length == 0 || queued < length {
			return
		}
		if length < 0 {
			b.RequestClose(api.ErrProtocol(-length, nil))
			return
		}
		msg := b.recvRing.Take(length)
		b.notify(b, api.Notification{Kind: api.NotifyRecvMsg, Address: b.remote, Messages: msg})
	}
}
