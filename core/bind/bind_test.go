// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package bind

import (
	"testing"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/buffer"
	"github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/ioevent"
)

func newTestBind(t *testing.T, notify api.NotifyFunc, segment SegmentFunc) (*Bind, *ioevent.Event, *deferq.Queue) {
	t.Helper()
	pool := buffer.New(0)
	dq := deferq.New()
	ev := ioevent.New(3)
	b := New(Config{
		Protocol: api.Protocol{ID: api.ProtocolStreamTCP, IsStream: true, IsConnected: true},
		Local:    api.Address{Host: "127.0.0.1", Port: 1},
		Remote:   api.Address{Host: "127.0.0.1", Port: 2},
		Notify:   notify,
		Segment:  segment,
		Pool:     pool,
		Queue:    dq,
		Event:    ev,
	})
	return b, ev, dq
}

func recordingNotify(notes *[]api.Notification) api.NotifyFunc {
	return func(_ api.Bind, n api.Notification) { *notes = append(*notes, n) }
}

func TestBind_SendArmsWriteInterest(t *testing.T) {
	var notes []api.Notification
	b, ev, _ := newTestBind(t, recordingNotify(&notes), nil)

	pool := buffer.New(0)
	v := pool.AllocateWhole()
	v.Data = v.Data[:4]

	if err := b.Send(v); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !ev.Has(ioevent.WriteInterest) {
		t.Fatal("expected write interest armed after Send")
	}
}

func TestBind_DrainSend_FlushesAndNotifiesSent(t *testing.T) {
	var notes []api.Notification
	b, ev, _ := newTestBind(t, recordingNotify(&notes), nil)

	pool := buffer.New(0)
	v := pool.AllocateWhole()
	v.Data = v.Data[:4]
	copy(v.Data, []byte("ping"))

	if err := b.Send(v); err != nil {
		t.Fatalf("Send: %v", err)
	}
	b.RequestSendNotifications()

	var written []byte
	b.DrainSend(func(segs [][]byte) (int, error) {
		n := 0
		for _, s := range segs {
			written = append(written, s...)
			n += len(s)
		}
		return n, nil
	})

	if string(written) != "ping" {
		t.Fatalf("expected writev to see %q, got %q", "ping", written)
	}
	if !b.sendRing.Empty() {
		t.Fatalf("expected send ring drained, %d bytes remain", b.sendRing.Bytes())
	}
	if ev.Has(ioevent.WriteInterest) {
		t.Fatal("expected write interest disarmed once ring drains")
	}
	if len(notes) != 1 || notes[0].Kind != api.NotifySent {
		t.Fatalf("expected exactly one NotifySent, got %+v", notes)
	}
}

func TestBind_DrainSend_PartialWriteMarksUnwritable(t *testing.T) {
	var notes []api.Notification
	b, ev, _ := newTestBind(t, recordingNotify(&notes), nil)

	pool := buffer.New(0)
	v := pool.AllocateWhole()
	v.Data = v.Data[:10]

	_ = b.Send(v)
	b.DrainSend(func(segs [][]byte) (int, error) { return 4, nil })

	if b.sendRing.Bytes() != 6 {
		t.Fatalf("expected 6 bytes remaining after partial write, got %d", b.sendRing.Bytes())
	}
	if ev.Has(ioevent.Writable) {
		t.Fatal("expected writable bit cleared after partial write")
	}
	if len(notes) != 0 {
		t.Fatalf("expected no notifications on partial write, got %+v", notes)
	}
}

func TestBind_Finish_ClosesImmediatelyWhenSendRingEmpty(t *testing.T) {
	var notes []api.Notification
	b, _, dq := newTestBind(t, recordingNotify(&notes), nil)

	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	dq.Run()

	if len(notes) != 1 || notes[0].Kind != api.NotifyDisconnected {
		t.Fatalf("expected one NotifyDisconnected after Finish with empty ring, got %+v", notes)
	}
}

func TestBind_Finish_DefersCloseUntilSendRingDrains(t *testing.T) {
	var notes []api.Notification
	b, _, dq := newTestBind(t, recordingNotify(&notes), nil)

	pool := buffer.New(0)
	v := pool.AllocateWhole()
	v.Data = v.Data[:4]
	_ = b.Send(v)

	_ = b.Finish()
	dq.Run()
	if len(notes) != 0 {
		t.Fatalf("expected no close while send ring still holds data, got %+v", notes)
	}

	b.DrainSend(func(segs [][]byte) (int, error) { return 4, nil })
	dq.Run()
	if len(notes) != 1 || notes[0].Kind != api.NotifyDisconnected {
		t.Fatalf("expected close once send ring finally drains, got %+v", notes)
	}
}

func TestBind_Close_IsIdempotentSingleNotification(t *testing.T) {
	var notes []api.Notification
	b, _, dq := newTestBind(t, recordingNotify(&notes), nil)

	_ = b.Close()
	_ = b.Close()
	b.RequestClose(nil)
	dq.Run()
	dq.Run() // a second Run with nothing newly armed must not re-fire

	if len(notes) != 1 {
		t.Fatalf("expected exactly one NotifyDisconnected across repeated Close calls, got %d", len(notes))
	}
}

func TestBind_Send_AfterClose_AbortsFatally(t *testing.T) {
	var notes []api.Notification
	b, _, _ := newTestBind(t, recordingNotify(&notes), nil)

	_ = b.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected Send after Close to abort fatally")
		}
	}()

	pool := buffer.New(0)
	v := pool.AllocateWhole()
	v.Data = v.Data[:1]
	_ = b.Send(v)
}

func TestBind_DrainRecv_NoSegmentFunc_EmitsRecvData(t *testing.T) {
	var notes []api.Notification
	b, _, _ := newTestBind(t, recordingNotify(&notes), nil)

	payload := []byte("hello")
	b.DrainRecv(func(segs [][]byte) (int, error) {
		return copy(segs[0], payload), nil
	})

	if len(notes) != 1 || notes[0].Kind != api.NotifyRecvData {
		t.Fatalf("expected one NotifyRecvData, got %+v", notes)
	}

	buf := make([]byte, len(payload))
	n, err := b.Recv(buf)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("expected Recv to return %q, got %q", "hello", buf[:n])
	}
}

func TestBind_DrainRecv_SegmentedMessage_EmitsRecvMsg(t *testing.T) {
	var notes []api.Notification
	// 2-byte length prefix segmentation: need at least 2 bytes to read the
	// length, then length total bytes to complete the message.
	segment := func(queued int) int {
		if queued < 2 {
			return 0
		}
		return 2 + 3 // fixed 3-byte body for this test
	}
	b, _, _ := newTestBind(t, recordingNotify(&notes), segment)

	payload := []byte{0, 3, 'a', 'b', 'c'}
	b.DrainRecv(func(segs [][]byte) (int, error) {
		return copy(segs[0], payload), nil
	})

	if len(notes) != 1 || notes[0].Kind != api.NotifyRecvMsg {
		t.Fatalf("expected one NotifyRecvMsg, got %+v", notes)
	}

	var got []byte
	for _, v := range notes[0].Messages {
		got = append(got, v.Data...)
		v.Decref()
	}
	if string(got) != string(payload) {
		t.Fatalf("expected Notification.Messages to carry %q, got %q", payload, got)
	}
}

func TestBind_RecvMsg_WithoutSegmentFunc_NotSupported(t *testing.T) {
	b, _, _ := newTestBind(t, recordingNotify(&[]api.Notification{}), nil)
	if _, err := b.RecvMsg(); err != api.ErrNotSupported {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestBind_DrainRecv_PeerShutdown_ClosesWithPeerClosed(t *testing.T) {
	var notes []api.Notification
	b, _, dq := newTestBind(t, recordingNotify(&notes), nil)

	b.DrainRecv(func(segs [][]byte) (int, error) { return 0, nil })
	dq.Run()

	if len(notes) != 1 || notes[0].Kind != api.NotifyDisconnected || notes[0].Error != api.ErrPeerClosed {
		t.Fatalf("expected disconnect with ErrPeerClosed, got %+v", notes)
	}
}

func TestBind_SendTo_RejectedOnConnectedProtocol(t *testing.T) {
	b, _, _ := newTestBind(t, recordingNotify(&[]api.Notification{}), nil)
	pool := buffer.New(0)
	v := pool.AllocateWhole()
	if err := b.SendTo(v, api.Address{}); err != api.ErrNotSupported {
		t.Fatalf("expected ErrNotSupported for SendTo on connected protocol, got %v", err)
	}
}

func TestBind_SetNotifyAndSetSegment_TakeEffect(t *testing.T) {
	b, _, _ := newTestBind(t, recordingNotify(&[]api.Notification{}), nil)

	var notes []api.Notification
	b.SetNotify(recordingNotify(&notes))
	b.SetSegment(func(queued int) int {
		if queued < 3 {
			return 0
		}
		return 3
	})

	b.DrainRecv(func(segs [][]byte) (int, error) {
		return copy(segs[0], []byte("abc")), nil
	})

	if len(notes) != 1 || notes[0].Kind != api.NotifyRecvMsg {
		t.Fatalf("expected the newly installed notify/segment pair to fire NotifyRecvMsg, got %+v", notes)
	}
}

var _ api.Bind = (*Bind)(nil)
