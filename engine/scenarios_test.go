//go:build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.
//
// Exercises the end-to-end scenarios through the full engine.Runtime
// stack (listener + connector + poll loop), as opposed to the
// package-level unit tests covering the same invariants in isolation
// (core/iovring, core/bind, core/ioevent, core/defer).

package engine_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/engine"
)

// TestScenario_TCPEchoRoundTrip is the literal scenario 1: client
// connects, sends a payload, server echoes it back, server finishes;
// client observes the echoed bytes then a disconnect.
func TestScenario_TCPEchoRoundTrip(t *testing.T) {
	r, err := engine.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(ctx) }()

	const payload = "Hello World!\x00"

	listenBind, err := r.Listen(ctx, api.ProtocolStreamTCP, api.Address{Host: "127.0.0.1", Port: 0}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvData {
				return
			}
			buf := make([]byte, 64)
			sz, _ := bb.Recv(buf)
			v := r.Pool().AllocateWhole()
			v.Data = v.Data[:sz]
			copy(v.Data, buf[:sz])
			_ = bb.Send(v)
			_ = bb.Finish()
		})
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	var clientRecv []byte
	clientDone := make(chan struct{})
	var clientClosedAfterRecv bool

	_, err = r.Connect(ctx, api.ProtocolStreamTCP, listenBind.LocalAddress(), func(b api.Bind, n api.Notification) {
		switch n.Kind {
		case api.NotifyConnected:
			v := r.Pool().AllocateWhole()
			v.Data = v.Data[:len(payload)]
			copy(v.Data, payload)
			if err := b.Send(v); err != nil {
				t.Errorf("client Send: %v", err)
			}
		case api.NotifyRecvData:
			buf := make([]byte, 64)
			sz, _ := b.Recv(buf)
			clientRecv = append(clientRecv, buf[:sz]...)
			if len(clientRecv) >= len(payload) {
				clientClosedAfterRecv = true
			}
		case api.NotifyDisconnected:
			if clientClosedAfterRecv {
				close(clientDone)
			}
		}
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-clientDone:
	case <-time.After(3 * time.Second):
		t.Fatal("client never observed echoed payload followed by disconnect")
	}
	if string(clientRecv) != payload {
		t.Fatalf("expected echoed payload %q, got %q", payload, clientRecv)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

// TestScenario_BulkDatagramNoReorder is a scaled-down version of
// scenario 2: the client sends N 4-byte little-endian uint32 messages
// to a connected UDP bind, keeping at most inFlight unacknowledged: the
// server echoes each one back in order. Expected: the client observes
// every value 1..N exactly once, in order.
func TestScenario_BulkDatagramNoReorder(t *testing.T) {
	const (
		total    = 200
		inFlight = 20
	)

	r, err := engine.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Listen/Connect (and the NotifyConnected-triggered initial sends
	// below) run here, on this goroutine, before Run starts — so they
	// never race the loop goroutine's own bind mutation. Every send
	// after the first batch happens from inside a notify callback
	// instead, which Run's single loop goroutine is what dispatches.
	serverBind, err := r.Listen(ctx, api.ProtocolDatagramUDP, api.Address{Host: "127.0.0.1", Port: 0}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvMsg {
				return
			}
			for _, v := range n.Messages {
				echo := r.Pool().AllocateWhole()
				echo.Data = echo.Data[:len(v.Data)]
				copy(echo.Data, v.Data)
				_ = bb.SendTo(echo, n.Address)
				v.Decref()
			}
		})
	})
	if err != nil {
		t.Fatalf("server Listen: %v", err)
	}
	defer serverBind.Close()

	// received/sent are only ever touched from inside notify callbacks,
	// which the reactor contract guarantees run on the runtime's single
	// loop goroutine (see core/ioevent's single-goroutine-mutation
	// invariant) — so no lock is needed between them and the closures
	// below, only between them and the completion channel the test
	// goroutine itself reads from.
	received := make([]uint32, 0, total)
	sent := 0
	done := make(chan struct{})

	sendNext := func(b api.Bind) {
		sent++
		v := r.Pool().AllocateWhole()
		v.Data = v.Data[:4]
		binary.LittleEndian.PutUint32(v.Data, uint32(sent))
		if err := b.Send(v); err != nil {
			t.Errorf("client Send: %v", err)
		}
	}

	client, err := r.Connect(ctx, api.ProtocolDatagramUDP, serverBind.LocalAddress(), func(b api.Bind, n api.Notification) {
		switch n.Kind {
		case api.NotifyConnected:
			for i := 0; i < inFlight; i++ {
				sendNext(b)
			}
		case api.NotifyRecvData:
			// The connected UDP bind has no segmentation callback
			// installed, so DrainRecv delivers one NotifyRecvData per
			// underlying recv() call — and a connected datagram socket's
			// recv() never returns more than one whole datagram, so a
			// single 4-byte Recv drains exactly the echo this
			// notification represents.
			var buf [4]byte
			if sz, _ := b.Recv(buf[:]); sz == 4 {
				received = append(received, binary.LittleEndian.Uint32(buf[:]))
				if sent < total {
					sendNext(b)
				}
			}
			if len(received) >= total {
				close(done)
			}
		}
	})
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	defer client.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for echoes: sent=%d received=%d", sent, len(received))
	}

	if len(received) != total {
		t.Fatalf("expected %d echoes, got %d", total, len(received))
	}
	for i, v := range received {
		if v != uint32(i+1) {
			t.Fatalf("reordering detected at index %d: expected %d, got %d", i, i+1, v)
		}
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}
