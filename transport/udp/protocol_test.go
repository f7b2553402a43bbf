//go:build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package udp_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/buffer"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/core/poll"
	"github.com/momentics/evplgo/transport/udp"
)

func pump(t *testing.T, backend *poll.EpollBackend, dq *deferq.Queue, stop <-chan struct{}) {
	t.Helper()
	for {
		select {
		case <-stop:
			return
		default:
		}
		backend.Wait(20)
		dq.Run()
	}
}

func TestUDP_ConnectedRoundTrip(t *testing.T) {
	backend, err := poll.NewEpollBackend()
	if err != nil {
		t.Fatalf("NewEpollBackend: %v", err)
	}
	defer backend.Close()

	pool := buffer.New(0)
	dq := deferq.New()
	proto := udp.New(udp.Deps{Pool: pool, Queue: dq, Backend: backend, MaxIov: 16})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() { defer close(done); pump(t, backend, dq, stop) }()
	defer func() { close(stop); <-done }()

	var serverRecv []byte
	serverGotDatagram := make(chan struct{})
	server, err := proto.Listen(context.Background(), api.Address{Host: "127.0.0.1", Port: 0}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvMsg {
				return
			}
			for _, v := range n.Messages {
				serverRecv = append(serverRecv, v.Data...)
				v.Decref()
			}
			close(serverGotDatagram)
		})
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	serverAddr := server.LocalAddress()

	connected := make(chan struct{})
	client, err := proto.Connect(context.Background(), serverAddr, func(_ api.Bind, n api.Notification) {
		if n.Kind == api.NotifyConnected {
			close(connected)
		}
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("client never observed CONNECTED")
	}

	v := pool.AllocateWhole()
	v.Data = v.Data[:5]
	copy(v.Data, []byte("howdy"))
	if err := client.Send(v); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case <-serverGotDatagram:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the datagram")
	}
	if string(serverRecv) != "howdy" {
		t.Fatalf("expected %q, got %q", "howdy", serverRecv)
	}
}

func TestUDP_Listen_SendToUnconnectedReply(t *testing.T) {
	backend, err := poll.NewEpollBackend()
	if err != nil {
		t.Fatalf("NewEpollBackend: %v", err)
	}
	defer backend.Close()

	pool := buffer.New(0)
	dq := deferq.New()
	proto := udp.New(udp.Deps{Pool: pool, Queue: dq, Backend: backend, MaxIov: 16})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() { defer close(done); pump(t, backend, dq, stop) }()
	defer func() { close(stop); <-done }()

	reply := make(chan []byte, 1)
	server, err := proto.Listen(context.Background(), api.Address{Host: "127.0.0.1", Port: 0}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvMsg {
				return
			}
			var payload []byte
			for _, v := range n.Messages {
				payload = append(payload, v.Data...)
				v.Decref()
			}
			echo := pool.AllocateWhole()
			echo.Data = echo.Data[:len(payload)]
			copy(echo.Data, payload)
			if err := bb.SendTo(echo, n.Address); err != nil {
				t.Errorf("SendTo: %v", err)
			}
		})
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	client, err := proto.Listen(context.Background(), api.Address{Host: "127.0.0.1", Port: 0}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvMsg {
				return
			}
			var payload []byte
			for _, v := range n.Messages {
				payload = append(payload, v.Data...)
				v.Decref()
			}
			reply <- payload
		})
	})
	if err != nil {
		t.Fatalf("Listen (client): %v", err)
	}
	defer client.Close()

	v := pool.AllocateWhole()
	v.Data = v.Data[:4]
	copy(v.Data, []byte("ping"))
	if err := client.SendTo(v, server.LocalAddress()); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	select {
	case got := <-reply:
		if string(got) != "ping" {
			t.Fatalf("expected echo %q, got %q", "ping", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received echoed reply")
	}
}
