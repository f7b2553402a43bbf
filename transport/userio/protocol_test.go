// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package userio_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/evplgo/api"
	"github.com/momentics/evplgo/core/buffer"
	deferq "github.com/momentics/evplgo/core/defer"
	"github.com/momentics/evplgo/transport/userio"
)

func TestLoopback_FrameworkLifecycle(t *testing.T) {
	fw := userio.NewFramework()
	if err := fw.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	handle, err := fw.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fw.Destroy(handle); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := fw.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
}

func TestLoopback_ConnectListenRoundTrip(t *testing.T) {
	fw := userio.NewFramework()
	handle, err := fw.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	backend := fw.Backend(handle)
	defer backend.Close()

	dq := deferq.New()
	proto := fw.Protocol(handle, dq)
	pool := buffer.New(0)

	var serverGot []byte
	serverDone := make(chan struct{})
	server, err := proto.Listen(context.Background(), api.Address{Host: "server"}, func(b api.Bind) {
		b.SetNotify(func(bb api.Bind, n api.Notification) {
			if n.Kind != api.NotifyRecvMsg {
				return
			}
			for _, v := range n.Messages {
				serverGot = append(serverGot, v.Data...)
				v.Decref()
			}
			close(serverDone)
		})
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	client, err := proto.Connect(context.Background(), api.Address{Host: "server"}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	v := pool.AllocateWhole()
	v.Data = v.Data[:4]
	copy(v.Data, []byte("beep"))
	if err := client.Send(v); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := backend.Wait(10); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	dq.Run()

	select {
	case <-serverDone:
	case <-time.After(time.Second):
		t.Fatal("server never received the datagram")
	}
	if string(serverGot) != "beep" {
		t.Fatalf("expected %q, got %q", "beep", serverGot)
	}
}

func TestLoopback_ListenDuplicateNameRejected(t *testing.T) {
	fw := userio.NewFramework()
	handle, _ := fw.Create()
	dq := deferq.New()
	proto := fw.Protocol(handle, dq)

	b1, err := proto.Listen(context.Background(), api.Address{Host: "dup"}, nil)
	if err != nil {
		t.Fatalf("first Listen: %v", err)
	}
	defer b1.Close()

	if _, err := proto.Listen(context.Background(), api.Address{Host: "dup"}, nil); err != api.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists for a duplicate listen name, got %v", err)
	}
}

func TestLoopback_SendToUnknownPeerIsNotFound(t *testing.T) {
	fw := userio.NewFramework()
	handle, _ := fw.Create()
	dq := deferq.New()
	proto := fw.Protocol(handle, dq)
	pool := buffer.New(0)

	client, err := proto.Connect(context.Background(), api.Address{Host: "nobody-home"}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	v := pool.AllocateWhole()
	if err := client.Send(v); err != api.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
