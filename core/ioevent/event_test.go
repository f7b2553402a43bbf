// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package ioevent

import "testing"

func TestEvent_ReadDispatchRequiresInterest(t *testing.T) {
	fired := false
	e := New(3)
	e.ReadCallback = func(*Event) { fired = true }

	e.MarkReadable()
	if fired {
		t.Fatal("expected no dispatch without read interest")
	}

	e.ReadInterested()
	e.MarkUnreadable()
	e.MarkReadable()
	if !fired {
		t.Fatal("expected dispatch once both readable and interested")
	}
}

func TestEvent_WriteDispatchRequiresInterest(t *testing.T) {
	fired := false
	e := New(4)
	e.WriteCallback = func(*Event) { fired = true }
	e.WriteInterested()
	e.MarkWritable()
	if !fired {
		t.Fatal("expected write dispatch once writable and interested")
	}
}

func TestEvent_ErrorAlwaysDispatches(t *testing.T) {
	fired := false
	e := New(5)
	e.ErrorCallback = func(*Event) { fired = true }
	e.MarkError()
	if !fired {
		t.Fatal("expected error dispatch regardless of interest")
	}
	if !e.Has(Error) {
		t.Fatal("expected Error flag set")
	}
}

func TestEvent_DisinterestStopsDispatch(t *testing.T) {
	fired := false
	e := New(6)
	e.ReadCallback = func(*Event) { fired = true }
	e.ReadInterested()
	e.ReadDisinterested()
	e.MarkReadable()
	if fired {
		t.Fatal("expected no dispatch after disinterest")
	}
}
