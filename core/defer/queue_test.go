// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package deferq

import "testing"

func TestQueue_ArmIsIdempotentBeforeRun(t *testing.T) {
	runs := 0
	dq := New()
	d := NewDeferred(func() { runs++ })

	dq.Arm(d)
	dq.Arm(d)
	dq.Arm(d)

	if dq.Len() != 1 {
		t.Fatalf("expected 1 queued entry after repeated Arm, got %d", dq.Len())
	}

	dq.Run()
	if runs != 1 {
		t.Fatalf("expected callback to run exactly once, got %d", runs)
	}
	if d.Armed() {
		t.Fatal("expected Deferred to be disarmed after Run")
	}
}

func TestQueue_ReArmAfterRun(t *testing.T) {
	runs := 0
	dq := New()
	d := NewDeferred(func() { runs++ })

	dq.Arm(d)
	dq.Run()
	dq.Arm(d)
	dq.Run()

	if runs != 2 {
		t.Fatalf("expected 2 runs after re-arming, got %d", runs)
	}
}

func TestQueue_RunPreservesFIFOOrder(t *testing.T) {
	var order []int
	dq := New()
	for i := 0; i < 5; i++ {
		i := i
		dq.Arm(NewDeferred(func() { order = append(order, i) }))
	}
	dq.Run()
	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestQueue_ArmDuringRunWaitsForNextTurn(t *testing.T) {
	dq := New()
	var second *Deferred
	ranSecond := false
	second = NewDeferred(func() { ranSecond = true })

	first := NewDeferred(func() { dq.Arm(second) })
	dq.Arm(first)
	dq.Run()

	if ranSecond {
		t.Fatal("expected deferral armed during Run to wait for the next turn")
	}
	dq.Run()
	if !ranSecond {
		t.Fatal("expected deferral armed in the previous turn to run on the next Run")
	}
}
