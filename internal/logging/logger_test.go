// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("bind", &Config{Level: LevelWarn, Output: &buf})

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("visible warning")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Fatalf("expected warning to appear, got %q", out)
	}
	if !strings.Contains(out, "[bind]") {
		t.Fatalf("expected component tag in output, got %q", out)
	}
}

func TestLogger_With_NestsComponentTag(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine", &Config{Level: LevelDebug, Output: &buf})
	child := l.With("poll")

	child.Info("ready")
	if !strings.Contains(buf.String(), "[engine.poll]") {
		t.Fatalf("expected nested component tag, got %q", buf.String())
	}
}

func TestLogger_FormatsKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := New("tcp", &Config{Level: LevelDebug, Output: &buf})

	l.Info("accepted connection", "remote", "10.0.0.1:443")
	if !strings.Contains(buf.String(), "remote=10.0.0.1:443") {
		t.Fatalf("expected key=value formatting, got %q", buf.String())
	}
}
