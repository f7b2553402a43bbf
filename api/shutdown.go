// File: api/shutdown.go
// Package api defines the unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by any component that owns resources
// needing an orderly teardown (engine.Runtime, core/framework.Registry).
type GracefulShutdown interface {
	// Shutdown stops the component and releases its resources. It must be
	// idempotent: a second call after a successful shutdown returns nil.
	Shutdown() error
}
