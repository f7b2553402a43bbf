// File: core/protocol/registry.go
// Package protocol holds the registry of protocol vtables (api.Protocol)
// a runtime can Connect/Listen through, keyed by case-insensitive
// protocol ID string.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"strings"
	"sync"

	"github.com/momentics/evplgo/api"
)

// Registry maps protocol IDs to their registered api.Protocol vtable.
// Lookup is case-insensitive: "stream_socket_tcp" and "STREAM_SOCKET_TCP"
// resolve to the same entry.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]api.Protocol
}

// NewRegistry creates an empty protocol registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]api.Protocol)}
}

// Register adds p under its ID, overwriting any existing entry with the
// same case-insensitive key. A zero-value ID is a contract violation.
func (r *Registry) Register(p api.Protocol) {
	api.AbortIf(p.ID == "", "protocol: Register called with empty ProtocolID")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key(p.ID)] = p
}

// Lookup resolves id case-insensitively, reporting whether it was found.
func (r *Registry) Lookup(id api.ProtocolID) (api.Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[key(id)]
	return p, ok
}

// MustLookup resolves id or aborts fatally; intended for call sites where
// the caller has already validated the protocol ID exists (e.g. after
// Register at startup), so a miss indicates a programming error.
func (r *Registry) MustLookup(id api.ProtocolID) api.Protocol {
	p, ok := r.Lookup(id)
	api.AbortIf(!ok, "protocol: no protocol registered for id %q", id)
	return p
}

func key(id api.ProtocolID) string { return strings.ToLower(string(id)) }
