// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Hooks for hot-reload-compatible components, scoped to one Facade
// instance rather than the process: a package-level hook list would leak
// a closure across every Runtime created in the same process (e.g. in
// tests that construct several engine.Runtime values back to back).

package control

import "sync"

// HotReload tracks reload-hook callbacks for a single Facade.
type HotReload struct {
	mu    sync.Mutex
	hooks []func()
}

func newHotReload() *HotReload { return &HotReload{} }

// RegisterReloadHook adds a component reload listener.
func (h *HotReload) RegisterReloadHook(fn func()) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// TriggerHotReload dispatches every registered reload hook.
func (h *HotReload) TriggerHotReload() {
	h.mu.Lock()
	hooks := make([]func(), len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()
	for _, fn := range hooks {
		go fn()
	}
}
