// control/facade.go
// Author: momentics <momentics@gmail.com>
//
// Facade composing ConfigStore, MetricsRegistry and DebugProbes into the
// single api.Control surface engine.Runtime exposes to its embedder.

package control

import "github.com/momentics/evplgo/api"

// Facade is the canonical api.Control implementation, wiring together the
// otherwise independent config/metrics/debug registries.
type Facade struct {
	config  *ConfigStore
	metrics *MetricsRegistry
	probes  *DebugProbes
	reload  *HotReload
}

// NewFacade constructs a Facade with fresh, empty registries and
// platform-specific debug probes already registered.
func NewFacade() *Facade {
	f := &Facade{
		config:  NewConfigStore(),
		metrics: NewMetricsRegistry(),
		probes:  NewDebugProbes(),
		reload:  newHotReload(),
	}
	RegisterPlatformProbes(f.probes)
	return f
}

// GetConfig returns a snapshot of all configuration settings.
func (f *Facade) GetConfig() map[string]any { return f.config.GetSnapshot() }

// SetConfig atomically updates or merges configuration settings, then
// dispatches every registered reload hook.
func (f *Facade) SetConfig(cfg map[string]any) error {
	f.config.SetConfig(cfg)
	f.reload.TriggerHotReload()
	return nil
}

// Stats returns the current config, prefixed metrics and debug probe
// output merged into one map.
func (f *Facade) Stats() map[string]any {
	out := make(map[string]any)
	for k, v := range f.config.GetSnapshot() {
		out[k] = v
	}
	for k, v := range f.metrics.GetSnapshot() {
		out["metrics."+k] = v
	}
	for k, v := range f.probes.DumpState() {
		out["debug."+k] = v
	}
	return out
}

// OnReload registers a callback for config hot-reload.
func (f *Facade) OnReload(fn func()) {
	f.config.OnReload(fn)
	f.reload.RegisterReloadHook(fn)
}

// RegisterDebugProbe dynamically registers a named debug probe.
func (f *Facade) RegisterDebugProbe(name string, fn func() any) { f.probes.RegisterProbe(name, fn) }

// Config exposes the underlying config store directly, so engine.New can
// seed real startup values without going through the api.Control map
// interface.
func (f *Facade) Config() *ConfigStore { return f.config }

// Metrics exposes the underlying registry directly so engine components
// can Set counters without going through the api.Control interface.
func (f *Facade) Metrics() *MetricsRegistry { return f.metrics }

// DumpState and RegisterProbe satisfy api.Debug alongside api.Control,
// since both surfaces delegate to the same DebugProbes registry.
func (f *Facade) DumpState() map[string]any               { return f.probes.DumpState() }
func (f *Facade) RegisterProbe(name string, fn func() any) { f.probes.RegisterProbe(name, fn) }

var (
	_ api.Control = (*Facade)(nil)
	_ api.Debug   = (*Facade)(nil)
)
