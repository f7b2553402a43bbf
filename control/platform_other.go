//go:build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux platforms get no platform-specific debug probes.

package control

// RegisterPlatformProbes is a no-op outside Linux.
func RegisterPlatformProbes(dp *DebugProbes) {}
