// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"os"
	"sync"

	"github.com/gogpu/wallshade"
)

var (
	// backendsMu protects the backends map.
	backendsMu sync.RWMutex

	// backends stores registered backend factories.
	backends = make(map[Kind]func() Backend)
)

// Register registers a backend factory. This is typically called from
// init() functions in backend packages. Registering the same kind twice
// replaces the previous registration.
func Register(kind Kind, factory func() Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[kind] = factory
}

// Get returns a registered backend factory by kind.
// Returns (nil, false) if the kind is not registered.
func Get(kind Kind) (func() Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	f, ok := backends[kind]
	return f, ok
}

// Registered returns all registered backend kinds.
// The order is non-deterministic.
func Registered() []Kind {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	result := make([]Kind, 0, len(backends))
	for k := range backends {
		result = append(result, k)
	}
	return result
}

// Detect picks a backend for the current session. Wayland wins when
// WAYLAND_DISPLAY is set and the Wayland backend is registered; otherwise
// X11 when DISPLAY is set. Returns (nil, false) when no usable backend is
// registered for the session environment.
func Detect() (Backend, bool) {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if f, ok := Get(KindWayland); ok {
			return f(), true
		}
	}
	if os.Getenv("DISPLAY") != "" {
		if f, ok := Get(KindX11); ok {
			return f(), true
		}
	}
	wallshade.Logger().Warn("no compositor session detected",
		"wayland_display", os.Getenv("WAYLAND_DISPLAY"),
		"display", os.Getenv("DISPLAY"))
	return nil, false
}
