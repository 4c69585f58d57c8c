// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package backend abstracts the compositor-specific surface plumbing behind
// a common interface. Two backends exist: Wayland (wlr-layer-shell
// background surfaces) and X11 (EWMH desktop windows). Backends register
// themselves via init() in their packages:
//
//	import (
//	    _ "github.com/gogpu/wallshade/backend/wayland"
//	    _ "github.com/gogpu/wallshade/backend/x11"
//	)
package backend

import (
	"github.com/gogpu/wallshade/egl"
)

// Kind identifies a compositor backend implementation.
type Kind string

const (
	// KindWayland is the Wayland layer-shell backend.
	KindWayland Kind = "wayland"
	// KindX11 is the X11 desktop-window backend.
	KindX11 Kind = "x11"
)

// OutputInfo describes one physical output as reported by the compositor.
type OutputInfo struct {
	// ID is the backend-assigned identifier, stable for the lifetime of the
	// output (the Wayland global name, or the X11 monitor index).
	ID uint32
	// Connector is the connector name, e.g. "HDMI-A-2". May be empty until
	// the compositor supplies it.
	Connector string
	// Model is the monitor model string from EDID, if known.
	Model string
	// Width and Height are the output size in pixels.
	Width, Height int32
	// Scale is the integer output scale factor (1 if unknown).
	Scale int32
}

// Handler receives output lifecycle events from a backend. All calls are
// made on the event-loop thread from within Dispatch (or Connect, for the
// initial discovery roundtrip).
type Handler interface {
	// OutputAdded announces a new output. The daemon creates a surface and
	// applies configuration in response.
	OutputAdded(info OutputInfo)
	// OutputRemoved announces that an output is gone. All surfaces for it
	// are already invalid.
	OutputRemoved(id uint32)
	// OutputResized announces a new pixel size for an existing output.
	OutputResized(id uint32, width, height int32)
}

// Surface is a native window pinned to one output, suitable for an EGL
// window surface.
type Surface interface {
	// NativeWindow returns the handle to pass to egl.Context.CreateSurface
	// (a wl_egl_window or an X11 Window).
	NativeWindow() uintptr
	// Pointer returns the last known pointer position over this surface in
	// surface-local pixels. ok is false when the pointer has never entered
	// the surface.
	Pointer() (x, y float32, ok bool)
	// Resize resizes the native window to the given pixel size.
	Resize(width, height int32)
	// Destroy releases the native window and its compositor-side objects.
	Destroy()
}

// Backend is one compositor connection.
type Backend interface {
	// Kind returns the backend identifier.
	Kind() Kind
	// Connect opens the compositor connection and performs initial output
	// discovery. Discovered outputs are announced through h before Connect
	// returns; later changes arrive via Dispatch.
	Connect(h Handler) error
	// Platform returns the EGL platform enum for this backend.
	Platform() egl.EGLEnum
	// NativeDisplay returns the native display pointer for EGL.
	NativeDisplay() uintptr
	// EventFD returns the connection file descriptor to poll.
	EventFD() int
	// Dispatch processes pending compositor events. Call when poll reports
	// the event fd readable.
	Dispatch() error
	// Flush writes buffered requests to the compositor. Call before
	// sleeping in poll.
	Flush() error
	// CreateSurface creates a background surface covering the output.
	CreateSurface(outputID uint32, width, height int32) (Surface, error)
	// Close tears down the connection. Surfaces must be destroyed first.
	Close()
}
