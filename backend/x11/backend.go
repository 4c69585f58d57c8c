// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package x11 implements the compositor backend for X11 sessions. Each
// monitor gets a borderless _NET_WM_WINDOW_TYPE_DESKTOP window kept below
// every other window and sticky across workspaces.
package x11

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/egl"
)

func init() {
	backend.Register(backend.KindX11, func() backend.Backend { return &Backend{} })
}

// monitor tracks one RandR monitor.
type monitor struct {
	id     uint32
	name   string
	x, y   int32
	width  int32
	height int32
}

// surface is one desktop window.
type surface struct {
	b         *Backend
	window    uintptr
	monitorID uint32
	width     int32
	height    int32
}

// Backend is the X11 display connection.
type Backend struct {
	display uintptr
	screen  int32
	root    uintptr

	handler  backend.Handler
	monitors map[uint32]*monitor
	surfaces map[uintptr]*surface // keyed by Window

	// EWMH atoms interned once at connect.
	atomWindowType        uintptr
	atomWindowTypeDesktop uintptr
	atomState             uintptr
	atomStateBelow        uintptr
	atomStateSticky       uintptr
	atomStateSkipTaskbar  uintptr
	atomStateSkipPager    uintptr
	atomDesktop           uintptr
	atomAtom              uintptr
	atomCardinal          uintptr
}

// Kind returns the backend identifier.
func (b *Backend) Kind() backend.Kind { return backend.KindX11 }

// Platform returns the EGL platform enum for X11.
func (b *Backend) Platform() egl.EGLEnum { return egl.PlatformX11KHR }

// NativeDisplay returns the Display pointer.
func (b *Backend) NativeDisplay() uintptr { return b.display }

// EventFD returns the X11 connection fd.
func (b *Backend) EventFD() int { return int(xConnectionNumber(b.display)) }

// Connect opens the display, enumerates RandR monitors and announces them.
func (b *Backend) Connect(h backend.Handler) error {
	if err := initX11(); err != nil {
		return err
	}

	b.display = xOpenDisplay()
	if b.display == 0 {
		return fmt.Errorf("x11: cannot open display")
	}
	b.screen = xDefaultScreen(b.display)
	b.root = xRootWindow(b.display, b.screen)
	b.handler = h
	b.monitors = make(map[uint32]*monitor)
	b.surfaces = make(map[uintptr]*surface)

	b.atomWindowType = xInternAtom(b.display, "_NET_WM_WINDOW_TYPE", false)
	b.atomWindowTypeDesktop = xInternAtom(b.display, "_NET_WM_WINDOW_TYPE_DESKTOP", false)
	b.atomState = xInternAtom(b.display, "_NET_WM_STATE", false)
	b.atomStateBelow = xInternAtom(b.display, "_NET_WM_STATE_BELOW", false)
	b.atomStateSticky = xInternAtom(b.display, "_NET_WM_STATE_STICKY", false)
	b.atomStateSkipTaskbar = xInternAtom(b.display, "_NET_WM_STATE_SKIP_TASKBAR", false)
	b.atomStateSkipPager = xInternAtom(b.display, "_NET_WM_STATE_SKIP_PAGER", false)
	b.atomDesktop = xInternAtom(b.display, "_NET_WM_DESKTOP", false)
	b.atomAtom = xInternAtom(b.display, "ATOM", false)
	b.atomCardinal = xInternAtom(b.display, "CARDINAL", false)

	for i, mon := range xrrGetMonitors(b.display, b.root) {
		m := &monitor{
			id:     uint32(i),
			name:   xGetAtomName(b.display, mon.name),
			x:      mon.x,
			y:      mon.y,
			width:  mon.width,
			height: mon.height,
		}
		b.monitors[m.id] = m
		h.OutputAdded(backend.OutputInfo{
			ID:        m.id,
			Connector: m.name,
			Width:     m.width,
			Height:    m.height,
			Scale:     1,
		})
	}
	if len(b.monitors) == 0 {
		return fmt.Errorf("x11: no monitors reported by RandR")
	}

	wallshade.Logger().Info("x11 backend connected", "monitors", len(b.monitors))
	return nil
}

// Dispatch drains queued X events. ConfigureNotify on one of our windows
// feeds a resize to the handler.
func (b *Backend) Dispatch() error {
	for xPending(b.display) > 0 {
		var ev xEvent
		xNextEvent(b.display, &ev)
		if ev.eventType() != configureNotify {
			continue
		}
		s, ok := b.surfaces[ev.configureWindow()]
		if !ok {
			continue
		}
		w, h := ev.configureWidth(), ev.configureHeight()
		if w == s.width && h == s.height {
			continue
		}
		s.width, s.height = w, h
		if b.handler != nil {
			b.handler.OutputResized(s.monitorID, w, h)
		}
	}
	return nil
}

// Flush pushes buffered requests to the server.
func (b *Backend) Flush() error {
	xFlush(b.display)
	return nil
}

// CreateSurface creates the desktop window for a monitor.
func (b *Backend) CreateSurface(outputID uint32, width, height int32) (backend.Surface, error) {
	mon, ok := b.monitors[outputID]
	if !ok {
		return nil, fmt.Errorf("x11: unknown monitor %d", outputID)
	}

	win := xCreateSimpleWindow(b.display, b.root, mon.x, mon.y,
		uint32(mon.width), uint32(mon.height), 0, 0, 0)
	if win == 0 {
		return nil, fmt.Errorf("x11: XCreateSimpleWindow failed for monitor %s", mon.name)
	}

	xStoreName(b.display, win, "wallshade")

	// Desktop-type, below everything, on all workspaces, hidden from
	// taskbar and pager.
	typeData := [1]uintptr{b.atomWindowTypeDesktop}
	xChangeProperty(b.display, win, b.atomWindowType, b.atomAtom, 32,
		propModeReplace, unsafe.Pointer(&typeData[0]), 1)

	stateData := [4]uintptr{
		b.atomStateBelow,
		b.atomStateSticky,
		b.atomStateSkipTaskbar,
		b.atomStateSkipPager,
	}
	xChangeProperty(b.display, win, b.atomState, b.atomAtom, 32,
		propModeReplace, unsafe.Pointer(&stateData[0]), int32(len(stateData)))

	allDesktops := [1]uintptr{0xFFFFFFFF}
	xChangeProperty(b.display, win, b.atomDesktop, b.atomCardinal, 32,
		propModeReplace, unsafe.Pointer(&allDesktops[0]), 1)

	xSelectInput(b.display, win, structureNotifyMask)
	xMapWindow(b.display, win)
	xLowerWindow(b.display, win)
	xMoveResizeWindow(b.display, win, mon.x, mon.y, uint32(mon.width), uint32(mon.height))
	xFlush(b.display)

	s := &surface{b: b, window: win, monitorID: outputID, width: width, height: height}
	b.surfaces[win] = s
	return s, nil
}

// Close disconnects from the X server. Surfaces must already be gone.
func (b *Backend) Close() {
	if b.display != 0 {
		xCloseDisplay(b.display)
		b.display = 0
	}
}

// --- backend.Surface ---

// NativeWindow returns the X11 Window id.
func (s *surface) NativeWindow() uintptr { return s.window }

// Pointer queries the current pointer position relative to the window.
func (s *surface) Pointer() (float32, float32, bool) {
	x, y, ok := xQueryPointer(s.b.display, s.window)
	return float32(x), float32(y), ok
}

// Resize resizes the desktop window.
func (s *surface) Resize(width, height int32) {
	s.width, s.height = width, height
	xMoveResizeWindow(s.b.display, s.window, 0, 0, uint32(width), uint32(height))
}

// Destroy destroys the window.
func (s *surface) Destroy() {
	if s.window != 0 {
		delete(s.b.surfaces, s.window)
		xDestroyWindow(s.b.display, s.window)
		s.window = 0
	}
}
