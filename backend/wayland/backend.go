// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package wayland implements the compositor backend for Wayland sessions.
// Wallpaper surfaces are wlr-layer-shell background layers pinned to their
// output with full anchoring, so the compositor keeps them sized to the
// output through mode changes.
package wayland

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/egl"
)

func init() {
	backend.Register(backend.KindWayland, func() backend.Backend { return &Backend{} })
}

// errNoLayerShell is returned when the compositor does not advertise
// zwlr_layer_shell_v1 (e.g. GNOME Mutter).
var errNoLayerShell = errors.New("wayland: compositor does not support zwlr_layer_shell_v1")

// output tracks one wl_output global.
type output struct {
	id        uint32 // registry name
	proxy     uintptr
	connector string
	model     string
	width     int32
	height    int32
	scale     int32
	announced bool
}

// surface is one layer-shell wallpaper surface with its wl_egl_window.
type surface struct {
	b            *Backend
	wlSurface    uintptr
	layerSurface uintptr
	eglWindow    uintptr
	width        int32
	height       int32
	configured   bool
	mouseX       float32
	mouseY       float32
	hasMouse     bool
}

// Backend is the Wayland compositor connection. A process holds at most
// one; the listener trampolines route through the package-level active
// backend because Wayland listener vtables carry no closure state.
type Backend struct {
	display    uintptr
	registry   uintptr
	compositor uintptr
	layerShell uintptr
	seat       uintptr
	pointer    uintptr

	handler  backend.Handler
	outputs  map[uint32]*output
	surfaces map[uintptr]*surface // keyed by wl_surface proxy
	focus    *surface             // surface under the pointer
}

// activeBackend routes C listener callbacks to the connection they belong
// to. Wayland supports one compositor connection per daemon.
var activeBackend *Backend

// Listener vtables. Built once, kept alive for the process lifetime.
var (
	callbacksReady       bool
	registryListener     [2]uintptr
	outputListener       [6]uintptr
	layerSurfaceListener [2]uintptr
	pointerListener      [5]uintptr

	namespaceStr = cStr("wallpaper")
)

// Kind returns the backend identifier.
func (b *Backend) Kind() backend.Kind { return backend.KindWayland }

// Platform returns the EGL platform enum for Wayland.
func (b *Backend) Platform() egl.EGLEnum { return egl.PlatformWaylandKHR }

// NativeDisplay returns the wl_display pointer.
func (b *Backend) NativeDisplay() uintptr { return b.display }

// EventFD returns the Wayland connection fd.
func (b *Backend) EventFD() int { return int(wlDisplayGetFD(b.display)) }

// Connect opens the Wayland display, binds globals and performs the
// discovery roundtrips. Outputs are announced through h before Connect
// returns.
func (b *Backend) Connect(h backend.Handler) error {
	if err := initWayland(); err != nil {
		return err
	}
	installCallbacks()

	b.handler = h
	b.outputs = make(map[uint32]*output)
	b.surfaces = make(map[uintptr]*surface)
	activeBackend = b

	b.display = wlDisplayConnect("")
	if b.display == 0 {
		return fmt.Errorf("wayland: wl_display_connect failed")
	}

	b.registry = wlProxyMarshalArrayConstructorVersioned(b.display,
		displayGetRegistry, wlArgs(0),
		(*wlInterface)(ptrTo(ifaceRegistry)), 1)
	if b.registry == 0 {
		return fmt.Errorf("wayland: get_registry failed")
	}
	wlProxyAddListener(b.registry, &registryListener[0], 0)

	// First roundtrip collects globals, second collects the per-output
	// geometry/mode/done bursts triggered by the binds.
	if wlDisplayRoundtrip(b.display) < 0 {
		return fmt.Errorf("wayland: initial roundtrip failed (error %d)", wlDisplayGetError(b.display))
	}
	if b.compositor == 0 {
		return fmt.Errorf("wayland: compositor does not advertise wl_compositor")
	}
	if b.layerShell == 0 {
		return errNoLayerShell
	}
	if wlDisplayRoundtrip(b.display) < 0 {
		return fmt.Errorf("wayland: output roundtrip failed (error %d)", wlDisplayGetError(b.display))
	}

	wallshade.Logger().Info("wayland backend connected",
		"outputs", len(b.outputs))
	return nil
}

// Dispatch reads and dispatches pending compositor events. Call only when
// poll reports the event fd readable.
func (b *Backend) Dispatch() error {
	if wlDisplayDispatch(b.display) < 0 {
		return fmt.Errorf("wayland: dispatch failed (error %d)", wlDisplayGetError(b.display))
	}
	return nil
}

// Flush writes buffered requests to the compositor.
func (b *Backend) Flush() error {
	if wlDisplayFlush(b.display) < 0 {
		return fmt.Errorf("wayland: flush failed")
	}
	return nil
}

// CreateSurface creates a layer-shell background surface on the given
// output and wraps it in a wl_egl_window.
func (b *Backend) CreateSurface(outputID uint32, width, height int32) (backend.Surface, error) {
	out, ok := b.outputs[outputID]
	if !ok {
		return nil, fmt.Errorf("wayland: unknown output %d", outputID)
	}

	wlSurf := wlProxyMarshalArrayConstructorVersioned(b.compositor,
		compositorCreateSurface, wlArgs(0),
		(*wlInterface)(ptrTo(ifaceSurface)), wlProxyGetVersion(b.compositor))
	if wlSurf == 0 {
		return nil, fmt.Errorf("wayland: create_surface failed")
	}

	args := [5]wlArgument{
		0, // id: new zwlr_layer_surface_v1
		wlArgument(wlSurf),
		wlArgument(out.proxy),
		layerBackground,
		wlArgument(uintptr(unsafe.Pointer(&namespaceStr[0]))),
	}
	layerSurf := wlProxyMarshalArrayConstructorVersioned(b.layerShell,
		layerShellGetLayerSurface, &args[0], &layerSurfaceInterface, 1)
	if layerSurf == 0 {
		wlProxyDestroy(wlSurf)
		return nil, fmt.Errorf("wayland: get_layer_surface failed")
	}

	s := &surface{
		b:            b,
		wlSurface:    wlSurf,
		layerSurface: layerSurf,
		width:        width,
		height:       height,
	}
	b.surfaces[wlSurf] = s
	wlProxyAddListener(layerSurf, &layerSurfaceListener[0], wlSurf)

	// Size 0x0 with full anchoring lets the compositor size the surface to
	// the output. Exclusive zone -1 renders under panels.
	wlProxyMarshalArray(layerSurf, layerSurfaceSetSize, wlArgs(0, 0))
	wlProxyMarshalArray(layerSurf, layerSurfaceSetAnchor, wlArgs(anchorAll))
	wlProxyMarshalArray(layerSurf, layerSurfaceSetExclusiveZone, wlArgs(wlArgument(negOne())))
	wlProxyMarshalArray(wlSurf, surfaceCommit, wlArgs())

	// The compositor answers with configure; ack happens in the listener.
	for i := 0; i < 8 && !s.configured; i++ {
		if wlDisplayRoundtrip(b.display) < 0 {
			break
		}
	}
	if !s.configured {
		s.Destroy()
		return nil, fmt.Errorf("wayland: layer surface for output %d was never configured", outputID)
	}

	s.eglWindow = wlEGLWindowCreate(wlSurf, s.width, s.height)
	if s.eglWindow == 0 {
		s.Destroy()
		return nil, fmt.Errorf("wayland: wl_egl_window_create failed")
	}
	return s, nil
}

// Close disconnects from the compositor. Surfaces must already be gone.
func (b *Backend) Close() {
	if b.pointer != 0 {
		wlProxyDestroy(b.pointer)
		b.pointer = 0
	}
	for _, out := range b.outputs {
		wlProxyDestroy(out.proxy)
	}
	b.outputs = nil
	if b.registry != 0 {
		wlProxyDestroy(b.registry)
		b.registry = 0
	}
	if b.display != 0 {
		wlDisplayDisconnect(b.display)
		b.display = 0
	}
	if activeBackend == b {
		activeBackend = nil
	}
}

// --- backend.Surface ---

// NativeWindow returns the wl_egl_window handle.
func (s *surface) NativeWindow() uintptr { return s.eglWindow }

// Pointer returns the last pointer position over the surface.
func (s *surface) Pointer() (float32, float32, bool) {
	return s.mouseX, s.mouseY, s.hasMouse
}

// Resize resizes the wl_egl_window.
func (s *surface) Resize(width, height int32) {
	s.width, s.height = width, height
	if s.eglWindow != 0 {
		wlEGLWindowResize(s.eglWindow, width, height, 0, 0)
	}
}

// Destroy tears down the egl window, layer surface and wl_surface.
func (s *surface) Destroy() {
	if s.eglWindow != 0 {
		wlEGLWindowDestroy(s.eglWindow)
		s.eglWindow = 0
	}
	if s.layerSurface != 0 {
		wlProxyMarshalArray(s.layerSurface, layerSurfaceDestroy, wlArgs())
		wlProxyDestroy(s.layerSurface)
		s.layerSurface = 0
	}
	if s.wlSurface != 0 {
		delete(s.b.surfaces, s.wlSurface)
		wlProxyMarshalArray(s.wlSurface, surfaceDestroy, wlArgs())
		wlProxyDestroy(s.wlSurface)
		s.wlSurface = 0
	}
	if s.b.focus == s {
		s.b.focus = nil
	}
}

// --- listener trampolines ---

// installCallbacks mints the C-callable trampolines once per process.
func installCallbacks() {
	if callbacksReady {
		return
	}

	registryListener = [2]uintptr{
		purego.NewCallback(onRegistryGlobal),
		purego.NewCallback(onRegistryGlobalRemove),
	}
	outputListener = [6]uintptr{
		purego.NewCallback(onOutputGeometry),
		purego.NewCallback(onOutputMode),
		purego.NewCallback(onOutputDone),
		purego.NewCallback(onOutputScale),
		purego.NewCallback(onOutputName),
		purego.NewCallback(onOutputDescription),
	}
	layerSurfaceListener = [2]uintptr{
		purego.NewCallback(onLayerSurfaceConfigure),
		purego.NewCallback(onLayerSurfaceClosed),
	}
	pointerListener = [5]uintptr{
		purego.NewCallback(onPointerEnter),
		purego.NewCallback(onPointerLeave),
		purego.NewCallback(onPointerMotion),
		purego.NewCallback(onPointerButton),
		purego.NewCallback(onPointerAxis),
	}

	callbacksReady = true
}

func onRegistryGlobal(_ uintptr, _ uintptr, name uint32, ifaceName uintptr, version uint32) uintptr {
	b := activeBackend
	if b == nil {
		return 0
	}
	switch goStringFromC(ifaceName) {
	case "wl_compositor":
		b.compositor = b.bind(name, ifaceCompositor, "wl_compositor", minVersion(version, 4))
	case "zwlr_layer_shell_v1":
		b.layerShell = b.bindCustom(name, &layerShellInterface, 1)
	case "wl_output":
		proxy := b.bind(name, ifaceOutput, "wl_output", minVersion(version, 4))
		out := &output{id: name, proxy: proxy, scale: 1}
		b.outputs[name] = out
		wlProxyAddListener(proxy, &outputListener[0], uintptr(name))
	case "wl_seat":
		b.seat = b.bind(name, ifaceSeat, "wl_seat", minVersion(version, 1))
		b.pointer = wlProxyMarshalArrayConstructorVersioned(b.seat,
			seatGetPointer, wlArgs(0),
			(*wlInterface)(ptrTo(ifacePointer)), 1)
		if b.pointer != 0 {
			wlProxyAddListener(b.pointer, &pointerListener[0], 0)
		}
	}
	return 0
}

func onRegistryGlobalRemove(_ uintptr, _ uintptr, name uint32) uintptr {
	b := activeBackend
	if b == nil {
		return 0
	}
	if out, ok := b.outputs[name]; ok {
		delete(b.outputs, name)
		wlProxyDestroy(out.proxy)
		if b.handler != nil {
			b.handler.OutputRemoved(name)
		}
	}
	return 0
}

func onOutputGeometry(data, _ uintptr, _, _, _, _ int32, _ int32, _ uintptr, model uintptr, _ int32) uintptr {
	if b := activeBackend; b != nil {
		if out, ok := b.outputs[uint32(data)]; ok {
			out.model = goStringFromC(model)
		}
	}
	return 0
}

func onOutputMode(data, _ uintptr, flags uint32, width, height, _ int32) uintptr {
	const modeCurrent = 0x1
	if b := activeBackend; b != nil && flags&modeCurrent != 0 {
		if out, ok := b.outputs[uint32(data)]; ok {
			out.width, out.height = width, height
		}
	}
	return 0
}

func onOutputDone(data, _ uintptr) uintptr {
	b := activeBackend
	if b == nil || b.handler == nil {
		return 0
	}
	out, ok := b.outputs[uint32(data)]
	if !ok {
		return 0
	}
	info := backend.OutputInfo{
		ID:        out.id,
		Connector: out.connector,
		Model:     out.model,
		Width:     out.width,
		Height:    out.height,
		Scale:     out.scale,
	}
	if !out.announced {
		out.announced = true
		b.handler.OutputAdded(info)
	} else {
		b.handler.OutputResized(out.id, out.width, out.height)
	}
	return 0
}

func onOutputScale(data, _ uintptr, factor int32) uintptr {
	if b := activeBackend; b != nil {
		if out, ok := b.outputs[uint32(data)]; ok && factor > 0 {
			out.scale = factor
		}
	}
	return 0
}

func onOutputName(data, _ uintptr, name uintptr) uintptr {
	if b := activeBackend; b != nil {
		if out, ok := b.outputs[uint32(data)]; ok {
			out.connector = goStringFromC(name)
		}
	}
	return 0
}

func onOutputDescription(_, _ uintptr, _ uintptr) uintptr {
	return 0
}

func onLayerSurfaceConfigure(data, layerSurf uintptr, serial, width, height uint32) uintptr {
	b := activeBackend
	if b == nil {
		return 0
	}
	wlProxyMarshalArray(layerSurf, layerSurfaceAckConfigure, wlArgs(wlArgument(serial)))
	if s, ok := b.surfaces[data]; ok {
		if width > 0 && height > 0 {
			s.width, s.height = int32(width), int32(height)
			if s.eglWindow != 0 {
				wlEGLWindowResize(s.eglWindow, s.width, s.height, 0, 0)
			}
		}
		s.configured = true
	}
	return 0
}

func onLayerSurfaceClosed(data, _ uintptr) uintptr {
	b := activeBackend
	if b == nil {
		return 0
	}
	if s, ok := b.surfaces[data]; ok {
		wallshade.Logger().Warn("layer surface closed by compositor")
		s.configured = false
	}
	return 0
}

func onPointerEnter(_, _ uintptr, _ uint32, surf uintptr, sx, sy int32) uintptr {
	if b := activeBackend; b != nil {
		if s, ok := b.surfaces[surf]; ok {
			b.focus = s
			s.mouseX, s.mouseY = wlFixedToFloat(sx), wlFixedToFloat(sy)
			s.hasMouse = true
		}
	}
	return 0
}

func onPointerLeave(_, _ uintptr, _ uint32, _ uintptr) uintptr {
	if b := activeBackend; b != nil {
		b.focus = nil
	}
	return 0
}

func onPointerMotion(_, _ uintptr, _ uint32, sx, sy int32) uintptr {
	if b := activeBackend; b != nil && b.focus != nil {
		b.focus.mouseX = wlFixedToFloat(sx)
		b.focus.mouseY = wlFixedToFloat(sy)
	}
	return 0
}

func onPointerButton(_, _ uintptr, _, _, _, _ uint32) uintptr { return 0 }

func onPointerAxis(_, _ uintptr, _ uint32, _ uint32, _ int32) uintptr { return 0 }

// --- helpers ---

// bind issues wl_registry.bind for a core interface whose descriptor was
// dlsym'd from libwayland-client.
func (b *Backend) bind(name uint32, iface uintptr, ifaceName string, version uint32) uintptr {
	return b.bindNamed(name, (*wlInterface)(ptrTo(iface)), ifaceName, version)
}

// bindCustom issues wl_registry.bind for a hand-built interface descriptor.
func (b *Backend) bindCustom(name uint32, iface *wlInterface, version uint32) uintptr {
	return b.bindNamed(name, iface, goStringFromC(uintptr(unsafe.Pointer(iface.name))), version)
}

func (b *Backend) bindNamed(name uint32, iface *wlInterface, ifaceName string, version uint32) uintptr {
	nameStr := cStr(ifaceName)
	args := [4]wlArgument{
		wlArgument(name),
		wlArgument(uintptr(unsafe.Pointer(&nameStr[0]))),
		wlArgument(version),
		0, // id: new object
	}
	proxy := wlProxyMarshalArrayConstructorVersioned(b.registry, registryBind,
		&args[0], iface, version)
	runtime.KeepAlive(nameStr)
	return proxy
}

func minVersion(advertised, supported uint32) uint32 {
	if advertised < supported {
		return advertised
	}
	return supported
}

// negOne widens -1 to the machine word wl_argument expects.
func negOne() uintptr {
	return uintptr(^uint(0))
}

// ptrTo converts a dlsym'd data-symbol address into a typed pointer.
func ptrTo(addr uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&addr))
}
