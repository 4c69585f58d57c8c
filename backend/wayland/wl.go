// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package wayland

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// libwayland-client function pointers, registered at Init time. The
// listener vtables Wayland demands are C function pointers, which goffi
// cannot mint from Go functions, so this package binds libwayland through
// purego (Dlopen/RegisterLibFunc/NewCallback) instead of goffi.
var (
	wlClientLib uintptr
	wlEGLLib    uintptr

	wlDisplayConnect         func(name string) uintptr
	wlDisplayDisconnect      func(display uintptr)
	wlDisplayGetFD           func(display uintptr) int32
	wlDisplayRoundtrip       func(display uintptr) int32
	wlDisplayDispatch        func(display uintptr) int32
	wlDisplayDispatchPending func(display uintptr) int32
	wlDisplayFlush           func(display uintptr) int32
	wlDisplayGetError        func(display uintptr) int32

	wlProxyMarshalArray func(proxy uintptr, opcode uint32, args *wlArgument)
	// wl_proxy_marshal_array_constructor_versioned: the non-variadic
	// marshaling entry point; all requests go through these two.
	wlProxyMarshalArrayConstructorVersioned func(proxy uintptr, opcode uint32, args *wlArgument, iface *wlInterface, version uint32) uintptr
	wlProxyAddListener                      func(proxy uintptr, implementation *uintptr, data uintptr) int32
	wlProxyDestroy                          func(proxy uintptr)
	wlProxyGetVersion                       func(proxy uintptr) uint32

	wlEGLWindowCreate  func(surface uintptr, width, height int32) uintptr
	wlEGLWindowDestroy func(window uintptr)
	wlEGLWindowResize  func(window uintptr, width, height, dx, dy int32)

	// Core protocol interface descriptors exported by libwayland-client
	// as data symbols.
	ifaceRegistry   uintptr // &wl_registry_interface
	ifaceCompositor uintptr // &wl_compositor_interface
	ifaceSurface    uintptr // &wl_surface_interface
	ifaceOutput     uintptr // &wl_output_interface
	ifaceSeat       uintptr // &wl_seat_interface
	ifacePointer    uintptr // &wl_pointer_interface

	wlInitialized bool
)

// wlArgument is union wl_argument: one machine word per argument.
type wlArgument uintptr

// wlMessage mirrors struct wl_message.
type wlMessage struct {
	name      *byte
	signature *byte
	types     *uintptr // array of *wl_interface, one per argument
}

// wlInterface mirrors struct wl_interface, including the compiler padding
// between the int fields and the pointers on 64-bit targets.
type wlInterface struct {
	name        *byte
	version     int32
	methodCount int32
	methods     *wlMessage
	eventCount  int32
	_           int32
	events      *wlMessage
}

// initWayland loads libwayland-client and libwayland-egl and registers all
// function pointers. Safe to call more than once.
func initWayland() error {
	if wlInitialized {
		return nil
	}

	var err error
	wlClientLib, err = purego.Dlopen("libwayland-client.so.0", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		wlClientLib, err = purego.Dlopen("libwayland-client.so", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return fmt.Errorf("failed to load libwayland-client.so: %w", err)
		}
	}
	wlEGLLib, err = purego.Dlopen("libwayland-egl.so.1", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		wlEGLLib, err = purego.Dlopen("libwayland-egl.so", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return fmt.Errorf("failed to load libwayland-egl.so: %w", err)
		}
	}

	purego.RegisterLibFunc(&wlDisplayConnect, wlClientLib, "wl_display_connect")
	purego.RegisterLibFunc(&wlDisplayDisconnect, wlClientLib, "wl_display_disconnect")
	purego.RegisterLibFunc(&wlDisplayGetFD, wlClientLib, "wl_display_get_fd")
	purego.RegisterLibFunc(&wlDisplayRoundtrip, wlClientLib, "wl_display_roundtrip")
	purego.RegisterLibFunc(&wlDisplayDispatch, wlClientLib, "wl_display_dispatch")
	purego.RegisterLibFunc(&wlDisplayDispatchPending, wlClientLib, "wl_display_dispatch_pending")
	purego.RegisterLibFunc(&wlDisplayFlush, wlClientLib, "wl_display_flush")
	purego.RegisterLibFunc(&wlDisplayGetError, wlClientLib, "wl_display_get_error")

	purego.RegisterLibFunc(&wlProxyMarshalArray, wlClientLib, "wl_proxy_marshal_array")
	purego.RegisterLibFunc(&wlProxyMarshalArrayConstructorVersioned, wlClientLib,
		"wl_proxy_marshal_array_constructor_versioned")
	purego.RegisterLibFunc(&wlProxyAddListener, wlClientLib, "wl_proxy_add_listener")
	purego.RegisterLibFunc(&wlProxyDestroy, wlClientLib, "wl_proxy_destroy")
	purego.RegisterLibFunc(&wlProxyGetVersion, wlClientLib, "wl_proxy_get_version")

	purego.RegisterLibFunc(&wlEGLWindowCreate, wlEGLLib, "wl_egl_window_create")
	purego.RegisterLibFunc(&wlEGLWindowDestroy, wlEGLLib, "wl_egl_window_destroy")
	purego.RegisterLibFunc(&wlEGLWindowResize, wlEGLLib, "wl_egl_window_resize")

	for _, sym := range []struct {
		name string
		dst  *uintptr
	}{
		{"wl_registry_interface", &ifaceRegistry},
		{"wl_compositor_interface", &ifaceCompositor},
		{"wl_surface_interface", &ifaceSurface},
		{"wl_output_interface", &ifaceOutput},
		{"wl_seat_interface", &ifaceSeat},
		{"wl_pointer_interface", &ifacePointer},
	} {
		addr, err := purego.Dlsym(wlClientLib, sym.name)
		if err != nil {
			return fmt.Errorf("%s not found: %w", sym.name, err)
		}
		*sym.dst = addr
	}

	initLayerShellInterfaces()

	wlInitialized = true
	return nil
}

// goStringFromC converts a null-terminated C string address to a Go string.
func goStringFromC(cstr uintptr) string {
	if cstr == 0 {
		return ""
	}
	ptr := *(**byte)(unsafe.Pointer(&cstr))
	length := 0
	for i := 0; i < 4096; i++ {
		b := unsafe.Slice(ptr, i+1)
		if b[i] == 0 {
			length = i
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice(ptr, length))
}

// cStr returns a null-terminated byte buffer for a Go string. The caller
// must keep the returned slice alive for as long as C may read it.
func cStr(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf
}

// wlFixedToFloat converts a wl_fixed_t (24.8 fixed point) to float32.
func wlFixedToFloat(f int32) float32 {
	return float32(f) / 256.0
}

// wlArgs packs request arguments into the array libwayland expects. The
// variadic slice is addressable, which a bare array literal is not.
func wlArgs(vals ...wlArgument) *wlArgument {
	if len(vals) == 0 {
		vals = make([]wlArgument, 1)
	}
	return &vals[0]
}
