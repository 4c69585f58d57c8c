// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package x11

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

var (
	// x11Lib is the handle to the loaded libX11.so library.
	x11Lib unsafe.Pointer
	// xrandrLib is the handle to the loaded libXrandr.so library.
	xrandrLib unsafe.Pointer

	// X11 function symbols
	symXOpenDisplay        unsafe.Pointer
	symXCloseDisplay       unsafe.Pointer
	symXConnectionNumber   unsafe.Pointer
	symXDefaultScreen      unsafe.Pointer
	symXRootWindow         unsafe.Pointer
	symXCreateSimpleWindow unsafe.Pointer
	symXDestroyWindow      unsafe.Pointer
	symXInternAtom         unsafe.Pointer
	symXChangeProperty     unsafe.Pointer
	symXMapWindow          unsafe.Pointer
	symXLowerWindow        unsafe.Pointer
	symXMoveResizeWindow   unsafe.Pointer
	symXSelectInput        unsafe.Pointer
	symXStoreName          unsafe.Pointer
	symXFlush              unsafe.Pointer
	symXPending            unsafe.Pointer
	symXNextEvent          unsafe.Pointer
	symXQueryPointer       unsafe.Pointer
	symXGetAtomName        unsafe.Pointer
	symXFree               unsafe.Pointer

	// Xrandr function symbols
	symXRRGetMonitors  unsafe.Pointer
	symXRRFreeMonitors unsafe.Pointer

	// CallInterfaces
	cifPtr1Ptr   types.CallInterface // void* fn(void*)
	cifInt1Ptr   types.CallInterface // int32 fn(void*)
	cifPtr2      types.CallInterface // void* fn(void*, Atom) - XGetAtomName (Atom as word)
	cifULong2    types.CallInterface // ulong fn(void*, int32) - XRootWindow
	cifWindow9   types.CallInterface // Window fn(Display*, Window, int, int, uint, uint, uint, ulong, ulong)
	cifInt2Win   types.CallInterface // int fn(Display*, Window)
	cifAtom3     types.CallInterface // Atom fn(Display*, char*, int)
	cifProp8     types.CallInterface // int fn(Display*, Window, Atom, Atom, int, int, void*, int)
	cifMoveRes6  types.CallInterface // int fn(Display*, Window, int, int, uint, uint)
	cifSelInp3   types.CallInterface // int fn(Display*, Window, long)
	cifName3     types.CallInterface // int fn(Display*, Window, char*)
	cifEvent2    types.CallInterface // int fn(Display*, XEvent*)
	cifQueryPtr9 types.CallInterface // Bool fn(Display*, Window, Window*, Window*, int*, int*, int*, int*, uint*)
	cifFree1     types.CallInterface // int fn(void*)
	cifMon4      types.CallInterface // XRRMonitorInfo* fn(Display*, Window, Bool, int*)
	cifFreeMon1  types.CallInterface // void fn(XRRMonitorInfo*)

	x11Initialized bool
)

// xrrMonitorInfo mirrors XRRMonitorInfo, padding included.
type xrrMonitorInfo struct {
	name      uintptr // Atom
	primary   int32
	automatic int32
	noutput   int32
	x         int32
	y         int32
	width     int32
	height    int32
	mwidth    int32
	mheight   int32
	_         int32
	outputs   uintptr
}

// initX11 loads libX11 and libXrandr and prepares call interfaces.
// Safe to call more than once.
func initX11() error {
	if x11Initialized {
		return nil
	}

	var err error

	// Try loading libX11.so.6 first, then libX11.so
	x11Lib, err = ffi.LoadLibrary("libX11.so.6")
	if err != nil {
		x11Lib, err = ffi.LoadLibrary("libX11.so")
		if err != nil {
			return fmt.Errorf("failed to load libX11.so: %w", err)
		}
	}
	xrandrLib, err = ffi.LoadLibrary("libXrandr.so.2")
	if err != nil {
		xrandrLib, err = ffi.LoadLibrary("libXrandr.so")
		if err != nil {
			return fmt.Errorf("failed to load libXrandr.so: %w", err)
		}
	}

	if err := loadX11Symbols(); err != nil {
		return err
	}
	if err := prepareX11CallInterfaces(); err != nil {
		return err
	}

	x11Initialized = true
	return nil
}

// loadX11Symbols loads all required X11 and Xrandr symbols.
func loadX11Symbols() error {
	syms := []struct {
		lib  unsafe.Pointer
		name string
		dst  *unsafe.Pointer
	}{
		{x11Lib, "XOpenDisplay", &symXOpenDisplay},
		{x11Lib, "XCloseDisplay", &symXCloseDisplay},
		{x11Lib, "XConnectionNumber", &symXConnectionNumber},
		{x11Lib, "XDefaultScreen", &symXDefaultScreen},
		{x11Lib, "XRootWindow", &symXRootWindow},
		{x11Lib, "XCreateSimpleWindow", &symXCreateSimpleWindow},
		{x11Lib, "XDestroyWindow", &symXDestroyWindow},
		{x11Lib, "XInternAtom", &symXInternAtom},
		{x11Lib, "XChangeProperty", &symXChangeProperty},
		{x11Lib, "XMapWindow", &symXMapWindow},
		{x11Lib, "XLowerWindow", &symXLowerWindow},
		{x11Lib, "XMoveResizeWindow", &symXMoveResizeWindow},
		{x11Lib, "XSelectInput", &symXSelectInput},
		{x11Lib, "XStoreName", &symXStoreName},
		{x11Lib, "XFlush", &symXFlush},
		{x11Lib, "XPending", &symXPending},
		{x11Lib, "XNextEvent", &symXNextEvent},
		{x11Lib, "XQueryPointer", &symXQueryPointer},
		{x11Lib, "XGetAtomName", &symXGetAtomName},
		{x11Lib, "XFree", &symXFree},
		{xrandrLib, "XRRGetMonitors", &symXRRGetMonitors},
		{xrandrLib, "XRRFreeMonitors", &symXRRFreeMonitors},
	}
	for _, s := range syms {
		sym, err := ffi.GetSymbol(s.lib, s.name)
		if err != nil {
			return fmt.Errorf("%s not found: %w", s.name, err)
		}
		*s.dst = sym
	}
	return nil
}

// prepareX11CallInterfaces prepares a CallInterface per signature.
//
//nolint:maintidx // FFI initialization requires many CallInterface setups
func prepareX11CallInterfaces() error {
	p := types.PointerTypeDescriptor
	i32 := types.SInt32TypeDescriptor
	u32 := types.UInt32TypeDescriptor

	prep := []struct {
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}{
		{&cifPtr1Ptr, p, []*types.TypeDescriptor{p}},
		{&cifInt1Ptr, i32, []*types.TypeDescriptor{p}},
		{&cifPtr2, p, []*types.TypeDescriptor{p, p}},
		{&cifULong2, p, []*types.TypeDescriptor{p, i32}},
		{&cifWindow9, p, []*types.TypeDescriptor{p, p, i32, i32, u32, u32, u32, p, p}},
		{&cifInt2Win, i32, []*types.TypeDescriptor{p, p}},
		{&cifAtom3, p, []*types.TypeDescriptor{p, p, i32}},
		{&cifProp8, i32, []*types.TypeDescriptor{p, p, p, p, i32, i32, p, i32}},
		{&cifMoveRes6, i32, []*types.TypeDescriptor{p, p, i32, i32, u32, u32}},
		{&cifSelInp3, i32, []*types.TypeDescriptor{p, p, p}},
		{&cifName3, i32, []*types.TypeDescriptor{p, p, p}},
		{&cifEvent2, i32, []*types.TypeDescriptor{p, p}},
		{&cifQueryPtr9, i32, []*types.TypeDescriptor{p, p, p, p, p, p, p, p, p}},
		{&cifFree1, i32, []*types.TypeDescriptor{p}},
		{&cifMon4, p, []*types.TypeDescriptor{p, p, i32, p}},
		{&cifFreeMon1, types.VoidTypeDescriptor, []*types.TypeDescriptor{p}},
	}
	for _, pr := range prep {
		if err := ffi.PrepareCallInterface(pr.cif, types.DefaultCall, pr.ret, pr.args); err != nil {
			return fmt.Errorf("failed to prepare X11 call interface: %w", err)
		}
	}
	return nil
}

// --- wrappers ---

func xOpenDisplay() uintptr {
	var display uintptr
	var name uintptr // NULL = use DISPLAY environment variable
	args := [1]unsafe.Pointer{unsafe.Pointer(&name)}
	_ = ffi.CallFunction(&cifPtr1Ptr, symXOpenDisplay, unsafe.Pointer(&display), args[:])
	return display
}

func xCloseDisplay(display uintptr) {
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&display)}
	_ = ffi.CallFunction(&cifInt1Ptr, symXCloseDisplay, unsafe.Pointer(&result), args[:])
}

func xConnectionNumber(display uintptr) int32 {
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&display)}
	_ = ffi.CallFunction(&cifInt1Ptr, symXConnectionNumber, unsafe.Pointer(&result), args[:])
	return result
}

func xDefaultScreen(display uintptr) int32 {
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&display)}
	_ = ffi.CallFunction(&cifInt1Ptr, symXDefaultScreen, unsafe.Pointer(&result), args[:])
	return result
}

func xRootWindow(display uintptr, screen int32) uintptr {
	var result uintptr
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&screen),
	}
	_ = ffi.CallFunction(&cifULong2, symXRootWindow, unsafe.Pointer(&result), args[:])
	return result
}

func xCreateSimpleWindow(display, parent uintptr, x, y int32, width, height, borderWidth uint32, border, background uintptr) uintptr {
	var result uintptr
	args := [9]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&parent),
		unsafe.Pointer(&x),
		unsafe.Pointer(&y),
		unsafe.Pointer(&width),
		unsafe.Pointer(&height),
		unsafe.Pointer(&borderWidth),
		unsafe.Pointer(&border),
		unsafe.Pointer(&background),
	}
	_ = ffi.CallFunction(&cifWindow9, symXCreateSimpleWindow, unsafe.Pointer(&result), args[:])
	return result
}

func xDestroyWindow(display, window uintptr) {
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
	}
	_ = ffi.CallFunction(&cifInt2Win, symXDestroyWindow, unsafe.Pointer(&result), args[:])
}

func xInternAtom(display uintptr, name string, onlyIfExists bool) uintptr {
	cname := append([]byte(name), 0)
	namePtr := uintptr(unsafe.Pointer(&cname[0]))
	var exists int32
	if onlyIfExists {
		exists = 1
	}
	var result uintptr
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&namePtr),
		unsafe.Pointer(&exists),
	}
	_ = ffi.CallFunction(&cifAtom3, symXInternAtom, unsafe.Pointer(&result), args[:])
	runtime.KeepAlive(cname)
	return result
}

// Property change modes.
const propModeReplace = 0

func xChangeProperty(display, window, property, typ uintptr, format int32, mode int32, data unsafe.Pointer, nelements int32) {
	dataPtr := uintptr(data)
	var result int32
	args := [8]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&property),
		unsafe.Pointer(&typ),
		unsafe.Pointer(&format),
		unsafe.Pointer(&mode),
		unsafe.Pointer(&dataPtr),
		unsafe.Pointer(&nelements),
	}
	_ = ffi.CallFunction(&cifProp8, symXChangeProperty, unsafe.Pointer(&result), args[:])
}

func xMapWindow(display, window uintptr) {
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
	}
	_ = ffi.CallFunction(&cifInt2Win, symXMapWindow, unsafe.Pointer(&result), args[:])
}

func xLowerWindow(display, window uintptr) {
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
	}
	_ = ffi.CallFunction(&cifInt2Win, symXLowerWindow, unsafe.Pointer(&result), args[:])
}

func xMoveResizeWindow(display, window uintptr, x, y int32, width, height uint32) {
	var result int32
	args := [6]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&x),
		unsafe.Pointer(&y),
		unsafe.Pointer(&width),
		unsafe.Pointer(&height),
	}
	_ = ffi.CallFunction(&cifMoveRes6, symXMoveResizeWindow, unsafe.Pointer(&result), args[:])
}

// Event masks.
const structureNotifyMask = 1 << 17

func xSelectInput(display, window uintptr, mask uintptr) {
	var result int32
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&mask),
	}
	_ = ffi.CallFunction(&cifSelInp3, symXSelectInput, unsafe.Pointer(&result), args[:])
}

func xStoreName(display, window uintptr, name string) {
	cname := append([]byte(name), 0)
	namePtr := uintptr(unsafe.Pointer(&cname[0]))
	var result int32
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&namePtr),
	}
	_ = ffi.CallFunction(&cifName3, symXStoreName, unsafe.Pointer(&result), args[:])
	runtime.KeepAlive(cname)
}

func xFlush(display uintptr) {
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&display)}
	_ = ffi.CallFunction(&cifInt1Ptr, symXFlush, unsafe.Pointer(&result), args[:])
}

func xPending(display uintptr) int32 {
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&display)}
	_ = ffi.CallFunction(&cifInt1Ptr, symXPending, unsafe.Pointer(&result), args[:])
	return result
}

// xEvent is a raw XEvent buffer; the union is 192 bytes on 64-bit.
type xEvent [24]uint64

// Event types.
const configureNotify = 22

// eventType returns the event type stored in the first int of the union.
func (e *xEvent) eventType() int32 {
	return int32(e[0])
}

// configureWindow/Width/Height decode XConfigureEvent fields.
func (e *xEvent) configureWindow() uintptr { return uintptr(e[5]) }
func (e *xEvent) configureWidth() int32    { return int32(e[7] & 0xFFFFFFFF) }
func (e *xEvent) configureHeight() int32   { return int32(e[7] >> 32) }

func xNextEvent(display uintptr, event *xEvent) {
	eventPtr := uintptr(unsafe.Pointer(event))
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&eventPtr),
	}
	_ = ffi.CallFunction(&cifEvent2, symXNextEvent, unsafe.Pointer(&result), args[:])
}

func xQueryPointer(display, window uintptr) (x, y int32, ok bool) {
	var root, child uintptr
	var rootX, rootY, winX, winY int32
	var mask uint32
	rootPtr := uintptr(unsafe.Pointer(&root))
	childPtr := uintptr(unsafe.Pointer(&child))
	rootXPtr := uintptr(unsafe.Pointer(&rootX))
	rootYPtr := uintptr(unsafe.Pointer(&rootY))
	winXPtr := uintptr(unsafe.Pointer(&winX))
	winYPtr := uintptr(unsafe.Pointer(&winY))
	maskPtr := uintptr(unsafe.Pointer(&mask))
	var result int32
	args := [9]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&rootPtr),
		unsafe.Pointer(&childPtr),
		unsafe.Pointer(&rootXPtr),
		unsafe.Pointer(&rootYPtr),
		unsafe.Pointer(&winXPtr),
		unsafe.Pointer(&winYPtr),
		unsafe.Pointer(&maskPtr),
	}
	_ = ffi.CallFunction(&cifQueryPtr9, symXQueryPointer, unsafe.Pointer(&result), args[:])
	return winX, winY, result != 0
}

func xGetAtomName(display, atom uintptr) string {
	var ptr uintptr
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&atom),
	}
	_ = ffi.CallFunction(&cifPtr2, symXGetAtomName, unsafe.Pointer(&ptr), args[:])
	if ptr == 0 {
		return ""
	}
	name := goStringFromC(ptr)
	ptrCopy := ptr
	freeArgs := [1]unsafe.Pointer{unsafe.Pointer(&ptrCopy)}
	var result int32
	_ = ffi.CallFunction(&cifFree1, symXFree, unsafe.Pointer(&result), freeArgs[:])
	return name
}

func xrrGetMonitors(display, window uintptr) []xrrMonitorInfo {
	var n int32
	nPtr := uintptr(unsafe.Pointer(&n))
	getActive := int32(1)
	var monitors uintptr
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&display),
		unsafe.Pointer(&window),
		unsafe.Pointer(&getActive),
		unsafe.Pointer(&nPtr),
	}
	_ = ffi.CallFunction(&cifMon4, symXRRGetMonitors, unsafe.Pointer(&monitors), args[:])
	if monitors == 0 || n <= 0 {
		return nil
	}

	raw := unsafe.Slice((*xrrMonitorInfo)(ptrTo(monitors)), int(n))
	result := make([]xrrMonitorInfo, n)
	copy(result, raw)

	freeArgs := [1]unsafe.Pointer{unsafe.Pointer(&monitors)}
	_ = ffi.CallFunction(&cifFreeMon1, symXRRFreeMonitors, nil, freeArgs[:])
	return result
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

// ptrTo converts a C pointer address into an unsafe.Pointer.
func ptrTo(addr uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&addr))
}
