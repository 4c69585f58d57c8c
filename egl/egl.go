// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package egl

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

var (
	// eglLib is the handle to the loaded libEGL.so library.
	eglLib unsafe.Pointer

	// EGL 1.0+ core function symbols
	symEglGetError            unsafe.Pointer
	symEglGetDisplay          unsafe.Pointer
	symEglInitialize          unsafe.Pointer
	symEglTerminate           unsafe.Pointer
	symEglQueryString         unsafe.Pointer
	symEglChooseConfig        unsafe.Pointer
	symEglGetConfigAttrib     unsafe.Pointer
	symEglCreateWindowSurface unsafe.Pointer
	symEglDestroySurface      unsafe.Pointer
	symEglBindAPI             unsafe.Pointer
	symEglSwapInterval        unsafe.Pointer
	symEglCreateContext       unsafe.Pointer
	symEglDestroyContext      unsafe.Pointer
	symEglMakeCurrent         unsafe.Pointer
	symEglGetCurrentContext   unsafe.Pointer
	symEglSwapBuffers         unsafe.Pointer
	symEglGetProcAddress      unsafe.Pointer
	symEglGetPlatformDisplay  unsafe.Pointer // EGL 1.5, may be nil

	// CallInterfaces for each function signature
	cifEglGetError            types.CallInterface
	cifEglGetDisplay          types.CallInterface
	cifEglInitialize          types.CallInterface
	cifEglTerminate           types.CallInterface
	cifEglQueryString         types.CallInterface
	cifEglChooseConfig        types.CallInterface
	cifEglGetConfigAttrib     types.CallInterface
	cifEglCreateWindowSurface types.CallInterface
	cifEglDestroySurface      types.CallInterface
	cifEglBindAPI             types.CallInterface
	cifEglSwapInterval        types.CallInterface
	cifEglCreateContext       types.CallInterface
	cifEglDestroyContext      types.CallInterface
	cifEglMakeCurrent         types.CallInterface
	cifEglGetCurrentContext   types.CallInterface
	cifEglSwapBuffers         types.CallInterface
	cifEglGetProcAddress      types.CallInterface
	cifEglGetPlatformDisplay  types.CallInterface

	initialized bool
)

// Init loads the EGL library and initializes function pointers.
// Safe to call more than once; subsequent calls are no-ops.
func Init() error {
	if initialized {
		return nil
	}

	var err error

	// Try loading libEGL.so.1 first, then libEGL.so
	eglLib, err = ffi.LoadLibrary("libEGL.so.1")
	if err != nil {
		eglLib, err = ffi.LoadLibrary("libEGL.so")
		if err != nil {
			return fmt.Errorf("failed to load libEGL.so: %w", err)
		}
	}

	if err := loadEGLSymbols(); err != nil {
		return err
	}

	if err := prepareEGLCallInterfaces(); err != nil {
		return err
	}

	initialized = true
	return nil
}

// loadEGLSymbols loads all required EGL function symbols.
func loadEGLSymbols() error {
	syms := []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{"eglGetError", &symEglGetError},
		{"eglGetDisplay", &symEglGetDisplay},
		{"eglInitialize", &symEglInitialize},
		{"eglTerminate", &symEglTerminate},
		{"eglQueryString", &symEglQueryString},
		{"eglChooseConfig", &symEglChooseConfig},
		{"eglGetConfigAttrib", &symEglGetConfigAttrib},
		{"eglCreateWindowSurface", &symEglCreateWindowSurface},
		{"eglDestroySurface", &symEglDestroySurface},
		{"eglBindAPI", &symEglBindAPI},
		{"eglSwapInterval", &symEglSwapInterval},
		{"eglCreateContext", &symEglCreateContext},
		{"eglDestroyContext", &symEglDestroyContext},
		{"eglMakeCurrent", &symEglMakeCurrent},
		{"eglGetCurrentContext", &symEglGetCurrentContext},
		{"eglSwapBuffers", &symEglSwapBuffers},
		{"eglGetProcAddress", &symEglGetProcAddress},
	}
	for _, s := range syms {
		sym, err := ffi.GetSymbol(eglLib, s.name)
		if err != nil {
			return fmt.Errorf("%s not found: %w", s.name, err)
		}
		*s.dst = sym
	}

	// EGL 1.5, optional; callers fall back to eglGetDisplay when absent.
	symEglGetPlatformDisplay, _ = ffi.GetSymbol(eglLib, "eglGetPlatformDisplay")

	return nil
}

// prepareEGLCallInterfaces prepares a CallInterface per function
// signature.
func prepareEGLCallInterfaces() error {
	p := types.PointerTypeDescriptor
	u32 := types.UInt32TypeDescriptor

	prep := []struct {
		name string
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}{
		{"eglGetError", &cifEglGetError, u32, []*types.TypeDescriptor{}},
		{"eglGetDisplay", &cifEglGetDisplay, p, []*types.TypeDescriptor{p}},
		{"eglInitialize", &cifEglInitialize, u32, []*types.TypeDescriptor{p, p, p}},
		{"eglTerminate", &cifEglTerminate, u32, []*types.TypeDescriptor{p}},
		{"eglQueryString", &cifEglQueryString, p, []*types.TypeDescriptor{p, u32}},
		{"eglChooseConfig", &cifEglChooseConfig, u32, []*types.TypeDescriptor{p, p, p, u32, p}},
		{"eglGetConfigAttrib", &cifEglGetConfigAttrib, u32, []*types.TypeDescriptor{p, p, u32, p}},
		{"eglCreateWindowSurface", &cifEglCreateWindowSurface, p, []*types.TypeDescriptor{p, p, p, p}},
		{"eglDestroySurface", &cifEglDestroySurface, u32, []*types.TypeDescriptor{p, p}},
		{"eglBindAPI", &cifEglBindAPI, u32, []*types.TypeDescriptor{u32}},
		{"eglSwapInterval", &cifEglSwapInterval, u32, []*types.TypeDescriptor{p, u32}},
		{"eglCreateContext", &cifEglCreateContext, p, []*types.TypeDescriptor{p, p, p, p}},
		{"eglDestroyContext", &cifEglDestroyContext, u32, []*types.TypeDescriptor{p, p}},
		{"eglMakeCurrent", &cifEglMakeCurrent, u32, []*types.TypeDescriptor{p, p, p, p}},
		{"eglGetCurrentContext", &cifEglGetCurrentContext, p, []*types.TypeDescriptor{}},
		{"eglSwapBuffers", &cifEglSwapBuffers, u32, []*types.TypeDescriptor{p, p}},
		{"eglGetProcAddress", &cifEglGetProcAddress, p, []*types.TypeDescriptor{p}},
	}
	for _, pr := range prep {
		if err := ffi.PrepareCallInterface(pr.cif, types.DefaultCall, pr.ret, pr.args); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", pr.name, err)
		}
	}

	// EGL 1.5: EGLDisplay eglGetPlatformDisplay(EGLenum, void*, EGLAttrib*)
	if symEglGetPlatformDisplay != nil {
		err := ffi.PrepareCallInterface(&cifEglGetPlatformDisplay, types.DefaultCall,
			p, []*types.TypeDescriptor{u32, p, p})
		if err != nil {
			return fmt.Errorf("failed to prepare eglGetPlatformDisplay: %w", err)
		}
	}

	return nil
}

// GetError returns the last EGL error.
func GetError() EGLInt {
	var result EGLInt
	_ = ffi.CallFunction(&cifEglGetError, symEglGetError, unsafe.Pointer(&result), nil)
	return result
}

// GetDisplay returns an EGL display connection.
func GetDisplay(displayID EGLNativeDisplayType) EGLDisplay {
	var result EGLDisplay
	args := [1]unsafe.Pointer{
		unsafe.Pointer(&displayID),
	}
	_ = ffi.CallFunction(&cifEglGetDisplay, symEglGetDisplay, unsafe.Pointer(&result), args[:])
	return result
}

// GetPlatformDisplay returns an EGL display connection for a specific platform (EGL 1.5).
// Falls back to GetDisplay if EGL 1.5 is not available.
func GetPlatformDisplay(platform EGLEnum, nativeDisplay uintptr, attribList *EGLAttrib) EGLDisplay {
	if symEglGetPlatformDisplay != nil {
		var result EGLDisplay
		args := [3]unsafe.Pointer{
			unsafe.Pointer(&platform),
			unsafe.Pointer(&nativeDisplay),
			unsafe.Pointer(&attribList),
		}
		_ = ffi.CallFunction(&cifEglGetPlatformDisplay, symEglGetPlatformDisplay, unsafe.Pointer(&result), args[:])
		return result
	}
	// Fallback to eglGetDisplay
	return GetDisplay(EGLNativeDisplayType(nativeDisplay))
}

// Initialize initializes an EGL display connection.
func Initialize(dpy EGLDisplay, major *EGLInt, minor *EGLInt) EGLBoolean {
	var result EGLBoolean
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(major),
		unsafe.Pointer(minor),
	}
	_ = ffi.CallFunction(&cifEglInitialize, symEglInitialize, unsafe.Pointer(&result), args[:])
	return result
}

// Terminate terminates an EGL display connection.
func Terminate(dpy EGLDisplay) EGLBoolean {
	var result EGLBoolean
	args := [1]unsafe.Pointer{
		unsafe.Pointer(&dpy),
	}
	_ = ffi.CallFunction(&cifEglTerminate, symEglTerminate, unsafe.Pointer(&result), args[:])
	return result
}

// QueryString returns a string describing properties of the EGL client or display.
func QueryString(dpy EGLDisplay, name EGLInt) string {
	var ptr uintptr
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&name),
	}
	_ = ffi.CallFunction(&cifEglQueryString, symEglQueryString, unsafe.Pointer(&ptr), args[:])
	if ptr == 0 {
		return ""
	}
	return goString(ptr)
}

// ChooseConfig returns EGL frame buffer configurations that match specified attributes.
func ChooseConfig(dpy EGLDisplay, attribList *EGLInt, configs *EGLConfig, configSize EGLInt, numConfig *EGLInt) EGLBoolean {
	var result EGLBoolean
	args := [5]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(attribList),
		unsafe.Pointer(configs),
		unsafe.Pointer(&configSize),
		unsafe.Pointer(numConfig),
	}
	_ = ffi.CallFunction(&cifEglChooseConfig, symEglChooseConfig, unsafe.Pointer(&result), args[:])
	return result
}

// GetConfigAttrib returns information about an EGL frame buffer configuration.
func GetConfigAttrib(dpy EGLDisplay, config EGLConfig, attribute EGLInt, value *EGLInt) EGLBoolean {
	var result EGLBoolean
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&config),
		unsafe.Pointer(&attribute),
		unsafe.Pointer(value),
	}
	_ = ffi.CallFunction(&cifEglGetConfigAttrib, symEglGetConfigAttrib, unsafe.Pointer(&result), args[:])
	return result
}

// CreateWindowSurface creates a new EGL window surface.
func CreateWindowSurface(dpy EGLDisplay, config EGLConfig, win EGLNativeWindowType, attribList *EGLInt) EGLSurface {
	var result EGLSurface
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&config),
		unsafe.Pointer(&win),
		unsafe.Pointer(attribList),
	}
	_ = ffi.CallFunction(&cifEglCreateWindowSurface, symEglCreateWindowSurface, unsafe.Pointer(&result), args[:])
	return result
}

// DestroySurface destroys an EGL surface.
func DestroySurface(dpy EGLDisplay, surface EGLSurface) EGLBoolean {
	var result EGLBoolean
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&surface),
	}
	_ = ffi.CallFunction(&cifEglDestroySurface, symEglDestroySurface, unsafe.Pointer(&result), args[:])
	return result
}

// BindAPI sets the current rendering API.
func BindAPI(api EGLEnum) EGLBoolean {
	var result EGLBoolean
	args := [1]unsafe.Pointer{
		unsafe.Pointer(&api),
	}
	_ = ffi.CallFunction(&cifEglBindAPI, symEglBindAPI, unsafe.Pointer(&result), args[:])
	return result
}

// SwapInterval specifies the minimum number of video frames between buffer swaps.
func SwapInterval(dpy EGLDisplay, interval EGLInt) EGLBoolean {
	var result EGLBoolean
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&interval),
	}
	_ = ffi.CallFunction(&cifEglSwapInterval, symEglSwapInterval, unsafe.Pointer(&result), args[:])
	return result
}

// CreateContext creates a new EGL rendering context.
func CreateContext(dpy EGLDisplay, config EGLConfig, shareContext EGLContext, attribList *EGLInt) EGLContext {
	var result EGLContext
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&config),
		unsafe.Pointer(&shareContext),
		unsafe.Pointer(attribList),
	}
	_ = ffi.CallFunction(&cifEglCreateContext, symEglCreateContext, unsafe.Pointer(&result), args[:])
	return result
}

// DestroyContext destroys an EGL rendering context.
func DestroyContext(dpy EGLDisplay, ctx EGLContext) EGLBoolean {
	var result EGLBoolean
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&ctx),
	}
	_ = ffi.CallFunction(&cifEglDestroyContext, symEglDestroyContext, unsafe.Pointer(&result), args[:])
	return result
}

// MakeCurrent binds context to the current rendering thread and surfaces.
func MakeCurrent(dpy EGLDisplay, draw EGLSurface, read EGLSurface, ctx EGLContext) EGLBoolean {
	var result EGLBoolean
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&draw),
		unsafe.Pointer(&read),
		unsafe.Pointer(&ctx),
	}
	_ = ffi.CallFunction(&cifEglMakeCurrent, symEglMakeCurrent, unsafe.Pointer(&result), args[:])
	return result
}

// GetCurrentContext returns the current EGL rendering context.
func GetCurrentContext() EGLContext {
	var result EGLContext
	_ = ffi.CallFunction(&cifEglGetCurrentContext, symEglGetCurrentContext, unsafe.Pointer(&result), nil)
	return result
}

// SwapBuffers posts EGL surface color buffer to a native window.
func SwapBuffers(dpy EGLDisplay, surface EGLSurface) EGLBoolean {
	var result EGLBoolean
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&surface),
	}
	_ = ffi.CallFunction(&cifEglSwapBuffers, symEglSwapBuffers, unsafe.Pointer(&result), args[:])
	return result
}

// GetProcAddress returns the address of an EGL or client API extension function.
func GetProcAddress(procname string) uintptr {
	cname := append([]byte(procname), 0)
	var result uintptr
	args := [1]unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
	}
	_ = ffi.CallFunction(&cifEglGetProcAddress, symEglGetProcAddress, unsafe.Pointer(&result), args[:])
	return result
}

// GetGLProcAddress returns the address of an OpenGL function.
// It uses eglGetProcAddress to load both core and extension functions.
// Returns unsafe.Pointer for compatibility with the goffi-based GL context.
func GetGLProcAddress(name string) unsafe.Pointer {
	//nolint:govet // Converting uintptr (function address) to unsafe.Pointer is required for FFI
	return unsafe.Pointer(GetProcAddress(name))
}

// goString converts a null-terminated C string pointer to Go string.
func goString(cstr uintptr) string {
	if cstr == 0 {
		return ""
	}
	// Find string length (max 4096 to prevent infinite loops)
	length := 0
	//nolint:govet // Converting uintptr (C string address) to unsafe.Pointer is required for FFI
	ptr := (*byte)(unsafe.Pointer(cstr))
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
	result := unsafe.Slice(ptr, length)
	return string(result)
}
