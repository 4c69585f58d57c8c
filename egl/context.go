// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package egl

import (
	"errors"
	"fmt"
)

// ErrDisplayLost is reported by Swap when EGL signals that the underlying
// native display or context is gone. The caller moves the output to a
// dormant state; no EGL handle held for it is valid afterwards.
var ErrDisplayLost = errors.New("egl: display lost")

// Context wraps the process-wide EGL display and the shared desktop
// OpenGL 3.3 core context. All outputs render through this one context;
// MakeCurrentSurface rebinds it to the output whose frame is being produced.
type Context struct {
	display EGLDisplay
	config  EGLConfig
	context EGLContext
}

// NewContext initializes EGL on the given native display and creates the
// shared OpenGL 3.3 core context. platform selects the EGL 1.5 platform
// extension (PlatformWaylandKHR or PlatformX11KHR); nativeDisplay is the
// wl_display or X11 Display pointer owned by the compositor backend.
func NewContext(platform EGLEnum, nativeDisplay uintptr) (*Context, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	display := GetPlatformDisplay(platform, nativeDisplay, nil)
	if display == NoDisplay {
		// Fallback to EGL 1.4
		display = GetDisplay(EGLNativeDisplayType(nativeDisplay))
	}
	if display == NoDisplay {
		return nil, fmt.Errorf("eglGetDisplay failed: error 0x%x", GetError())
	}

	var major, minor EGLInt
	if Initialize(display, &major, &minor) == False {
		return nil, fmt.Errorf("eglInitialize failed: error 0x%x", GetError())
	}

	if BindAPI(OpenGLAPI) == False {
		Terminate(display)
		return nil, fmt.Errorf("eglBindAPI failed: error 0x%x", GetError())
	}

	config, err := chooseConfig(display)
	if err != nil {
		Terminate(display)
		return nil, err
	}

	attribs := []EGLInt{
		ContextMajorVersion, 3,
		ContextMinorVersion, 3,
		ContextOpenGLProfileMask, ContextOpenGLCoreProfileBit,
		None,
	}
	context := CreateContext(display, config, NoContext, &attribs[0])
	if context == NoContext {
		Terminate(display)
		return nil, fmt.Errorf("eglCreateContext failed: error 0x%x", GetError())
	}

	return &Context{
		display: display,
		config:  config,
		context: context,
	}, nil
}

// chooseConfig selects a window-renderable RGBA8 frame buffer configuration.
func chooseConfig(display EGLDisplay) (EGLConfig, error) {
	attribs := []EGLInt{
		SurfaceType, WindowBit,
		RenderableType, OpenGLBit,
		RedSize, 8,
		GreenSize, 8,
		BlueSize, 8,
		AlphaSize, 8,
		None,
	}

	var config EGLConfig
	var numConfigs EGLInt
	if ChooseConfig(display, &attribs[0], &config, 1, &numConfigs) == False {
		return 0, fmt.Errorf("eglChooseConfig failed: error 0x%x", GetError())
	}
	if numConfigs == 0 {
		return 0, fmt.Errorf("no suitable EGL configs found")
	}
	return config, nil
}

// CreateSurface creates an EGL window surface for a native window handle
// (a wl_egl_window or an X11 Window).
func (c *Context) CreateSurface(win uintptr) (EGLSurface, error) {
	surface := CreateWindowSurface(c.display, c.config, EGLNativeWindowType(win), nil)
	if surface == NoSurface {
		return NoSurface, fmt.Errorf("eglCreateWindowSurface failed: error 0x%x", GetError())
	}
	return surface, nil
}

// DestroySurface destroys an output's window surface. If the surface is
// current it is unbound first.
func (c *Context) DestroySurface(surface EGLSurface) {
	if surface == NoSurface {
		return
	}
	_ = MakeCurrent(c.display, NoSurface, NoSurface, NoContext)
	DestroySurface(c.display, surface)
}

// MakeCurrentSurface binds the shared context to the given surface on the
// calling thread. Only the event-loop thread calls this.
func (c *Context) MakeCurrentSurface(surface EGLSurface) error {
	if MakeCurrent(c.display, surface, surface, c.context) == False {
		return fmt.Errorf("eglMakeCurrent failed: error 0x%x", GetError())
	}
	return nil
}

// SetSwapInterval sets the swap interval for the surface that is current.
// Interval 1 syncs swaps to the compositor; 0 returns immediately so a
// frame timer can pace rendering instead.
func (c *Context) SetSwapInterval(interval int) {
	_ = SwapInterval(c.display, EGLInt(interval))
}

// Swap presents the surface. A ContextLost, BadDisplay or NotInitialized
// error maps to ErrDisplayLost so the caller can park the output; other EGL
// errors are returned verbatim.
func (c *Context) Swap(surface EGLSurface) error {
	if SwapBuffers(c.display, surface) == True {
		return nil
	}
	switch eglErr := GetError(); eglErr {
	case ContextLost, BadDisplay, NotInitialized:
		return ErrDisplayLost
	default:
		return fmt.Errorf("eglSwapBuffers failed: error 0x%x", eglErr)
	}
}

// HasCurrentContext reports whether any EGL context is current on the
// calling thread. GL resource wrappers consult this before issuing frees.
func HasCurrentContext() bool {
	return GetCurrentContext() != NoContext
}

// Display returns the EGL display.
func (c *Context) Display() EGLDisplay {
	return c.display
}

// Destroy releases the shared context and terminates the EGL display.
func (c *Context) Destroy() {
	if c.context != NoContext {
		_ = MakeCurrent(c.display, NoSurface, NoSurface, NoContext)
		DestroyContext(c.display, c.context)
		c.context = NoContext
	}
	if c.display != NoDisplay {
		Terminate(c.display)
		c.display = NoDisplay
	}
}
