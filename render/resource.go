// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package render is the per-output render engine: GL resource wrappers, the
// Shadertoy-compatible shader host, image transitions, the async preloader
// and the output engine that orchestrates them. Everything here runs on the
// event-loop thread except the decode half of the preloader.
package render

import (
	"unsafe"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/egl"
	"github.com/gogpu/wallshade/gl"
)

// StateCache avoids redundant GL binds. One cache per output; wrapper calls
// short-circuit when the requested state already matches.
type StateCache struct {
	boundTexture  uint32
	activeProgram uint32
	blendEnabled  bool
}

// BindTexture binds a 2D texture unless it is already bound.
func (s *StateCache) BindTexture(glc *gl.Context, id uint32) {
	if s.boundTexture == id {
		return
	}
	glc.BindTexture(gl.TEXTURE_2D, id)
	s.boundTexture = id
}

// UseProgram switches the active program unless it already matches.
func (s *StateCache) UseProgram(glc *gl.Context, id uint32) {
	if s.activeProgram == id {
		return
	}
	glc.UseProgram(id)
	s.activeProgram = id
}

// SetBlend toggles alpha blending unless already in the requested state.
func (s *StateCache) SetBlend(glc *gl.Context, enabled bool) {
	if s.blendEnabled == enabled {
		return
	}
	if enabled {
		glc.Enable(gl.BLEND)
		glc.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		glc.Disable(gl.BLEND)
	}
	s.blendEnabled = enabled
}

// Invalidate clears the cache after anything else may have touched GL
// bindings (context rebind, external teardown).
func (s *StateCache) Invalidate() {
	s.boundTexture = 0
	s.activeProgram = 0
	s.blendEnabled = false
}

// WrapPolicy selects the texture wrap mode.
type WrapPolicy int

const (
	// WrapClampToEdge clamps texel fetches to the edge; the default for
	// wallpaper images.
	WrapClampToEdge WrapPolicy = iota
	// WrapRepeat tiles the texture; used by tile display mode and most
	// shader channel textures.
	WrapRepeat
)

// Texture owns one GL 2D texture.
type Texture struct {
	id     uint32
	width  int32
	height int32
	glc    *gl.Context
}

// NewTexture creates an RGBA8 texture from a pixel buffer. Rows are flipped
// vertically during upload so decoded images land in GL's bottom-up
// orientation. pixels may be nil for a render target allocation.
func NewTexture(glc *gl.Context, cache *StateCache, pixels []byte, width, height int32, wrap WrapPolicy) *Texture {
	id := glc.GenTextures(1)
	cache.BindTexture(glc, id)

	glc.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	glc.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	wrapMode := int32(gl.CLAMP_TO_EDGE)
	if wrap == WrapRepeat {
		wrapMode = gl.REPEAT
	}
	glc.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode)
	glc.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode)

	glc.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if pixels == nil {
		glc.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0,
			gl.RGBA, gl.UNSIGNED_BYTE, 0)
	} else {
		flipped := flipRows(pixels, int(width), int(height))
		glc.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0,
			gl.RGBA, gl.UNSIGNED_BYTE, uintptr(unsafe.Pointer(&flipped[0])))
	}

	return &Texture{id: id, width: width, height: height, glc: glc}
}

// flipRows returns the pixel buffer with its rows reversed.
func flipRows(pixels []byte, width, height int) []byte {
	stride := width * 4
	out := make([]byte, len(pixels))
	for y := 0; y < height; y++ {
		copy(out[y*stride:(y+1)*stride], pixels[(height-1-y)*stride:(height-y)*stride])
	}
	return out
}

// Update replaces the texture contents in place, flipping rows as upload
// does. The dimensions must match the allocation.
func (t *Texture) Update(cache *StateCache, pixels []byte) {
	cache.BindTexture(t.glc, t.id)
	t.glc.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	flipped := flipRows(pixels, int(t.width), int(t.height))
	t.glc.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, t.width, t.height,
		gl.RGBA, gl.UNSIGNED_BYTE, uintptr(unsafe.Pointer(&flipped[0])))
}

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

// Size returns the texture dimensions.
func (t *Texture) Size() (int32, int32) { return t.width, t.height }

// Release frees the GL texture if a context is current. Without one the
// handle is leaked and reported; that is the accepted outcome on
// compositor disconnect, where the context is already gone.
func (t *Texture) Release() {
	if t == nil || t.id == 0 {
		return
	}
	if !egl.HasCurrentContext() {
		wallshade.Logger().Warn("leaking GL texture, no current context", "texture", t.id)
		t.id = 0
		return
	}
	t.glc.DeleteTextures(t.id)
	t.id = 0
}

// Program owns one linked GL program and its uniform-location cache.
type Program struct {
	id       uint32
	glc      *gl.Context
	uniforms map[string]int32
}

// UniformLocation returns the cached location for name, querying GL once.
func (p *Program) UniformLocation(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := p.glc.GetUniformLocation(p.id, name)
	p.uniforms[name] = loc
	return loc
}

// ID returns the GL program name.
func (p *Program) ID() uint32 { return p.id }

// Release frees the GL program under the same current-context rule as
// Texture.Release.
func (p *Program) Release() {
	if p == nil || p.id == 0 {
		return
	}
	if !egl.HasCurrentContext() {
		wallshade.Logger().Warn("leaking GL program, no current context", "program", p.id)
		p.id = 0
		return
	}
	p.glc.DeleteProgram(p.id)
	p.id = 0
}

// Framebuffer owns one FBO with a color texture attachment.
type Framebuffer struct {
	id  uint32
	tex *Texture
	glc *gl.Context
}

// NewFramebuffer allocates an FBO rendering into a fresh RGBA8 texture.
func NewFramebuffer(glc *gl.Context, cache *StateCache, width, height int32) (*Framebuffer, bool) {
	tex := NewTexture(glc, cache, nil, width, height, WrapClampToEdge)

	id := glc.GenFramebuffers(1)
	glc.BindFramebuffer(gl.FRAMEBUFFER, id)
	glc.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)
	complete := glc.CheckFramebufferStatus(gl.FRAMEBUFFER) == gl.FRAMEBUFFER_COMPLETE
	glc.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if !complete {
		fb := &Framebuffer{id: id, tex: tex, glc: glc}
		fb.Release()
		return nil, false
	}
	return &Framebuffer{id: id, tex: tex, glc: glc}, true
}

// Bind makes the FBO the draw target.
func (f *Framebuffer) Bind() {
	f.glc.BindFramebuffer(gl.FRAMEBUFFER, f.id)
}

// Texture returns the color attachment.
func (f *Framebuffer) Texture() *Texture { return f.tex }

// Release frees the FBO and its texture under the current-context rule.
func (f *Framebuffer) Release() {
	if f == nil {
		return
	}
	if f.id != 0 {
		if egl.HasCurrentContext() {
			f.glc.DeleteFramebuffers(f.id)
		} else {
			wallshade.Logger().Warn("leaking GL framebuffer, no current context", "fbo", f.id)
		}
		f.id = 0
	}
	f.tex.Release()
	f.tex = nil
}
