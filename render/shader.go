// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"fmt"
	"os"
	"time"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/decode"
	"github.com/gogpu/wallshade/gl"
)

// maxChannels is the iChannel binding surface.
const maxChannels = 4

// shaderPass is one compiled pass with its targets.
type shaderPass struct {
	kind  PassKind
	prog  *Program
	scale float64
	// fbos is the ping-pong pair for buffer passes; nil for the Image pass.
	// fbos[read] holds the previous frame, fbos[1-read] is written this
	// frame, then read flips.
	fbos [2]*Framebuffer
	read int
	// target size of the pass buffers.
	width, height int32
}

// Shader is a ready-to-render Shadertoy-compatible program: one pass, or
// BufferA..D ping-pong passes feeding a final Image pass.
type Shader struct {
	glc   *gl.Context
	cache *StateCache

	path     string
	passes   []*shaderPass
	channels []*Texture // file textures from the channel config
	width    int32
	height   int32

	lastFrame time.Time
}

// LoadShader reads, splits, wraps and compiles the shader at path and loads
// its channel textures. width/height are the output size buffer passes are
// allocated against. On any compile error the partial build is destroyed
// and the *ShaderError is returned inside err.
func LoadShader(glc *gl.Context, cache *StateCache, path string, channelPaths []string, width, height int32) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: shader %s: %w", path, err)
	}

	s := &Shader{
		glc:    glc,
		cache:  cache,
		path:   path,
		width:  width,
		height: height,
	}

	for _, src := range SplitPasses(string(data)) {
		prog, serr := linkProgram(glc, passVertexShader, WrapPass(src.Source), preludeLineCount)
		if serr != nil {
			s.Destroy()
			return nil, fmt.Errorf("render: shader %s pass %s: %w", path, src.Kind, serr)
		}
		pass := &shaderPass{kind: src.Kind, prog: prog, scale: 1}
		if src.Kind != PassImage {
			pass.scale = RecommendedScale(src.Source)
		}
		s.passes = append(s.passes, pass)
	}

	if !s.allocateBuffers() {
		s.Destroy()
		return nil, fmt.Errorf("render: shader %s: buffer pass framebuffer incomplete", path)
	}

	for i, chPath := range channelPaths {
		if i >= maxChannels {
			break
		}
		img, err := decode.Decode(chPath, 0, 0, decode.HintNone)
		if err != nil {
			wallshade.Logger().Warn("shader channel texture failed, binding black",
				"shader", path, "channel", i, "error", err)
			s.channels = append(s.channels, blackTexture(glc, cache))
			continue
		}
		s.channels = append(s.channels,
			NewTexture(glc, cache, img.Pixels, int32(img.Width), int32(img.Height), WrapRepeat))
	}

	return s, nil
}

// blackTexture is the 1x1 stand-in for a channel that failed to load.
func blackTexture(glc *gl.Context, cache *StateCache) *Texture {
	return NewTexture(glc, cache, []byte{0, 0, 0, 255}, 1, 1, WrapClampToEdge)
}

// allocateBuffers (re)allocates ping-pong FBO pairs for buffer passes at
// their recommended scale of the current output size.
func (s *Shader) allocateBuffers() bool {
	for _, pass := range s.passes {
		if pass.kind == PassImage {
			continue
		}
		for i := range pass.fbos {
			pass.fbos[i].Release()
			pass.fbos[i] = nil
		}
		w := int32(float64(s.width) * pass.scale)
		h := int32(float64(s.height) * pass.scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		pass.width, pass.height = w, h
		for i := range pass.fbos {
			fbo, ok := NewFramebuffer(s.glc, s.cache, w, h)
			if !ok {
				return false
			}
			pass.fbos[i] = fbo
		}
		pass.read = 0
	}
	return true
}

// Resize reallocates all buffer-pass targets for a new output size.
func (s *Shader) Resize(width, height int32) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	if !s.allocateBuffers() {
		wallshade.Logger().Warn("shader buffer reallocation failed after resize",
			"shader", s.path, "width", width, "height", height)
	}
}

// Path returns the source path this shader was loaded from.
func (s *Shader) Path() string { return s.path }

// ReplaceChannel0 swaps the first channel texture, used by hybrid cycling
// where the shader stays and its input image rotates. The previous texture
// is released.
func (s *Shader) ReplaceChannel0(tex *Texture) {
	if len(s.channels) == 0 {
		s.channels = append(s.channels, tex)
		return
	}
	s.channels[0].Release()
	s.channels[0] = tex
}

// channelBindings returns the textures for iChannel0..3 as seen by one
// pass: file textures first, then buffer-pass read textures in BufferA..D
// order filling the remaining slots. A buffer pass reading its own slot
// sees its previous frame, which is what makes feedback work.
func (s *Shader) channelBindings() []*Texture {
	bindings := make([]*Texture, 0, maxChannels)
	for _, tex := range s.channels {
		if len(bindings) == maxChannels {
			break
		}
		bindings = append(bindings, tex)
	}
	for _, pass := range s.passes {
		if pass.kind == PassImage || len(bindings) == maxChannels {
			continue
		}
		bindings = append(bindings, pass.fbos[pass.read].Texture())
	}
	return bindings
}

// FrameInput carries the per-frame uniform values the output engine owns.
type FrameInput struct {
	Now    time.Time
	Start  time.Time
	Speed  float64
	Mouse  [4]float32
	Frame  int
	Width  int32
	Height int32
}

// RenderFrame runs every pass in order (BufferA..D then Image) and leaves
// the final image in the currently bound draw framebuffer.
func (s *Shader) RenderFrame(quad *Quad, in FrameInput) {
	delta := float32(0)
	if !s.lastFrame.IsZero() {
		delta = float32(in.Now.Sub(s.lastFrame).Seconds())
	}
	s.lastFrame = in.Now

	iTime := float32(in.Now.Sub(in.Start).Seconds() * in.Speed)
	bindings := s.channelBindings()

	for _, pass := range s.passes {
		var w, h int32
		if pass.kind == PassImage {
			s.glc.BindFramebuffer(gl.FRAMEBUFFER, 0)
			w, h = in.Width, in.Height
		} else {
			pass.fbos[1-pass.read].Bind()
			w, h = pass.width, pass.height
		}
		s.glc.Viewport(0, 0, w, h)

		s.cache.UseProgram(s.glc, pass.prog.ID())
		s.setUniforms(pass, bindings, iTime, delta, in, w, h)
		quad.Draw()

		if pass.kind != PassImage {
			pass.read = 1 - pass.read
			// The swap changes what later passes read.
			bindings = s.channelBindings()
		}
	}
}

// setUniforms updates the standard Shadertoy uniform set for one pass.
func (s *Shader) setUniforms(pass *shaderPass, bindings []*Texture, iTime, delta float32, in FrameInput, w, h int32) {
	glc := s.glc
	p := pass.prog

	glc.Uniform1f(p.UniformLocation("iTime"), iTime)
	glc.Uniform1f(p.UniformLocation("iTimeDelta"), delta)
	if delta > 0 {
		glc.Uniform1f(p.UniformLocation("iFrameRate"), 1/delta)
	}
	glc.Uniform1i(p.UniformLocation("iFrame"), int32(in.Frame))
	glc.Uniform3f(p.UniformLocation("iResolution"), float32(w), float32(h), 1)
	glc.Uniform4f(p.UniformLocation("iMouse"), in.Mouse[0], in.Mouse[1], in.Mouse[2], in.Mouse[3])

	year, month, day := in.Now.Date()
	secs := float32(in.Now.Hour()*3600+in.Now.Minute()*60+in.Now.Second()) +
		float32(in.Now.Nanosecond())/1e9
	glc.Uniform4f(p.UniformLocation("iDate"),
		float32(year), float32(int(month)-1), float32(day), secs)

	resolutions := make([]float32, 0, maxChannels*3)
	for i := 0; i < maxChannels; i++ {
		name := fmt.Sprintf("iChannel%d", i)
		if i < len(bindings) && bindings[i] != nil {
			glc.ActiveTexture(gl.TEXTURE0 + uint32(i))
			glc.BindTexture(gl.TEXTURE_2D, bindings[i].ID())
			glc.Uniform1i(p.UniformLocation(name), int32(i))
			tw, th := bindings[i].Size()
			resolutions = append(resolutions, float32(tw), float32(th), 1)
		} else {
			resolutions = append(resolutions, 0, 0, 1)
		}
	}
	glc.Uniform3fv(p.UniformLocation("iChannelResolution"), resolutions)

	// Explicit texture binds bypass the cache; reset the unit and drop the
	// cached binding so later cached binds stay truthful.
	glc.ActiveTexture(gl.TEXTURE0)
	s.cache.Invalidate()
}

// Destroy tears down programs, FBOs and channel textures. Must only be
// called with a current context.
func (s *Shader) Destroy() {
	for _, pass := range s.passes {
		pass.prog.Release()
		for i := range pass.fbos {
			pass.fbos[i].Release()
			pass.fbos[i] = nil
		}
	}
	s.passes = nil
	for _, tex := range s.channels {
		tex.Release()
	}
	s.channels = nil
}
