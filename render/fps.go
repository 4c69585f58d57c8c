// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/wallshade/gl"
)

// FPSCounter counts frames over one-second windows.
type FPSCounter struct {
	frames      int
	fps         int
	windowStart time.Time
}

// Tick records one frame. updated is true when a window just closed and
// FPS() has a fresh value.
func (c *FPSCounter) Tick(now time.Time) (updated bool) {
	if c.windowStart.IsZero() {
		c.windowStart = now
	}
	c.frames++
	if now.Sub(c.windowStart) < time.Second {
		return false
	}
	c.fps = c.frames
	c.frames = 0
	c.windowStart = now
	return true
}

// FPS returns the last completed window's frame count.
func (c *FPSCounter) FPS() int { return c.fps }

// Overlay watermark geometry.
const (
	overlayWidth   = 72
	overlayHeight  = 18
	overlayMarginX = 12
	overlayMarginY = 12
)

// FPSOverlay renders the numeric FPS readout into a small texture drawn in
// the output's corner. The texture re-rasterizes only when the value
// changes.
type FPSOverlay struct {
	glc     *gl.Context
	cache   *StateCache
	tex     *Texture
	lastFPS int
}

// NewFPSOverlay allocates the overlay texture.
func NewFPSOverlay(glc *gl.Context, cache *StateCache) *FPSOverlay {
	o := &FPSOverlay{glc: glc, cache: cache, lastFPS: -1}
	o.tex = NewTexture(glc, cache, rasterizeFPS(0), overlayWidth, overlayHeight, WrapClampToEdge)
	return o
}

// Update re-rasterizes the readout when fps changed.
func (o *FPSOverlay) Update(fps int) {
	if fps == o.lastFPS {
		return
	}
	o.lastFPS = fps
	o.tex.Update(o.cache, rasterizeFPS(fps))
}

// Draw blends the watermark into the top-left corner. prog is the shared
// image program; an overlay-sized viewport positions the small quad.
func (o *FPSOverlay) Draw(quad *Quad, prog *Program, outW, outH int32) {
	o.cache.UseProgram(o.glc, prog.ID())
	o.cache.SetBlend(o.glc, true)
	o.cache.BindTexture(o.glc, o.tex.ID())

	// A viewport the size of the overlay places the unit quad in the
	// corner; the placement uniforms stay neutral.
	o.glc.Viewport(
		overlayMarginX,
		outH-overlayHeight-overlayMarginY,
		overlayWidth, overlayHeight)
	o.glc.Uniform2f(prog.UniformLocation("posScale"), 1, 1)
	o.glc.Uniform2f(prog.UniformLocation("uvScale"), 1, 1)
	o.glc.Uniform2f(prog.UniformLocation("uvOffset"), 0, 0)
	o.glc.Uniform1i(prog.UniformLocation("tex0"), 0)
	quad.Draw()

	o.cache.SetBlend(o.glc, false)
	o.glc.Viewport(0, 0, outW, outH)
}

// Release frees the overlay texture.
func (o *FPSOverlay) Release() {
	if o == nil {
		return
	}
	o.tex.Release()
	o.tex = nil
}

// rasterizeFPS draws "FPS n" onto a dark backdrop with the 7x13 basic
// font and returns the RGBA buffer.
func rasterizeFPS(fps int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, overlayWidth, overlayHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 128}), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 13),
	}
	d.DrawString(fmt.Sprintf("FPS %d", fps))
	return img.Pix
}
