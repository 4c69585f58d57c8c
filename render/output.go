// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"os"
	"reflect"
	"time"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/config"
	"github.com/gogpu/wallshade/decode"
	"github.com/gogpu/wallshade/egl"
	"github.com/gogpu/wallshade/gl"
)

// maxShaderFails is how many consecutive compile failures park a shader
// path until the daemon restarts with new configuration.
const maxShaderFails = 3

// Output is the render engine for one physical output. All methods run on
// the event-loop thread with this output's surface current; only the
// preload slot's worker runs elsewhere.
type Output struct {
	Info backend.OutputInfo

	glc        *gl.Context
	ectx       *egl.Context
	cache      StateCache
	surface    backend.Surface
	eglSurface egl.EGLSurface

	cfg       config.Wallpaper
	hasConfig bool

	quad       *Quad
	imageProg  *Program
	transProgs map[config.Transition]*Program

	// Image mode: the visible texture and, mid-transition, its successor.
	current     *Texture
	currentPath string
	next        *Texture
	trans       *Transition

	// Shader mode.
	shader           *Shader
	shaderStart      time.Time
	shaderFrame      int
	shaderFails      int
	shaderLoadFailed bool

	Preload    PreloadSlot
	CycleIndex int
	lastCycle  time.Time

	fpsCounter FPSCounter
	fpsOverlay *FPSOverlay

	// TimerFD is the frame-pacing timerfd when vsync is off in shader
	// mode; -1 otherwise. The daemon owns arming and polling it.
	TimerFD int

	NeedsRedraw bool
	Dormant     bool
	ErrorsCount int
	// StateDirty asks the daemon to republish the state file.
	StateDirty bool
}

// NewOutput wraps an announced output whose surfaces already exist.
func NewOutput(info backend.OutputInfo, glc *gl.Context, ectx *egl.Context,
	surface backend.Surface, eglSurface egl.EGLSurface) *Output {
	return &Output{
		Info:       info,
		glc:        glc,
		ectx:       ectx,
		surface:    surface,
		eglSurface: eglSurface,
		transProgs: make(map[config.Transition]*Program),
		TimerFD:    -1,
	}
}

// SetGL installs the loaded GL function table. The first output loads GL
// only after its context becomes current, so this runs after NewOutput and
// before any render call.
func (o *Output) SetGL(glc *gl.Context) { o.glc = glc }

// MakeCurrent binds the shared context to this output's surface.
func (o *Output) MakeCurrent() error {
	if err := o.ectx.MakeCurrentSurface(o.eglSurface); err != nil {
		return err
	}
	// Bindings are per-context but the cache is per-output; after a
	// rebind it cannot be trusted.
	o.cache.Invalidate()
	return nil
}

// EGLSurface returns the surface for the daemon's swap call.
func (o *Output) EGLSurface() egl.EGLSurface { return o.eglSurface }

// Surface returns the backend surface.
func (o *Output) Surface() backend.Surface { return o.surface }

// ensureResources lazily builds the per-output quad and image program.
func (o *Output) ensureResources() bool {
	if o.quad != nil && o.imageProg != nil {
		return true
	}
	if o.quad == nil {
		o.quad = NewQuad(o.glc)
	}
	if o.imageProg == nil {
		prog, serr := linkProgram(o.glc, quadVertexShader, imageFragmentShader, 0)
		if serr != nil {
			wallshade.Logger().Error("image program failed to build",
				"output", o.Info.Connector, "error", serr)
			return false
		}
		o.imageProg = prog
	}
	return true
}

// ApplyConfig installs a deep copy of cfg and loads the first source.
// Reapplying an identical config is a no-op so render state stays stable.
func (o *Output) ApplyConfig(cfg config.Wallpaper, now time.Time) {
	if o.hasConfig && reflect.DeepEqual(o.cfg, cfg) {
		return
	}

	o.cfg = cfg.Clone()
	o.hasConfig = true
	o.CycleIndex = 0
	o.lastCycle = now
	o.shaderFails = 0
	o.shaderLoadFailed = false

	// Swap interval 1 under vsync; otherwise 0, with a frame timer the
	// daemon arms from ShaderFPS.
	if o.cfg.Mode == config.ModeShader && !o.cfg.VSync {
		o.ectx.SetSwapInterval(0)
	} else {
		o.ectx.SetSwapInterval(1)
	}

	switch o.cfg.Mode {
	case config.ModeShader:
		o.SetShader(o.cfg.Shader, now)
	default:
		if o.cfg.Path != "" {
			o.SetWallpaper(o.cfg.Path, now)
		}
	}
	o.NeedsRedraw = true
	o.StateDirty = true
}

// Config returns the active configuration value.
func (o *Output) Config() config.Wallpaper { return o.cfg }

// HasConfig reports whether ApplyConfig has run.
func (o *Output) HasConfig() bool { return o.hasConfig }

// CurrentPath returns the source currently shown (image path or shader
// path), for the state file.
func (o *Output) CurrentPath() string {
	if o.cfg.Mode == config.ModeShader && o.shader != nil {
		return o.shader.Path()
	}
	return o.currentPath
}

// SetWallpaper shows the image at path. A matching preloaded texture is
// used as-is; otherwise the image decodes synchronously. With a previous
// image and a configured transition the switch animates; the first image
// appears immediately.
func (o *Output) SetWallpaper(path string, now time.Time) {
	if !o.ensureResources() {
		return
	}

	// Hybrid cycling: a shader stays resident while image-extension cycle
	// entries retarget its first channel.
	if o.cfg.Mode == config.ModeShader && o.shader != nil && config.IsImagePath(path) {
		o.setShaderChannelImage(path)
		return
	}

	tex, ok := o.Preload.Take(path)
	if !ok {
		img, err := decode.Decode(path, int(o.Info.Width), int(o.Info.Height), o.decodeHint())
		if err != nil {
			wallshade.Logger().Warn("wallpaper decode failed, keeping last image",
				"output", o.Info.Connector, "path", path, "error", err)
			o.ErrorsCount++
			return
		}
		tex = NewTexture(o.glc, &o.cache, img.Pixels,
			int32(img.Width), int32(img.Height), o.wrapPolicy())
	}

	if o.current != nil && o.cfg.Transition != config.TransitionNone && o.cfg.TransitionDuration > 0 {
		// Replace any still-running transition: its outgoing frame is
		// dropped, the incoming one becomes the new outgoing.
		if o.next != nil {
			o.current.Release()
			o.current = o.next
		}
		o.next = tex
		o.trans = NewTransition(o.cfg.Transition, now, o.cfg.TransitionDuration)
	} else {
		o.current.Release()
		o.current = tex
		o.trans = nil
		if o.next != nil {
			o.next.Release()
			o.next = nil
		}
	}

	o.currentPath = path
	o.NeedsRedraw = true
	o.StateDirty = true
	wallshade.Logger().Info("wallpaper set",
		"output", o.Info.Connector, "path", path)
}

// setShaderChannelImage decodes path into the live shader's iChannel0.
func (o *Output) setShaderChannelImage(path string) {
	img, err := decode.Decode(path, 0, 0, decode.HintNone)
	if err != nil {
		wallshade.Logger().Warn("channel image decode failed",
			"output", o.Info.Connector, "path", path, "error", err)
		o.ErrorsCount++
		return
	}
	o.shader.ReplaceChannel0(NewTexture(o.glc, &o.cache, img.Pixels,
		int32(img.Width), int32(img.Height), WrapRepeat))
	o.currentPath = path
	o.NeedsRedraw = true
	o.StateDirty = true
}

// SetShader compiles and swaps in the shader at path. The swap is
// instantaneous; iTime restarts at zero. On failure the previous shader
// stays active, and after maxShaderFails consecutive failures the path is
// parked until the daemon restarts.
func (o *Output) SetShader(path string, now time.Time) {
	if o.shaderLoadFailed {
		return
	}
	if !o.ensureResources() {
		return
	}

	sh, err := LoadShader(o.glc, &o.cache, path, o.cfg.Channels, o.Info.Width, o.Info.Height)
	if err != nil {
		o.shaderFails++
		o.ErrorsCount++
		wallshade.Logger().Warn("shader load failed",
			"output", o.Info.Connector, "path", path,
			"attempt", o.shaderFails, "error", err)
		if o.shaderFails >= maxShaderFails {
			o.shaderLoadFailed = true
			wallshade.Logger().Error("shader permanently failed, not retrying",
				"output", o.Info.Connector, "path", path)
		}
		return
	}

	if o.shader != nil {
		o.shader.Destroy()
	}
	o.shader = sh
	o.shaderStart = now
	o.shaderFrame = 0
	o.shaderFails = 0

	// Image-mode leftovers have no business in shader mode.
	o.current.Release()
	o.current = nil
	o.currentPath = ""
	if o.next != nil {
		o.next.Release()
		o.next = nil
	}
	o.trans = nil

	o.NeedsRedraw = true
	o.StateDirty = true
	wallshade.Logger().Info("shader set", "output", o.Info.Connector, "path", path)
}

// ShouldCycle reports whether the time-based scheduler owes this output an
// advance.
func (o *Output) ShouldCycle(now time.Time) bool {
	return o.cfg.CycleEnabled() &&
		o.cfg.CycleDuration > 0 &&
		now.Sub(o.lastCycle) >= o.cfg.CycleDuration &&
		o.trans == nil
}

// CycleWallpaper advances to the next entry in the cycle list, skipping
// entries whose files went missing. The cycle timer restarts regardless.
func (o *Output) CycleWallpaper(now time.Time) {
	n := len(o.cfg.CyclePaths)
	if n < 2 {
		return
	}

	for tries := 0; tries < n; tries++ {
		o.CycleIndex = (o.CycleIndex + 1) % n
		path := o.cfg.CyclePaths[o.CycleIndex]
		if _, err := os.Stat(path); err != nil {
			wallshade.Logger().Warn("cycle entry missing, skipping",
				"output", o.Info.Connector, "path", path)
			continue
		}
		o.applyCyclePath(path, now)
		break
	}

	o.lastCycle = now
	o.PreloadNext()
}

// SetCycleIndex jumps directly to a cycle entry; invalid indices are
// rejected by the caller.
func (o *Output) SetCycleIndex(idx int, now time.Time) {
	if idx < 0 || idx >= len(o.cfg.CyclePaths) || idx == o.CycleIndex {
		return
	}
	o.CycleIndex = idx
	o.applyCyclePath(o.cfg.CyclePaths[idx], now)
	o.lastCycle = now
	o.PreloadNext()
}

// applyCyclePath routes a cycle entry to the image, shader or hybrid path.
func (o *Output) applyCyclePath(path string, now time.Time) {
	if o.cfg.Mode == config.ModeShader && !config.IsImagePath(path) {
		o.SetShader(path, now)
		return
	}
	o.SetWallpaper(path, now)
}

// PreloadNext starts decoding the next cycle entry on the worker thread.
// Image entries only; spawning is idempotent while a worker runs.
func (o *Output) PreloadNext() {
	n := len(o.cfg.CyclePaths)
	if n < 2 {
		return
	}
	path := o.cfg.CyclePaths[(o.CycleIndex+1)%n]
	if !config.IsImagePath(path) {
		return
	}
	if o.Preload.WorkerActive() || o.Preload.ReadyFor(path) {
		return
	}
	o.Preload.Start(path, int(o.Info.Width), int(o.Info.Height), o.decodeHint())
}

// HandleUploadPending uploads a finished preload decode to the GPU. Called
// every event-loop tick with the context current.
func (o *Output) HandleUploadPending() {
	o.Preload.HandleUpload(o.glc, &o.cache, o.wrapPolicy())
}

// RenderFrame issues one frame of GL. It returns true when the output
// animates (shader running or transition in flight) and therefore needs
// another frame. The daemon swaps afterwards.
func (o *Output) RenderFrame(now time.Time) bool {
	if o.Dormant || !o.ensureResources() {
		return false
	}
	o.NeedsRedraw = false

	w, h := o.Info.Width, o.Info.Height
	o.glc.Viewport(0, 0, w, h)
	animating := false

	switch {
	case o.cfg.Mode == config.ModeShader && o.shader != nil:
		mx, my, _ := o.surface.Pointer()
		o.shader.RenderFrame(o.quad, FrameInput{
			Now:    now,
			Start:  o.shaderStart,
			Speed:  o.cfg.ShaderSpeed,
			Mouse:  [4]float32{mx, float32(h) - my, 0, 0},
			Frame:  o.shaderFrame,
			Width:  w,
			Height: h,
		})
		o.shaderFrame++
		animating = true

	case o.trans != nil && o.next != nil:
		eased := o.trans.Advance(now)
		o.drawTransition(eased, w, h)
		if o.trans.Done(now) {
			// Completion frees the outgoing texture within the same
			// frame's completion step.
			o.current.Release()
			o.current = o.next
			o.next = nil
			o.trans = nil
		} else {
			animating = true
		}

	case o.current != nil:
		o.drawImage(o.current, w, h)

	default:
		// No discoverable asset: solid black.
		o.glc.ClearColor(0, 0, 0, 1)
		o.glc.Clear(gl.COLOR_BUFFER_BIT)
	}

	o.fpsCounter.Tick(now)
	if o.cfg.ShowFPS {
		if o.fpsOverlay == nil {
			o.fpsOverlay = NewFPSOverlay(o.glc, &o.cache)
		}
		o.fpsOverlay.Update(o.fpsCounter.FPS())
		o.fpsOverlay.Draw(o.quad, o.imageProg, w, h)
	}

	return animating
}

// drawImage draws a texture with the configured display mode.
func (o *Output) drawImage(tex *Texture, outW, outH int32) {
	// Fit and center can leave uncovered output; clear first.
	o.glc.ClearColor(0, 0, 0, 1)
	o.glc.Clear(gl.COLOR_BUFFER_BIT)

	imgW, imgH := tex.Size()
	posScale, uvScale, uvOffset := placement(o.cfg.Display, imgW, imgH, outW, outH)

	o.cache.UseProgram(o.glc, o.imageProg.ID())
	o.cache.BindTexture(o.glc, tex.ID())
	o.glc.Uniform1i(o.imageProg.UniformLocation("tex0"), 0)
	o.glc.Uniform2f(o.imageProg.UniformLocation("posScale"), posScale[0], posScale[1])
	o.glc.Uniform2f(o.imageProg.UniformLocation("uvScale"), uvScale[0], uvScale[1])
	o.glc.Uniform2f(o.imageProg.UniformLocation("uvOffset"), uvOffset[0], uvOffset[1])
	o.quad.Draw()
}

// drawTransition draws the blended frame of an in-flight transition.
func (o *Output) drawTransition(eased float32, outW, outH int32) {
	prog, ok := o.transitionProgram(o.trans.Kind)
	if !ok {
		// Effect program unavailable: degrade to a hard cut.
		o.drawImage(o.next, outW, outH)
		return
	}

	o.cache.UseProgram(o.glc, prog.ID())
	o.glc.ActiveTexture(gl.TEXTURE0)
	o.glc.BindTexture(gl.TEXTURE_2D, o.current.ID())
	o.glc.ActiveTexture(gl.TEXTURE0 + 1)
	o.glc.BindTexture(gl.TEXTURE_2D, o.next.ID())
	o.glc.ActiveTexture(gl.TEXTURE0)
	o.cache.Invalidate()

	o.glc.Uniform1i(prog.UniformLocation("tex0"), 0)
	o.glc.Uniform1i(prog.UniformLocation("tex1"), 1)
	o.glc.Uniform1f(prog.UniformLocation("progress"), eased)
	o.glc.Uniform2f(prog.UniformLocation("resolution"), float32(outW), float32(outH))
	o.quad.Draw()
}

// transitionProgram lazily compiles the effect program for a kind.
func (o *Output) transitionProgram(kind config.Transition) (*Program, bool) {
	if prog, ok := o.transProgs[kind]; ok {
		return prog, prog != nil
	}
	src, ok := TransitionFragment(kind)
	if !ok {
		o.transProgs[kind] = nil
		return nil, false
	}
	prog, serr := linkProgram(o.glc, passVertexShader, src, 0)
	if serr != nil {
		wallshade.Logger().Error("transition shader failed to build",
			"output", o.Info.Connector, "kind", kind.String(), "error", serr)
		o.transProgs[kind] = nil
		return nil, false
	}
	o.transProgs[kind] = prog
	return prog, true
}

// Resize adjusts for a new output size: the backend window, shader
// buffers, and a redraw.
func (o *Output) Resize(width, height int32) {
	if width == o.Info.Width && height == o.Info.Height {
		return
	}
	o.Info.Width, o.Info.Height = width, height
	o.surface.Resize(width, height)
	if o.shader != nil {
		o.shader.Resize(width, height)
	}
	o.NeedsRedraw = true
}

// decodeHint maps the display mode to the decoder's scaling hint.
func (o *Output) decodeHint() decode.Hint {
	switch o.cfg.Display {
	case config.DisplayFit:
		return decode.HintFit
	case config.DisplayFill:
		return decode.HintFill
	case config.DisplayStretch:
		return decode.HintStretch
	default:
		// Center and tile want native pixels.
		return decode.HintNone
	}
}

// wrapPolicy picks the texture wrap for the display mode.
func (o *Output) wrapPolicy() WrapPolicy {
	if o.cfg.Display == config.DisplayTile {
		return WrapRepeat
	}
	return WrapClampToEdge
}

// InTransition reports whether a transition is in flight.
func (o *Output) InTransition() bool { return o.trans != nil }

// LastCycle returns when the cycle timer last restarted.
func (o *Output) LastCycle() time.Time { return o.lastCycle }

// Animating reports whether the output produces frames continuously: a
// live shader, or an image transition in flight.
func (o *Output) Animating() bool {
	if o.trans != nil {
		return true
	}
	return o.cfg.Mode == config.ModeShader && o.shader != nil
}

// TransitionProgress returns the raw progress, or 0 outside a transition.
func (o *Output) TransitionProgress(now time.Time) float32 {
	if o.trans == nil {
		return 0
	}
	return o.trans.Progress(now)
}

// Destroy cancels the preloader and frees every GL resource this output
// owns. The caller makes the context current first when it still can.
func (o *Output) Destroy() {
	o.Preload.Cancel()

	o.current.Release()
	o.current = nil
	if o.next != nil {
		o.next.Release()
		o.next = nil
	}
	o.trans = nil

	if o.shader != nil {
		o.shader.Destroy()
		o.shader = nil
	}
	for _, prog := range o.transProgs {
		prog.Release()
	}
	o.transProgs = map[config.Transition]*Program{}
	o.imageProg.Release()
	o.imageProg = nil
	o.fpsOverlay.Release()
	o.fpsOverlay = nil
	o.quad.Release()
	o.quad = nil
}

// placement computes the quad placement uniforms for a display mode.
func placement(mode config.DisplayMode, imgW, imgH, outW, outH int32) (posScale, uvScale, uvOffset [2]float32) {
	posScale = [2]float32{1, 1}
	uvScale = [2]float32{1, 1}
	uvOffset = [2]float32{0, 0}
	if imgW <= 0 || imgH <= 0 || outW <= 0 || outH <= 0 {
		return
	}

	iw, ih := float64(imgW), float64(imgH)
	ow, oh := float64(outW), float64(outH)

	switch mode {
	case config.DisplayStretch:
		// Defaults already stretch.
	case config.DisplayFill:
		// Cover the output, cropping the overflowing axis via UVs.
		scale := max(ow/iw, oh/ih)
		uvScale = [2]float32{float32(ow / (iw * scale)), float32(oh / (ih * scale))}
		uvOffset = [2]float32{(1 - uvScale[0]) / 2, (1 - uvScale[1]) / 2}
	case config.DisplayFit:
		// Letterbox: shrink the quad, keep full UVs.
		scale := min(ow/iw, oh/ih)
		posScale = [2]float32{float32(iw * scale / ow), float32(ih * scale / oh)}
	case config.DisplayCenter:
		// Native size. Larger-than-output images crop via UVs, smaller
		// ones shrink the quad.
		if iw > ow {
			uvScale[0] = float32(ow / iw)
			uvOffset[0] = (1 - uvScale[0]) / 2
		} else {
			posScale[0] = float32(iw / ow)
		}
		if ih > oh {
			uvScale[1] = float32(oh / ih)
			uvOffset[1] = (1 - uvScale[1]) / 2
		} else {
			posScale[1] = float32(ih / oh)
		}
	case config.DisplayTile:
		uvScale = [2]float32{float32(ow / iw), float32(oh / ih)}
	}
	return
}
