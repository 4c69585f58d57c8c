// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package daemon owns the wallshade event loop: one thread multiplexing the
// compositor connection, the signalfd control plane, a wakeup eventfd and
// per-output frame timers over poll(2), and driving the per-output render
// engines. Strong ownership flows daemon → outputs only.
package daemon

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/config"
	"github.com/gogpu/wallshade/egl"
	"github.com/gogpu/wallshade/gl"
	"github.com/gogpu/wallshade/render"
)

// maxQueuedNext caps the pending `next` counter when SIGUSR1 floods in.
const maxQueuedNext = 100

// Daemon is the process-scoped state, passed explicitly to whoever needs
// it; there is no package-level singleton.
type Daemon struct {
	running           atomic.Bool
	paused            atomic.Bool
	nextRequested     atomic.Int32
	setIndexRequested atomic.Int32

	entries []config.Entry

	be   backend.Backend
	ectx *egl.Context
	glc  *gl.Context
	glOK bool

	// outputsMu guards the output map: the event loop holds the read lock
	// while iterating and the write lock only for add/remove driven by
	// compositor events. Control-plane code never touches the map.
	outputsMu sync.RWMutex
	outputs   map[uint32]*render.Output

	// pending holds outputs announced during Connect, before EGL exists.
	pending []backend.OutputInfo

	signalFD int
	wakeupFD int
}

// New builds a daemon over validated configuration entries.
func New(entries []config.Entry) *Daemon {
	d := &Daemon{
		entries:  entries,
		outputs:  make(map[uint32]*render.Output),
		signalFD: -1,
		wakeupFD: -1,
	}
	d.setIndexRequested.Store(-1)
	return d
}

// Run connects to the compositor, brings up EGL and outputs, and blocks in
// the event loop until shutdown. Startup errors return; after startup no
// error terminates the daemon.
func (d *Daemon) Run() error {
	be, ok := backend.Detect()
	if !ok {
		return wallshade.ErrNoBackend
	}
	d.be = be

	if err := be.Connect(d); err != nil {
		return fmt.Errorf("%w: %v", wallshade.ErrNoBackend, err)
	}
	defer be.Close()

	ectx, err := egl.NewContext(be.Platform(), be.NativeDisplay())
	if err != nil {
		return fmt.Errorf("%w: %v", wallshade.ErrEGLInit, err)
	}
	d.ectx = ectx
	defer ectx.Destroy()

	d.signalFD, err = openSignalFD()
	if err != nil {
		return err
	}
	defer unix.Close(d.signalFD)

	d.wakeupFD, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("daemon: eventfd: %w", err)
	}
	defer unix.Close(d.wakeupFD)

	// Outputs announced during Connect waited for EGL; realize them now.
	for _, info := range d.pending {
		d.realizeOutput(info)
	}
	d.pending = nil
	d.publishState()

	d.running.Store(true)
	d.loop()
	d.shutdown()
	return nil
}

// Wakeup breaks the event loop out of poll. Safe from any goroutine.
func (d *Daemon) Wakeup() {
	if d.wakeupFD >= 0 {
		one := [8]byte{0: 1}
		_, _ = unix.Write(d.wakeupFD, one[:])
	}
}

// Stop asks the loop to exit.
func (d *Daemon) Stop() {
	d.running.Store(false)
	d.Wakeup()
}

// --- backend.Handler ---

// OutputAdded realizes a new output, or queues it while EGL is not yet up.
func (d *Daemon) OutputAdded(info backend.OutputInfo) {
	wallshade.Logger().Info("output added",
		"output", info.Connector, "model", info.Model,
		"width", info.Width, "height", info.Height)
	if d.ectx == nil {
		d.pending = append(d.pending, info)
		return
	}
	d.realizeOutput(info)
	d.publishState()
}

// OutputRemoved tears down a gone output.
func (d *Daemon) OutputRemoved(id uint32) {
	d.outputsMu.Lock()
	out, ok := d.outputs[id]
	if ok {
		delete(d.outputs, id)
	}
	d.outputsMu.Unlock()
	if !ok {
		return
	}
	wallshade.Logger().Info("output removed", "output", out.Info.Connector)
	d.teardownOutput(out)
	d.publishState()
}

// OutputResized propagates a new pixel size.
func (d *Daemon) OutputResized(id uint32, width, height int32) {
	d.outputsMu.RLock()
	out, ok := d.outputs[id]
	d.outputsMu.RUnlock()
	if !ok {
		return
	}
	if err := out.MakeCurrent(); err != nil {
		wallshade.Logger().Warn("resize: make current failed",
			"output", out.Info.Connector, "error", err)
		return
	}
	out.Resize(width, height)
}

// realizeOutput creates surfaces and the render engine for an announced
// output and applies its configuration.
func (d *Daemon) realizeOutput(info backend.OutputInfo) {
	surf, err := d.be.CreateSurface(info.ID, info.Width, info.Height)
	if err != nil {
		wallshade.Logger().Error("surface creation failed",
			"output", info.Connector, "error", err)
		return
	}

	eglSurf, err := d.ectx.CreateSurface(surf.NativeWindow())
	if err != nil {
		wallshade.Logger().Error("EGL surface creation failed",
			"output", info.Connector, "error", err)
		surf.Destroy()
		return
	}

	out := render.NewOutput(info, d.glc, d.ectx, surf, eglSurf)
	if err := out.MakeCurrent(); err != nil {
		wallshade.Logger().Error("make current failed",
			"output", info.Connector, "error", err)
		d.ectx.DestroySurface(eglSurf)
		surf.Destroy()
		return
	}

	// GL function pointers load once, with the first context current.
	if !d.glOK {
		glc := &gl.Context{}
		if err := glc.Load(egl.GetGLProcAddress); err != nil {
			wallshade.Logger().Error("GL load failed", "error", err)
			d.ectx.DestroySurface(eglSurf)
			surf.Destroy()
			return
		}
		d.glc = glc
		d.glOK = true
		wallshade.Logger().Info("GL ready",
			"renderer", glc.GetString(gl.RENDERER),
			"version", glc.GetString(gl.VERSION))
	}
	out.SetGL(d.glc)

	cfg, matched := config.Match(d.entries, info.Connector, info.Model)
	if !matched {
		wallshade.Logger().Warn("no configuration matches output, using built-in default",
			"output", info.Connector)
		cfg, _ = config.Match(config.BuiltinDefault(), info.Connector, info.Model)
	}
	out.ApplyConfig(cfg, time.Now())
	out.PreloadNext()
	d.armOutputTimer(out)

	d.outputsMu.Lock()
	d.outputs[info.ID] = out
	d.outputsMu.Unlock()
}

// armOutputTimer creates or removes the frame-pacing timer according to
// the output's vsync choice.
func (d *Daemon) armOutputTimer(out *render.Output) {
	cfg := out.Config()
	wantTimer := cfg.Mode == config.ModeShader && !cfg.VSync

	if wantTimer && out.TimerFD < 0 {
		fd, err := openFrameTimer(cfg.ShaderFPS)
		if err != nil {
			wallshade.Logger().Warn("frame timer unavailable, falling back to vsync",
				"output", out.Info.Connector, "error", err)
			d.ectx.SetSwapInterval(1)
			return
		}
		out.TimerFD = fd
		wallshade.Logger().Debug("frame timer armed",
			"output", out.Info.Connector, "fps", cfg.ShaderFPS)
	} else if !wantTimer && out.TimerFD >= 0 {
		closeTimer(out.TimerFD)
		out.TimerFD = -1
	}
}

// teardownOutput releases one output's resources. GL frees are skipped
// automatically when the context cannot be made current.
func (d *Daemon) teardownOutput(out *render.Output) {
	if err := out.MakeCurrent(); err != nil {
		wallshade.Logger().Warn("teardown without current context, GL resources leak",
			"output", out.Info.Connector, "error", err)
	}
	out.Destroy()
	closeTimer(out.TimerFD)
	out.TimerFD = -1
	d.ectx.DestroySurface(out.EGLSurface())
	if s := out.Surface(); s != nil {
		s.Destroy()
	}
}

// shutdown tears everything down, bounded by a 2-second alarm: if GL
// teardown wedges on a dead display, SIGALRM (default action) ends the
// process rather than hanging it.
func (d *Daemon) shutdown() {
	unix.Alarm(2)

	d.outputsMu.Lock()
	outs := make([]*render.Output, 0, len(d.outputs))
	for _, out := range d.outputs {
		outs = append(outs, out)
	}
	d.outputs = make(map[uint32]*render.Output)
	d.outputsMu.Unlock()

	for _, out := range outs {
		d.teardownOutput(out)
	}
	unix.Alarm(0)
	wallshade.Logger().Info("daemon stopped")
}

// sortedOutputs snapshots the outputs in stable ID order under the read
// lock.
func (d *Daemon) sortedOutputs() []*render.Output {
	d.outputsMu.RLock()
	outs := make([]*render.Output, 0, len(d.outputs))
	for _, out := range d.outputs {
		outs = append(outs, out)
	}
	d.outputsMu.RUnlock()
	sort.Slice(outs, func(i, j int) bool { return outs[i].Info.ID < outs[j].Info.ID })
	return outs
}

// publishState rewrites the state file from the current outputs.
func (d *Daemon) publishState() {
	var states []config.State
	for _, out := range d.sortedOutputs() {
		status := "ok"
		if out.Dormant {
			status = "dormant"
		}
		cfg := out.Config()
		cycleTotal := 0
		if len(cfg.CyclePaths) > 1 {
			cycleTotal = len(cfg.CyclePaths)
		}
		states = append(states, config.State{
			OutputID:    out.Info.Connector,
			CurrentPath: out.CurrentPath(),
			Mode:        cfg.Mode.String(),
			CycleIndex:  out.CycleIndex,
			CycleTotal:  cycleTotal,
			Status:      status,
		})
	}
	if err := config.WriteState(states); err != nil {
		wallshade.Logger().Warn("state file write failed", "error", err)
	}
}
