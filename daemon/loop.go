// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/config"
	"github.com/gogpu/wallshade/egl"
	"github.com/gogpu/wallshade/render"
)

// loop is the single-threaded cooperative event loop. Every iteration:
// flush the compositor, sleep in poll over all fds, dispatch what fired,
// run the cycle scheduler, complete preload uploads, render and swap.
func (d *Daemon) loop() {
	for d.running.Load() {
		_ = d.be.Flush()

		fds := []unix.PollFd{
			{Fd: int32(d.be.EventFD()), Events: unix.POLLIN},
			{Fd: int32(d.signalFD), Events: unix.POLLIN},
			{Fd: int32(d.wakeupFD), Events: unix.POLLIN},
		}
		outs := d.sortedOutputs()
		timerOwners := make([]*render.Output, 0, len(outs))
		for _, out := range outs {
			if out.TimerFD >= 0 && !out.Dormant {
				fds = append(fds, unix.PollFd{Fd: int32(out.TimerFD), Events: unix.POLLIN})
				timerOwners = append(timerOwners, out)
			}
		}

		timeout := d.nextDeadline(time.Now())
		n, err := unix.Poll(fds, timeout)
		if err != nil && !errors.Is(err, unix.EINTR) {
			wallshade.Logger().Error("poll failed", "error", err)
			d.running.Store(false)
			return
		}

		now := time.Now()

		if n > 0 {
			// 1. Control plane first: shutdown and pause take effect
			// before any rendering happens this tick.
			if fds[1].Revents&unix.POLLIN != 0 {
				d.dispatchSignals()
			}

			// 2. Compositor events: output add/remove/resize.
			if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
					d.compositorLost()
				} else if err := d.be.Dispatch(); err != nil {
					wallshade.Logger().Error("compositor dispatch failed", "error", err)
					d.compositorLost()
				}
			}

			// 3. Wakeups carry no payload; just drain.
			if fds[2].Revents&unix.POLLIN != 0 {
				var buf [8]byte
				_, _ = unix.Read(d.wakeupFD, buf[:])
			}

			// 4. Expired frame timers mark their outputs for redraw.
			for i, out := range timerOwners {
				if fds[3+i].Revents&unix.POLLIN != 0 {
					if drainTimer(out.TimerFD) > 0 {
						out.NeedsRedraw = true
					}
				}
			}
		}

		if !d.running.Load() {
			return
		}

		d.runScheduler(now)
		d.tickOutputs(now)
	}
}

// tickOutputs finishes preload uploads, advances transitions and renders
// whatever needs a frame, one output at a time under the read lock
// snapshot.
func (d *Daemon) tickOutputs(now time.Time) {
	stateDirty := false

	for _, out := range d.sortedOutputs() {
		if out.Dormant || !out.HasConfig() {
			continue
		}
		if !d.withCurrent(out) {
			continue
		}

		out.HandleUploadPending()

		// Vsync'd animation and transitions redraw every loop pass;
		// timer-paced outputs wait for their fd.
		draw := out.NeedsRedraw
		if out.Animating() && out.TimerFD < 0 {
			draw = true
		}
		if !draw {
			continue
		}

		out.RenderFrame(now)
		if err := d.ectx.Swap(out.EGLSurface()); err != nil {
			out.ErrorsCount++
			if errors.Is(err, egl.ErrDisplayLost) {
				wallshade.Logger().Error("display lost on swap, output dormant",
					"output", out.Info.Connector)
				out.Dormant = true
				stateDirty = true
				continue
			}
			wallshade.Logger().Warn("swap failed",
				"output", out.Info.Connector, "error", err)
		}

		if out.StateDirty {
			out.StateDirty = false
			stateDirty = true
		}

		// Keep the next image warming while the current one shows.
		if out.Config().Mode == config.ModeImage && !out.InTransition() {
			out.PreloadNext()
		}
	}

	if stateDirty {
		d.publishState()
	}
}

// dispatchSignals drains the signalfd and applies the control commands.
func (d *Daemon) dispatchSignals() {
	for _, signo := range drainSignals(d.signalFD) {
		switch signo {
		case uint32(unix.SIGTERM), uint32(unix.SIGINT):
			wallshade.Logger().Info("shutdown signal", "signal", signo)
			d.running.Store(false)

		case uint32(unix.SIGUSR1):
			d.RequestNext()

		case uint32(unix.SIGUSR2):
			d.paused.Store(true)
			wallshade.Logger().Info("cycling paused")

		case uint32(unix.SIGCONT):
			d.paused.Store(false)
			wallshade.Logger().Info("cycling resumed")

		case sigRTMin:
			idx, ok, err := config.TakeSetIndex()
			switch {
			case err != nil:
				wallshade.Logger().Warn("set-index file unreadable", "error", err)
			case !ok:
				// Two-write protocol: the signal may land before (or
				// without) the file. A warning, never a crash.
				wallshade.Logger().Warn("SIGRTMIN with no set-index file")
			default:
				d.RequestSetIndex(idx)
			}
		}
	}
}

// compositorLost parks every output as dormant. The process stays alive,
// but the lost connection is not reopened: the dormant outputs stay
// dormant until the daemon restarts.
func (d *Daemon) compositorLost() {
	// The dead fd stays readable in poll; only the first pass does work.
	changed := false
	for _, out := range d.sortedOutputs() {
		if !out.Dormant {
			out.Dormant = true
			out.ErrorsCount++
			changed = true
		}
	}
	if changed {
		wallshade.Logger().Error("compositor connection lost")
		d.publishState()
	}
}
