// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"time"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/render"
)

// RequestNext queues one cycle advance, clamped to maxQueuedNext under
// signal floods. Called from the signal dispatch path.
func (d *Daemon) RequestNext() {
	for {
		cur := d.nextRequested.Load()
		if cur >= maxQueuedNext {
			return
		}
		if d.nextRequested.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// RequestSetIndex queues a jump to a cycle index. -1 clears.
func (d *Daemon) RequestSetIndex(idx int) {
	d.setIndexRequested.Store(int32(idx))
}

// runScheduler is component G: executed on every event-loop tick while not
// paused. One queued `next` drains per tick, so a burst of five performs
// five consecutive advances across five iterations, collapsing transitions
// as each completes.
func (d *Daemon) runScheduler(now time.Time) {
	if d.paused.Load() {
		return
	}

	changed := false
	outs := d.sortedOutputs()

	if d.nextRequested.Load() > 0 {
		d.nextRequested.Add(-1)
		for _, out := range outs {
			if !out.Config().CycleEnabled() {
				continue
			}
			if d.withCurrent(out) {
				out.CycleWallpaper(now)
				changed = true
			}
		}
	}

	if idx := d.setIndexRequested.Swap(-1); idx >= 0 {
		for _, out := range outs {
			total := len(out.Config().CyclePaths)
			if int(idx) >= total {
				wallshade.Logger().Warn("set index out of range",
					"output", out.Info.Connector, "index", idx, "cycle_total", total)
				continue
			}
			if d.withCurrent(out) {
				out.SetCycleIndex(int(idx), now)
				changed = true
			}
		}
	}

	for _, out := range outs {
		if out.ShouldCycle(now) && d.withCurrent(out) {
			out.CycleWallpaper(now)
			changed = true
		}
	}

	if changed {
		d.publishState()
	}
}

// withCurrent makes an output's context current and reports success.
func (d *Daemon) withCurrent(out *render.Output) bool {
	if out.Dormant {
		return false
	}
	if err := out.MakeCurrent(); err != nil {
		wallshade.Logger().Warn("make current failed",
			"output", out.Info.Connector, "error", err)
		return false
	}
	return true
}

// nextDeadline computes the poll timeout from the soonest upcoming
// scheduler action: a cycle deadline or an in-flight transition frame.
// Returns -1 (block forever) when nothing is due.
func (d *Daemon) nextDeadline(now time.Time) int {
	if d.nextRequested.Load() > 0 || d.setIndexRequested.Load() >= 0 {
		return 0
	}

	timeout := -1
	consider := func(dt time.Duration) {
		ms := int(dt.Milliseconds())
		if ms < 0 {
			ms = 0
		}
		if timeout < 0 || ms < timeout {
			timeout = ms
		}
	}

	for _, out := range d.sortedOutputs() {
		if out.Dormant {
			continue
		}
		cfg := out.Config()
		if !d.paused.Load() && cfg.CycleEnabled() && cfg.CycleDuration > 0 {
			consider(cfg.CycleDuration - now.Sub(out.LastCycle()))
		}
		// A transition redraws as fast as the compositor lets it; shader
		// outputs pace via their timer fd or vsync'd swaps.
		if out.InTransition() || out.NeedsRedraw {
			consider(0)
		}
		if out.Animating() && out.TimerFD < 0 {
			consider(0)
		}
	}
	return timeout
}
