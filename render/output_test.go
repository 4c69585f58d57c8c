// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"testing"
	"time"

	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/config"
)

func TestPlacement(t *testing.T) {
	tests := []struct {
		name         string
		mode         config.DisplayMode
		imgW, imgH   int32
		outW, outH   int32
		wantPos      [2]float32
		wantUVScale  [2]float32
		wantUVOffset [2]float32
	}{
		{
			name: "stretch is identity",
			mode: config.DisplayStretch,
			imgW: 800, imgH: 600, outW: 1920, outH: 1080,
			wantPos: [2]float32{1, 1}, wantUVScale: [2]float32{1, 1},
		},
		{
			name: "fill crops the wide axis",
			mode: config.DisplayFill,
			imgW: 2000, imgH: 1000, outW: 1000, outH: 1000,
			// Cover scale is 1 (height-bound); visible width is half.
			wantPos: [2]float32{1, 1}, wantUVScale: [2]float32{0.5, 1},
			wantUVOffset: [2]float32{0.25, 0},
		},
		{
			name: "fit letterboxes the short axis",
			mode: config.DisplayFit,
			imgW: 2000, imgH: 1000, outW: 1000, outH: 1000,
			wantPos: [2]float32{1, 0.5}, wantUVScale: [2]float32{1, 1},
		},
		{
			name: "center shrinks a small image",
			mode: config.DisplayCenter,
			imgW: 500, imgH: 250, outW: 1000, outH: 1000,
			wantPos: [2]float32{0.5, 0.25}, wantUVScale: [2]float32{1, 1},
		},
		{
			name: "center crops a large image",
			mode: config.DisplayCenter,
			imgW: 2000, imgH: 2000, outW: 1000, outH: 1000,
			wantPos: [2]float32{1, 1}, wantUVScale: [2]float32{0.5, 0.5},
			wantUVOffset: [2]float32{0.25, 0.25},
		},
		{
			name: "tile repeats",
			mode: config.DisplayTile,
			imgW: 100, imgH: 100, outW: 1000, outH: 500,
			wantPos: [2]float32{1, 1}, wantUVScale: [2]float32{10, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, uvScale, uvOffset := placement(tt.mode, tt.imgW, tt.imgH, tt.outW, tt.outH)
			if pos != tt.wantPos {
				t.Errorf("posScale = %v, want %v", pos, tt.wantPos)
			}
			if uvScale != tt.wantUVScale {
				t.Errorf("uvScale = %v, want %v", uvScale, tt.wantUVScale)
			}
			if uvOffset != tt.wantUVOffset {
				t.Errorf("uvOffset = %v, want %v", uvOffset, tt.wantUVOffset)
			}
		})
	}
}

// testOutput builds an Output with config but no GL resources, enough for
// the scheduling logic.
func testOutput(cfg config.Wallpaper) *Output {
	o := NewOutput(backend.OutputInfo{ID: 1, Connector: "HDMI-A-2", Width: 1920, Height: 1080, Scale: 1},
		nil, nil, nil, 0)
	o.cfg = cfg
	o.hasConfig = true
	return o
}

func TestShouldCycle(t *testing.T) {
	now := time.Now()

	o := testOutput(config.Wallpaper{
		CyclePaths:    []string{"/a.png", "/b.png"},
		CycleDuration: 2 * time.Second,
	})
	o.lastCycle = now

	if o.ShouldCycle(now.Add(time.Second)) {
		t.Error("cycled before the interval elapsed")
	}
	if !o.ShouldCycle(now.Add(2 * time.Second)) {
		t.Error("did not cycle at the interval")
	}
}

func TestShouldCycle_ZeroDurationNeverFires(t *testing.T) {
	now := time.Now()
	o := testOutput(config.Wallpaper{
		CyclePaths: []string{"/a.png", "/b.png"},
	})
	o.lastCycle = now

	if o.ShouldCycle(now.Add(24 * time.Hour)) {
		t.Error("duration 0 must disable time-based cycling")
	}
}

func TestShouldCycle_SingleEntryNeverFires(t *testing.T) {
	now := time.Now()
	o := testOutput(config.Wallpaper{
		CyclePaths:    []string{"/a.png"},
		CycleDuration: time.Second,
	})
	o.lastCycle = now

	if o.ShouldCycle(now.Add(time.Hour)) {
		t.Error("a one-entry cycle must not fire")
	}
}

func TestShouldCycle_BlockedMidTransition(t *testing.T) {
	now := time.Now()
	o := testOutput(config.Wallpaper{
		CyclePaths:    []string{"/a.png", "/b.png"},
		CycleDuration: time.Second,
	})
	o.lastCycle = now
	o.trans = NewTransition(config.TransitionFade, now, time.Second)

	if o.ShouldCycle(now.Add(2 * time.Second)) {
		t.Error("must not cycle mid-transition")
	}
}

func TestTransitionProgressInvariant(t *testing.T) {
	now := time.Now()
	o := testOutput(config.Wallpaper{})

	if p := o.TransitionProgress(now); p != 0 {
		t.Errorf("progress without a transition = %v, want 0", p)
	}

	o.trans = NewTransition(config.TransitionFade, now, time.Second)
	for _, at := range []time.Duration{0, 300 * time.Millisecond, 2 * time.Second} {
		p := o.TransitionProgress(now.Add(at))
		if p < 0 || p > 1 {
			t.Errorf("progress at %v = %v, outside [0, 1]", at, p)
		}
	}
}
