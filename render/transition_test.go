// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/gogpu/wallshade/config"
)

func TestTransitionProgress(t *testing.T) {
	start := time.Now()
	tr := NewTransition(config.TransitionFade, start, 500*time.Millisecond)

	tests := []struct {
		at   time.Duration
		want float32
	}{
		{0, 0},
		{125 * time.Millisecond, 0.25},
		{250 * time.Millisecond, 0.5},
		{500 * time.Millisecond, 1},
		{750 * time.Millisecond, 1}, // clamped
	}
	for _, tt := range tests {
		got := tr.Progress(start.Add(tt.at))
		if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("progress at %v = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestTransitionDone(t *testing.T) {
	start := time.Now()
	tr := NewTransition(config.TransitionFade, start, time.Second)

	if tr.Done(start.Add(999 * time.Millisecond)) {
		t.Error("done before the duration elapsed")
	}
	if !tr.Done(start.Add(time.Second)) {
		t.Error("not done at the duration boundary")
	}
}

func TestTransitionZeroDuration(t *testing.T) {
	start := time.Now()
	tr := NewTransition(config.TransitionFade, start, 0)
	if tr.Progress(start) != 1 {
		t.Error("zero-duration transition must complete immediately")
	}
}

func TestTransitionAdvance_EasedEndpoints(t *testing.T) {
	start := time.Now()
	tr := NewTransition(config.TransitionFade, start, time.Second)

	// Stepping past the full duration must land the eased value on 1.
	v := tr.Advance(start.Add(1100 * time.Millisecond))
	if v < 0.999 {
		t.Errorf("eased value after overshoot = %v, want 1", v)
	}
}

func TestTransitionAdvance_EaseShape(t *testing.T) {
	start := time.Now()
	tr := NewTransition(config.TransitionFade, start, time.Second)

	// In-out-cubic stays under linear in the first half.
	v := tr.Advance(start.Add(250 * time.Millisecond))
	if v >= 0.25 {
		t.Errorf("eased value at t=0.25 is %v, expected below linear 0.25", v)
	}
}

func TestTransitionFragment_AllKinds(t *testing.T) {
	kinds := []config.Transition{
		config.TransitionFade,
		config.TransitionSlideLeft,
		config.TransitionSlideRight,
		config.TransitionGlitch,
		config.TransitionPixelate,
	}
	for _, kind := range kinds {
		src, ok := TransitionFragment(kind)
		if !ok {
			t.Errorf("no fragment for %v", kind)
			continue
		}
		for _, uniform := range []string{"tex0", "tex1", "progress", "resolution"} {
			if !strings.Contains(src, uniform) {
				t.Errorf("%v fragment missing uniform %s", kind, uniform)
			}
		}
	}
}

func TestTransitionFragment_None(t *testing.T) {
	if _, ok := TransitionFragment(config.TransitionNone); ok {
		t.Error("TransitionNone must not have an effect shader")
	}
}
