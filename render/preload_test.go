// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/wallshade/decode"
)

// writeTestPNG writes a small image and returns its path.
func writeTestPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preload.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return path
}

// waitWorker blocks until the slot's worker exits.
func waitWorker(t *testing.T, p *PreloadSlot) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for p.WorkerActive() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not finish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPreload_DeliversUploadPending(t *testing.T) {
	path := writeTestPNG(t)
	var p PreloadSlot

	p.Start(path, 0, 0, decode.HintNone)
	waitWorker(t, &p)

	if !p.uploadPending.Load() {
		t.Error("successful decode must set upload_pending")
	}
	if p.ready.Load() {
		t.Error("ready must wait for the main-thread upload")
	}
}

func TestPreload_SingleWorker(t *testing.T) {
	path := writeTestPNG(t)
	var p PreloadSlot

	p.Start(path, 0, 0, decode.HintNone)
	// A second start while the first worker may still be running must not
	// panic or spawn concurrently; the flag serializes them.
	p.Start(path, 0, 0, decode.HintNone)
	waitWorker(t, &p)

	if p.WorkerActive() {
		t.Error("worker_active must clear when the worker exits")
	}
}

func TestPreload_DecodeFailureLeavesIdle(t *testing.T) {
	var p PreloadSlot

	p.Start("/nonexistent/nope.png", 0, 0, decode.HintNone)
	waitWorker(t, &p)

	if p.uploadPending.Load() {
		t.Error("failed decode must not set upload_pending")
	}
	if p.ready.Load() {
		t.Error("failed decode must not set ready")
	}
}

func TestPreload_CancelJoins(t *testing.T) {
	path := writeTestPNG(t)
	var p PreloadSlot

	p.Start(path, 0, 0, decode.HintNone)
	p.Cancel()

	if p.WorkerActive() {
		t.Error("cancel must join the worker")
	}
	if p.uploadPending.Load() || p.ready.Load() {
		t.Error("cancel must clear the handoff flags")
	}
}

func TestPreload_TakeMismatchedPath(t *testing.T) {
	var p PreloadSlot
	if _, ok := p.Take("/anything.png"); ok {
		t.Error("take from an idle slot must fail")
	}
}

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	start := time.Now()

	for i := 0; i < 30; i++ {
		if c.Tick(start.Add(time.Duration(i) * 33 * time.Millisecond)) {
			t.Fatalf("window closed early at frame %d", i)
		}
	}
	// The 31st frame crosses the one-second boundary.
	if !c.Tick(start.Add(1001 * time.Millisecond)) {
		t.Fatal("window did not close after one second")
	}
	if got := c.FPS(); got != 31 {
		t.Errorf("fps = %d, want 31", got)
	}
}
