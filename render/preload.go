// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/decode"
	"github.com/gogpu/wallshade/gl"
)

// PreloadSlot is the per-output handoff between the decode worker and the
// event loop: Idle → Decoding → UploadPending → Idle. The decoded image
// travels through the mutex-guarded slot; the flags are atomics so the
// event loop can poll them without taking the mutex.
type PreloadSlot struct {
	mu   sync.Mutex
	img  *decode.Image
	path string

	tex     *Texture
	texPath string

	ready         atomic.Bool
	uploadPending atomic.Bool
	workerActive  atomic.Bool
	cancelled     atomic.Bool

	done chan struct{}
}

// Start spawns the decode worker for path unless one is already active.
// Idempotent: a second call while the worker runs is a no-op.
func (p *PreloadSlot) Start(path string, targetW, targetH int, hint decode.Hint) {
	if !p.workerActive.CompareAndSwap(false, true) {
		return
	}
	p.cancelled.Store(false)
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer p.workerActive.Store(false)

		img, err := decode.Decode(path, targetW, targetH, hint)
		if p.cancelled.Load() {
			return
		}
		if err != nil {
			wallshade.Logger().Warn("preload decode failed", "path", path, "error", err)
			return
		}

		p.mu.Lock()
		p.img = img
		p.path = path
		p.mu.Unlock()
		p.uploadPending.Store(true)
	}(p.done)
}

// WorkerActive reports whether a decode worker is running.
func (p *PreloadSlot) WorkerActive() bool {
	return p.workerActive.Load()
}

// HandleUpload uploads a pending decoded image to the GPU. Called on every
// event-loop tick; does nothing unless the worker has delivered. The CPU
// buffer is released once the texture exists.
func (p *PreloadSlot) HandleUpload(glc *gl.Context, cache *StateCache, wrap WrapPolicy) {
	if !p.uploadPending.CompareAndSwap(true, false) {
		return
	}

	p.mu.Lock()
	img := p.img
	path := p.path
	p.img = nil
	p.mu.Unlock()
	if img == nil {
		return
	}

	p.tex.Release()
	p.tex = NewTexture(glc, cache, img.Pixels, int32(img.Width), int32(img.Height), wrap)
	p.texPath = path
	p.ready.Store(true)
	wallshade.Logger().Debug("preload uploaded", "path", path)
}

// ReadyFor reports whether an uploaded texture for path is waiting.
func (p *PreloadSlot) ReadyFor(path string) bool {
	return p.ready.Load() && p.texPath == path
}

// Take hands over the preloaded texture if it matches the requested path.
// Ownership moves to the caller; the slot returns to Idle.
func (p *PreloadSlot) Take(path string) (*Texture, bool) {
	if !p.ready.Load() || p.texPath != path {
		return nil, false
	}
	p.ready.Store(false)
	tex := p.tex
	p.tex = nil
	p.texPath = ""
	return tex, true
}

// Cancel stops any in-flight work and joins the worker, then frees
// whatever the slot holds. Called on output destruction from the event
// loop.
func (p *PreloadSlot) Cancel() {
	p.cancelled.Store(true)
	if p.done != nil {
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
			wallshade.Logger().Warn("preload worker did not exit in time")
		}
		p.done = nil
	}
	p.uploadPending.Store(false)
	p.ready.Store(false)

	p.mu.Lock()
	p.img = nil
	p.mu.Unlock()

	p.tex.Release()
	p.tex = nil
	p.texPath = ""
}
