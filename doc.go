// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wallshade is a GPU-accelerated wallpaper daemon for Wayland and
// X11 compositors.
//
// Each physical output gets its own rendering surface and drives either a
// static image (with cycling and progress-driven transitions) or a live
// Shadertoy-style fragment shader (single or multi-pass, with iChannel
// texture inputs). All platform libraries — libEGL, OpenGL, libwayland-client,
// libX11 — are loaded at runtime, via goffi (libwayland via purego); there
// is no cgo.
//
// # Architecture
//
// One event-loop thread owns all GL and compositor work. It polls over the
// compositor connection fd, a signalfd carrying the control plane, a wakeup
// eventfd, and one timerfd per output that paces shader frames when vsync is
// off. The only background work is image decoding: at most one detached
// worker per output decodes the next-in-cycle image so the transition swap
// is free of decode jitter.
//
// Package layout:
//
//   - egl, gl: runtime-loaded EGL and OpenGL 3.3 core bindings
//   - backend, backend/wayland, backend/x11: compositor surface management
//   - decode: image file decoding with target-size hinting
//   - render: per-output engine, shader host, transitions, preloader
//   - config: declarative configuration and the published state file
//   - daemon: event loop, cycle scheduler, signal dispatch
//   - control: single-instance PID file and CLI command routing
//
// # Logging
//
// By default wallshade produces no log output. Call [SetLogger] to enable:
//
//	wallshade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
package wallshade
