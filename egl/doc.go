// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package egl provides runtime-loaded EGL 1.4/1.5 bindings for wallshade.
//
// The library is loaded with goffi at startup; no cgo is involved. The
// compositor backends own the native display connection and hand its
// pointer to this package, which owns the EGL display, the shared desktop
// OpenGL 3.3 core context, and one window surface per output.
package egl
