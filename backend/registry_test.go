// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package backend_test

import (
	"testing"

	"github.com/gogpu/wallshade/backend"
	"github.com/gogpu/wallshade/egl"
)

// mockBackend is a minimal backend implementation for registry tests.
type mockBackend struct {
	kind backend.Kind
}

type mockSurface struct{}

func (mockSurface) NativeWindow() uintptr             { return 0 }
func (mockSurface) Pointer() (float32, float32, bool) { return 0, 0, false }
func (mockSurface) Resize(_, _ int32)                 {}
func (mockSurface) Destroy()                          {}

func (m *mockBackend) Kind() backend.Kind              { return m.kind }
func (m *mockBackend) Connect(_ backend.Handler) error { return nil }
func (m *mockBackend) Platform() egl.EGLEnum           { return 0 }
func (m *mockBackend) NativeDisplay() uintptr          { return 0 }
func (m *mockBackend) EventFD() int                    { return -1 }
func (m *mockBackend) Dispatch() error                 { return nil }
func (m *mockBackend) Flush() error                    { return nil }
func (m *mockBackend) CreateSurface(_ uint32, _, _ int32) (backend.Surface, error) {
	return nil, nil
}
func (m *mockBackend) Close() {}

func TestRegister(t *testing.T) {
	mock := &mockBackend{kind: backend.Kind("mock")}
	backend.Register("mock", func() backend.Backend { return mock })

	f, ok := backend.Get("mock")
	if !ok {
		t.Fatal("expected backend to be registered")
	}
	if got := f().Kind(); got != "mock" {
		t.Errorf("expected kind %q, got %q", "mock", got)
	}
}

func TestRegister_Replacement(t *testing.T) {
	first := &mockBackend{kind: "repl"}
	second := &mockBackend{kind: "repl"}
	backend.Register("repl", func() backend.Backend { return first })
	backend.Register("repl", func() backend.Backend { return second })

	f, ok := backend.Get("repl")
	if !ok {
		t.Fatal("expected backend to be registered")
	}
	if f().(*mockBackend) != second {
		t.Error("expected replacement factory to win")
	}
}

func TestGet_Unregistered(t *testing.T) {
	if _, ok := backend.Get("no-such-kind"); ok {
		t.Error("expected lookup of unregistered kind to fail")
	}
}

func TestDetect_NoSession(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	if b, ok := backend.Detect(); ok {
		t.Errorf("expected no backend without a session, got %v", b.Kind())
	}
}

func TestDetect_PrefersWayland(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	t.Setenv("DISPLAY", ":0")

	backend.Register(backend.KindWayland, func() backend.Backend {
		return &mockBackend{kind: backend.KindWayland}
	})
	backend.Register(backend.KindX11, func() backend.Backend {
		return &mockBackend{kind: backend.KindX11}
	})

	b, ok := backend.Detect()
	if !ok {
		t.Fatal("expected a backend")
	}
	if b.Kind() != backend.KindWayland {
		t.Errorf("expected wayland to win, got %v", b.Kind())
	}
}
