// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateRoundTrip(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	want := []State{
		{
			OutputID:    "HDMI-A-2",
			CurrentPath: "/tmp/imgs/b.png",
			Mode:        "image",
			CycleIndex:  1,
			CycleTotal:  3,
			Status:      "ok",
		},
		{
			OutputID:    "DP-1",
			CurrentPath: "/tmp/plasma.glsl",
			Mode:        "shader",
			CycleIndex:  0,
			CycleTotal:  0,
			Status:      "ok",
		},
	}

	if err := WriteState(want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadState()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state round trip (-want +got):\n%s", diff)
	}
}

func TestStateRewriteReplaces(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := WriteState([]State{{OutputID: "a", Status: "ok"}, {OutputID: "b", Status: "ok"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteState([]State{{OutputID: "only", Status: "ok"}}); err != nil {
		t.Fatal(err)
	}

	got, err := ReadState()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].OutputID != "only" {
		t.Errorf("got %+v, want the single rewritten record", got)
	}
}

func TestSetIndexRoundTrip(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := WriteSetIndex(7); err != nil {
		t.Fatal(err)
	}

	idx, ok, err := TakeSetIndex()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || idx != 7 {
		t.Errorf("got (%d, %v), want (7, true)", idx, ok)
	}

	// The file is one-shot: the second take must find nothing.
	_, ok, err = TakeSetIndex()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("set-index file survived consumption")
	}
}

func TestTakeSetIndex_Missing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	_, ok, err := TakeSetIndex()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected ok=false with no file")
	}
}
