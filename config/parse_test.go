// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// writeConfig writes content to a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallshade.conf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ImageBlock(t *testing.T) {
	path := writeConfig(t, `
default {
    path /tmp/a.png
    mode fill
    duration 2
    transition fade
    transition_duration 0.5
    show_fps true
}
`)
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []Entry{{
		Selector: "default",
		Wallpaper: Wallpaper{
			Mode:               ModeImage,
			Path:               "/tmp/a.png",
			Display:            DisplayFill,
			Transition:         TransitionFade,
			TransitionDuration: 500 * time.Millisecond,
			CycleDuration:      2 * time.Second,
			ShaderSpeed:        1.0,
			ShaderFPS:          60,
			VSync:              true,
			ShowFPS:            true,
		},
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InlineBlock(t *testing.T) {
	path := writeConfig(t, `default { path /tmp/a.png; mode fit }`)

	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	w := entries[0].Wallpaper
	if w.Path != "/tmp/a.png" || w.Display != DisplayFit {
		t.Errorf("got %+v", w)
	}
}

func TestLoad_ShaderBlock(t *testing.T) {
	path := writeConfig(t, `
output.HDMI-A-2 {
    shader /tmp/plasma.glsl
    shader_speed 1.5
    shader_fps 30
    vsync false
    channels /tmp/noise.png /tmp/rock.png
}
`)
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	w := entries[0].Wallpaper
	if entries[0].Selector != "HDMI-A-2" {
		t.Errorf("selector = %q", entries[0].Selector)
	}
	if w.Mode != ModeShader || w.Shader != "/tmp/plasma.glsl" {
		t.Errorf("got %+v", w)
	}
	if w.ShaderSpeed != 1.5 || w.ShaderFPS != 30 || w.VSync {
		t.Errorf("shader params: %+v", w)
	}
	if len(w.Channels) != 2 || w.Channels[1] != "/tmp/rock.png" {
		t.Errorf("channels: %v", w.Channels)
	}
}

func TestLoad_PathAndShaderConflict(t *testing.T) {
	path := writeConfig(t, `default { path /tmp/a.png; shader /tmp/b.glsl }`)

	_, err := Load(path)
	var verr *ValidateError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidateError, got %v", err)
	}
}

func TestLoad_RangeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"duration too large", `default { path /a.png; duration 90000 }`},
		{"negative duration", `default { path /a.png; duration -1 }`},
		{"transition too long", `default { path /a.png; transition_duration 11 }`},
		{"zero shader speed", `default { shader /a.glsl; shader_speed 0 }`},
		{"fps too high", `default { shader /a.glsl; shader_fps 500 }`},
		{"fps zero", `default { shader /a.glsl; shader_fps 0 }`},
		{"bad mode", `default { path /a.png; mode diagonal }`},
		{"bad transition", `default { path /a.png; transition wipe }`},
		{"too many channels", `default { shader /a.glsl; channels /1 /2 /3 /4 /5 }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			var verr *ValidateError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidateError, got %v", err)
			}
		})
	}
}

func TestLoad_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unterminated block", `default { path /a.png`},
		{"bad selector", `screen1 { path /a.png }`},
		{"selector without block", `default`},
		{"stray brace", `} default { path /a.png }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := Load(writeConfig(t, ""))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError for empty file, got %v", err)
	}
}

func TestLoad_Comments(t *testing.T) {
	path := writeConfig(t, `
# full-line comment
default {
    path /tmp/a.png   # trailing comment
}
`)
	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Wallpaper.Path != "/tmp/a.png" {
		t.Errorf("path = %q", entries[0].Wallpaper.Path)
	}
}

func TestLoad_DirectoryCycle(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.png", "b.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := writeConfig(t, "default { path "+dir+"/; duration 2 }")

	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	w := entries[0].Wallpaper
	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.png"),
	}
	if diff := cmp.Diff(want, w.CyclePaths); diff != "" {
		t.Errorf("cycle paths (-want +got):\n%s", diff)
	}
	if w.Path != want[0] {
		t.Errorf("initial path = %q, want %q", w.Path, want[0])
	}
}

func TestMatch_Order(t *testing.T) {
	entries := []Entry{
		{Selector: "default", Wallpaper: Wallpaper{Path: "/default.png"}},
		{Selector: "DELL U2720Q", Wallpaper: Wallpaper{Path: "/model.png"}},
		{Selector: "HDMI-A-2", Wallpaper: Wallpaper{Path: "/connector.png"}},
	}

	tests := []struct {
		name      string
		connector string
		model     string
		want      string
	}{
		{"connector wins", "HDMI-A-2", "DELL U2720Q", "/connector.png"},
		{"model next", "DP-1", "DELL U2720Q", "/model.png"},
		{"default last", "DP-1", "Other", "/default.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := Match(entries, tt.connector, tt.model)
			if !ok {
				t.Fatal("no match")
			}
			if w.Path != tt.want {
				t.Errorf("got %q, want %q", w.Path, tt.want)
			}
		})
	}
}

func TestMatch_NoDefault(t *testing.T) {
	entries := []Entry{{Selector: "HDMI-A-2", Wallpaper: Wallpaper{Path: "/a.png"}}}
	if _, ok := Match(entries, "DP-1", ""); ok {
		t.Error("expected no match without a default entry")
	}
}

func TestApplySameConfigIsStable(t *testing.T) {
	path := writeConfig(t, `default { path /tmp/a.png; mode fill; duration 5 }`)

	first, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("loading twice differs (-first +second):\n%s", diff)
	}
}
