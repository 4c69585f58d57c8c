// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package decode

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a w×h test image and returns its path.
func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode_RGBA8(t *testing.T) {
	path := writePNG(t, 64, 32)

	img, err := Decode(path, 0, 0, HintNone)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 64 || img.Height != 32 {
		t.Errorf("got %dx%d, want 64x32", img.Width, img.Height)
	}
	if len(img.Pixels) != 64*32*4 {
		t.Errorf("pixel buffer is %d bytes, want %d", len(img.Pixels), 64*32*4)
	}
	if img.SourcePath != path {
		t.Errorf("source path %q, want %q", img.SourcePath, path)
	}
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := Decode("/nonexistent/image.png", 0, 0, HintNone)
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if derr.Kind != KindIO {
		t.Errorf("kind = %v, want %v", derr.Kind, KindIO)
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	if err := os.WriteFile(path, []byte("plainly not pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Decode(path, 0, 0, HintNone)
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if derr.Kind != KindFormatUnsupported {
		t.Errorf("kind = %v, want %v", derr.Kind, KindFormatUnsupported)
	}
}

func TestDecode_DownscaleFit(t *testing.T) {
	// 8x the target in width, 4x in height: scaling must kick in and preserve aspect.
	path := writePNG(t, 1600, 800)

	img, err := Decode(path, 200, 200, HintFit)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 200 || img.Height != 100 {
		t.Errorf("got %dx%d, want 200x100", img.Width, img.Height)
	}
}

func TestDecode_DownscaleFill(t *testing.T) {
	path := writePNG(t, 1600, 800)

	img, err := Decode(path, 200, 200, HintFill)
	if err != nil {
		t.Fatal(err)
	}
	// Fill covers the target: the short axis lands on 200.
	if img.Width != 400 || img.Height != 200 {
		t.Errorf("got %dx%d, want 400x200", img.Width, img.Height)
	}
}

func TestDecode_NoScaleBelowThreshold(t *testing.T) {
	// 1.5x the target: under the threshold, native size is kept.
	path := writePNG(t, 300, 300)

	img, err := Decode(path, 200, 200, HintFit)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 300 || img.Height != 300 {
		t.Errorf("got %dx%d, want native 300x300", img.Width, img.Height)
	}
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		name           string
		srcW, srcH     int
		tgtW, tgtH     int
		hint           Hint
		wantW, wantH   int
	}{
		{"none ignores target", 4000, 4000, 100, 100, HintNone, 4000, 4000},
		{"zero target disables", 4000, 4000, 0, 0, HintFill, 4000, 4000},
		{"stretch hits target exactly", 4000, 1000, 200, 100, HintStretch, 200, 100},
		{"fit preserves aspect", 4000, 2000, 1000, 1000, HintFit, 1000, 500},
		{"fill covers target", 4000, 2000, 1000, 1000, HintFill, 2000, 1000},
		{"under threshold untouched", 250, 250, 200, 200, HintFill, 250, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := scaledSize(tt.srcW, tt.srcH, tt.tgtW, tt.tgtH, tt.hint)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
