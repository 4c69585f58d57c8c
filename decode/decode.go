// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package decode turns image files into RGBA8 pixel buffers ready for GPU
// upload. PNG and JPEG come from the standard library decoders, BMP from
// golang.org/x/image. Decoding happens on preload worker threads as well as
// the event loop, so nothing here touches GL.
package decode

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	xdraw "golang.org/x/image/draw"

	// Registered image formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	// KindIO means the file could not be opened or read.
	KindIO ErrorKind = iota
	// KindFormatUnsupported means no registered decoder recognizes the file.
	KindFormatUnsupported
	// KindDecode means the decoder rejected the file contents.
	KindDecode
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormatUnsupported:
		return "format-unsupported"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a decode failure carrying the offending path.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Hint tells the decoder how the image will be placed on the output, which
// decides whether decode-time downscaling is worthwhile.
type Hint int

const (
	// HintNone disables decode-time scaling (center and tile modes, where
	// native pixels map 1:1 to the screen).
	HintNone Hint = iota
	// HintFit scales down to fit entirely within the target.
	HintFit
	// HintFill scales down until the image just covers the target.
	HintFill
	// HintStretch scales each axis independently to the target.
	HintStretch
)

// Image is a decoded RGBA8 pixel buffer. Pixels holds width*height*4 bytes
// in the image's native orientation; the vertical flip for GL happens at
// upload time.
type Image struct {
	Pixels     []byte
	Width      int
	Height     int
	SourcePath string
}

// downscaleThreshold is how much larger (per axis) a source must be before
// decode-time scaling kicks in. Below it, uploading native pixels is
// cheaper than a resample pass.
const downscaleThreshold = 2

// Decode reads and decodes the image at path. When the source is at least
// downscaleThreshold times larger than the target for the given hint, it is
// resampled down during decode so the GPU never sees the oversized buffer.
// A zero target disables scaling.
func Decode(path string, targetW, targetH int, hint Hint) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		kind := KindDecode
		if errors.Is(err, image.ErrFormat) {
			kind = KindFormatUnsupported
		}
		return nil, &Error{Kind: kind, Path: path, Err: err}
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	dstW, dstH := scaledSize(srcW, srcH, targetW, targetH, hint)

	rgba := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	if dstW == srcW && dstH == srcH {
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), src, bounds, xdraw.Src, nil)
	}

	return &Image{
		Pixels:     rgba.Pix,
		Width:      dstW,
		Height:     dstH,
		SourcePath: path,
	}, nil
}

// scaledSize computes the decode target size. The aspect ratio is preserved
// for fit and fill; stretch scales each axis independently.
func scaledSize(srcW, srcH, targetW, targetH int, hint Hint) (int, int) {
	if hint == HintNone || targetW <= 0 || targetH <= 0 {
		return srcW, srcH
	}
	if srcW < targetW*downscaleThreshold && srcH < targetH*downscaleThreshold {
		return srcW, srcH
	}

	switch hint {
	case HintStretch:
		return targetW, targetH
	case HintFit:
		// Scale so the whole image fits inside the target.
		scale := min(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
		return scaleDims(srcW, srcH, scale)
	case HintFill:
		// Scale so the image covers the target; the renderer crops via UVs.
		scale := max(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
		return scaleDims(srcW, srcH, scale)
	default:
		return srcW, srcH
	}
}

func scaleDims(w, h int, scale float64) (int, int) {
	sw := int(float64(w)*scale + 0.5)
	sh := int(float64(h)*scale + 0.5)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}
