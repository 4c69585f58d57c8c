// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package gl provides runtime-loaded OpenGL 3.3 core bindings for the
// wallshade render engine. Function pointers are resolved through
// eglGetProcAddress and invoked via goffi; no cgo is involved.
package gl

// OpenGL 3.3 core constants. This is the subset the wallpaper engine
// touches: textures, programs, framebuffers, vertex state and blending.
// OpenGL constants use ALL_CAPS by industry convention.
//
//nolint:revive
const (
	// Boolean values
	FALSE = 0
	TRUE  = 1

	// Data types
	BYTE          = 0x1400
	UNSIGNED_BYTE = 0x1401
	INT           = 0x1404
	UNSIGNED_INT  = 0x1405
	FLOAT         = 0x1406

	// Errors
	NO_ERROR                      = 0
	INVALID_ENUM                  = 0x0500
	INVALID_VALUE                 = 0x0501
	INVALID_OPERATION             = 0x0502
	OUT_OF_MEMORY                 = 0x0505
	INVALID_FRAMEBUFFER_OPERATION = 0x0506
	CONTEXT_LOST                  = 0x0507

	// Capabilities
	BLEND        = 0x0BE2
	CULL_FACE    = 0x0B44
	DEPTH_TEST   = 0x0B71
	SCISSOR_TEST = 0x0C11

	// Clear mask bits
	DEPTH_BUFFER_BIT   = 0x00000100
	STENCIL_BUFFER_BIT = 0x00000400
	COLOR_BUFFER_BIT   = 0x00004000

	// Primitives
	TRIANGLES      = 0x0004
	TRIANGLE_STRIP = 0x0005
	TRIANGLE_FAN   = 0x0006

	// Blending factors
	ZERO                = 0
	ONE                 = 1
	SRC_ALPHA           = 0x0302
	ONE_MINUS_SRC_ALPHA = 0x0303

	// Buffer targets
	ARRAY_BUFFER = 0x8892

	// Buffer usage
	STATIC_DRAW  = 0x88E4
	DYNAMIC_DRAW = 0x88E8

	// Shader types
	FRAGMENT_SHADER = 0x8B30
	VERTEX_SHADER   = 0x8B31

	// Shader/program queries
	COMPILE_STATUS  = 0x8B81
	LINK_STATUS     = 0x8B82
	INFO_LOG_LENGTH = 0x8B84

	// Strings
	VENDOR   = 0x1F00
	RENDERER = 0x1F01
	VERSION  = 0x1F02

	// Textures
	TEXTURE_2D         = 0x0DE1
	TEXTURE0           = 0x84C0
	TEXTURE_MAG_FILTER = 0x2800
	TEXTURE_MIN_FILTER = 0x2801
	TEXTURE_WRAP_S     = 0x2802
	TEXTURE_WRAP_T     = 0x2803
	NEAREST            = 0x2600
	LINEAR             = 0x2601
	REPEAT             = 0x2901
	CLAMP_TO_EDGE      = 0x812F
	MIRRORED_REPEAT    = 0x8370

	// Texture formats
	RGBA  = 0x1908
	RGBA8 = 0x8058

	// Pixel store
	UNPACK_ALIGNMENT = 0x0CF5
	PACK_ALIGNMENT   = 0x0D05

	// Framebuffers
	FRAMEBUFFER          = 0x8D40
	COLOR_ATTACHMENT0    = 0x8CE0
	FRAMEBUFFER_COMPLETE = 0x8CD5

	// State queries
	TEXTURE_BINDING_2D      = 0x8069
	CURRENT_PROGRAM         = 0x8B8D
	FRAMEBUFFER_BINDING     = 0x8CA6
	VIEWPORT                = 0x0BA2
	MAX_TEXTURE_SIZE        = 0x0D33
	MAX_TEXTURE_IMAGE_UNITS = 0x8872
)
