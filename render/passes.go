// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package render

import (
	"strings"
)

// PassKind identifies one pass of a Shadertoy-style shader.
type PassKind int

const (
	// PassImage is the final pass writing to the output surface.
	PassImage PassKind = iota
	// PassBufferA through PassBufferD are intermediate buffer passes with
	// ping-pong targets.
	PassBufferA
	PassBufferB
	PassBufferC
	PassBufferD
)

// String returns the marker spelling of the pass kind.
func (k PassKind) String() string {
	switch k {
	case PassBufferA:
		return "Buffer A"
	case PassBufferB:
		return "Buffer B"
	case PassBufferC:
		return "Buffer C"
	case PassBufferD:
		return "Buffer D"
	default:
		return "Image"
	}
}

// PassSource is one pass cut out of a shader file.
type PassSource struct {
	Kind   PassKind
	Source string
}

// passMarkers maps the Shadertoy-style section comments to pass kinds.
var passMarkers = []struct {
	marker string
	kind   PassKind
}{
	{"// Buffer A", PassBufferA},
	{"// Buffer B", PassBufferB},
	{"// Buffer C", PassBufferC},
	{"// Buffer D", PassBufferD},
	{"// Image", PassImage},
	{"// Common", PassKind(-1)},
}

// SplitPasses cuts a shader source into its passes. A source without
// markers (or with a single mainImage) is a single Image pass. A
// "// Common" section is prepended to every pass. Passes render in
// BufferA..D order with Image last, regardless of file order.
func SplitPasses(source string) []PassSource {
	type section struct {
		kind PassKind
		text strings.Builder
	}

	var sections []*section
	current := &section{kind: PassImage}
	sections = append(sections, current)
	sawMarker := false

	for _, line := range strings.SplitAfter(source, "\n") {
		kind, isMarker := markerKind(line)
		if isMarker {
			sawMarker = true
			current = &section{kind: kind}
			sections = append(sections, current)
			continue
		}
		current.text.WriteString(line)
	}

	if !sawMarker {
		return []PassSource{{Kind: PassImage, Source: source}}
	}

	var common string
	byKind := make(map[PassKind]string)
	for _, s := range sections {
		text := s.text.String()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if s.kind == PassKind(-1) {
			common += text
			continue
		}
		byKind[s.kind] += text
	}

	var passes []PassSource
	for _, kind := range []PassKind{PassBufferA, PassBufferB, PassBufferC, PassBufferD, PassImage} {
		text, ok := byKind[kind]
		if !ok {
			continue
		}
		passes = append(passes, PassSource{Kind: kind, Source: common + text})
	}
	if len(passes) == 0 {
		return []PassSource{{Kind: PassImage, Source: source}}
	}
	return passes
}

// markerKind tests whether a line is a pass marker.
func markerKind(line string) (PassKind, bool) {
	trimmed := strings.TrimSpace(line)
	for _, m := range passMarkers {
		if strings.EqualFold(trimmed, m.marker) {
			return m.kind, true
		}
	}
	return PassImage, false
}

// shaderPrelude is prepended to every user pass: version line, the
// Shadertoy uniform surface, and the mainImage trampoline footer below.
const shaderPrelude = `#version 330 core
uniform float iTime;
uniform float iTimeDelta;
uniform float iFrameRate;
uniform int iFrame;
uniform vec3 iResolution;
uniform vec4 iMouse;
uniform vec4 iDate;
uniform sampler2D iChannel0;
uniform sampler2D iChannel1;
uniform sampler2D iChannel2;
uniform sampler2D iChannel3;
uniform vec3 iChannelResolution[4];
out vec4 wallshadeFragColor;
`

// shaderFooter invokes the user's mainImage entry point. fragCoord is in
// pixels of the pass target, which is what gl_FragCoord carries.
const shaderFooter = `
void main() {
    mainImage(wallshadeFragColor, gl_FragCoord.xy);
}
`

// preludeLineCount corrects driver info-log line numbers back to user
// source lines.
var preludeLineCount = strings.Count(shaderPrelude, "\n")

// WrapPass builds the compilable fragment source for one pass.
func WrapPass(userSource string) string {
	return shaderPrelude + userSource + shaderFooter
}

// Buffer scale analysis. Buffer passes dominated by blur, noise or
// feedback loops tolerate rendering below output resolution; a lexical
// scan of the pass source recommends a scale the host applies to its
// ping-pong targets.

// RecommendedScale returns 1, 0.5 or 0.25: the fraction of output
// resolution to allocate for a buffer pass.
func RecommendedScale(source string) float64 {
	score := 0

	// Texture fetches inside loops point at blur/accumulation kernels.
	if loopsWithFetches(source) {
		score++
	}
	for _, needle := range []string{"fbm", "noise(", "hash(", "blur"} {
		if strings.Contains(source, needle) {
			score++
			break
		}
	}

	switch {
	case score >= 2:
		return 0.25
	case score == 1:
		return 0.5
	default:
		return 1
	}
}

// loopsWithFetches reports whether any for-loop body contains a texture
// fetch. The scan is lexical: it finds a "for" and looks for a fetch
// before the loop's closing brace.
func loopsWithFetches(source string) bool {
	rest := source
	for {
		i := strings.Index(rest, "for")
		if i < 0 {
			return false
		}
		rest = rest[i+3:]
		body := rest
		if end := strings.Index(rest, "}"); end >= 0 {
			body = rest[:end]
		}
		if strings.Contains(body, "texture(") || strings.Contains(body, "texelFetch(") {
			return true
		}
	}
}
