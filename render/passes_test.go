// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package render

import (
	"strings"
	"testing"
)

func TestSplitPasses_SinglePass(t *testing.T) {
	src := `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(1.0);
}`
	passes := SplitPasses(src)
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	if passes[0].Kind != PassImage {
		t.Errorf("kind = %v, want Image", passes[0].Kind)
	}
	if passes[0].Source != src {
		t.Error("single-pass source must be untouched")
	}
}

func TestSplitPasses_MultiPass(t *testing.T) {
	src := `// Buffer A
void mainImage(out vec4 c, in vec2 f) { c = vec4(0.1); }

// Image
void mainImage(out vec4 c, in vec2 f) { c = texture(iChannel0, f / iResolution.xy); }
`
	passes := SplitPasses(src)
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	if passes[0].Kind != PassBufferA || passes[1].Kind != PassImage {
		t.Errorf("pass order = %v, %v", passes[0].Kind, passes[1].Kind)
	}
}

func TestSplitPasses_OrderIndependent(t *testing.T) {
	// File lists Image first; render order must still be buffers first.
	src := `// Image
void mainImage(out vec4 c, in vec2 f) { c = vec4(1); }
// Buffer B
void mainImage(out vec4 c, in vec2 f) { c = vec4(2); }
// Buffer A
void mainImage(out vec4 c, in vec2 f) { c = vec4(3); }
`
	passes := SplitPasses(src)
	if len(passes) != 3 {
		t.Fatalf("got %d passes, want 3", len(passes))
	}
	want := []PassKind{PassBufferA, PassBufferB, PassImage}
	for i, k := range want {
		if passes[i].Kind != k {
			t.Errorf("pass %d = %v, want %v", i, passes[i].Kind, k)
		}
	}
}

func TestSplitPasses_CommonSection(t *testing.T) {
	src := `// Common
float shared() { return 1.0; }
// Buffer A
void mainImage(out vec4 c, in vec2 f) { c = vec4(shared()); }
// Image
void mainImage(out vec4 c, in vec2 f) { c = vec4(shared()); }
`
	passes := SplitPasses(src)
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	for _, p := range passes {
		if !strings.Contains(p.Source, "float shared()") {
			t.Errorf("pass %v missing common section", p.Kind)
		}
	}
}

func TestWrapPass(t *testing.T) {
	wrapped := WrapPass("void mainImage(out vec4 c, in vec2 f) {}")
	if !strings.HasPrefix(wrapped, "#version 330 core") {
		t.Error("wrapped source must start with the version line")
	}
	for _, uniform := range []string{"iTime", "iResolution", "iMouse", "iDate", "iChannel3", "iChannelResolution"} {
		if !strings.Contains(wrapped, uniform) {
			t.Errorf("prelude missing %s", uniform)
		}
	}
	if !strings.Contains(wrapped, "mainImage(wallshadeFragColor, gl_FragCoord.xy)") {
		t.Error("footer must invoke mainImage")
	}
}

func TestRecommendedScale(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   float64
	}{
		{"plain", "void mainImage(out vec4 c, in vec2 f) { c = vec4(f, 0, 1); }", 1},
		{
			"blur loop",
			"for (int i = 0; i < 9; i++) { acc += texture(iChannel0, uv + o[i]); }",
			0.5,
		},
		{"noise only", "float n = noise(uv * 8.0);", 0.5},
		{
			"blur loop plus noise",
			"float n = fbm(uv); for (int i=0;i<9;i++){ acc += texture(iChannel0, uv); }",
			0.25,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendedScale(tt.source); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineHintFromLog(t *testing.T) {
	tests := []struct {
		name    string
		log     string
		prelude int
		want    int
	}{
		{"mesa style", "0:25(10): error: syntax error", 15, 10},
		{"nvidia style", `0(25) : error C0000: syntax error`, 15, 10},
		{"no line", "internal error", 15, 0},
		{"line inside prelude", "0:3: error", 15, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lineHintFromLog(tt.log, tt.prelude); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
