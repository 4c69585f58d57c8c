// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package render

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/gogpu/wallshade/config"
)

// Transition is a progress-driven interpolation between the previous and
// next image texture on one output. The raw clock progress decides
// completion; the tween supplies the eased value fed to the effect shader.
type Transition struct {
	Kind     config.Transition
	start    time.Time
	duration time.Duration

	tween *gween.Tween
	eased float32
	last  time.Time
}

// NewTransition starts a transition at start over duration. Fade eases
// with in-out-cubic; the other effects advance linearly and shape the
// curve inside their shaders.
func NewTransition(kind config.Transition, start time.Time, duration time.Duration) *Transition {
	fn := ease.Linear
	if kind == config.TransitionFade {
		fn = ease.InOutCubic
	}
	return &Transition{
		Kind:     kind,
		start:    start,
		duration: duration,
		tween:    gween.New(0, 1, float32(duration.Seconds()), fn),
		last:     start,
	}
}

// Progress returns the raw clock progress in [0, 1].
func (t *Transition) Progress(now time.Time) float32 {
	if t.duration <= 0 {
		return 1
	}
	p := float32(now.Sub(t.start).Seconds() / t.duration.Seconds())
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Advance steps the eased value to now and returns it.
func (t *Transition) Advance(now time.Time) float32 {
	dt := float32(now.Sub(t.last).Seconds())
	t.last = now
	if dt < 0 {
		dt = 0
	}
	t.eased, _ = t.tween.Update(dt)
	return t.eased
}

// Done reports whether the transition has run its course.
func (t *Transition) Done(now time.Time) bool {
	return t.Progress(now) >= 1
}

// transitionFragments holds the effect shader per transition kind. All of
// them consume tex0 (outgoing), tex1 (incoming), progress and resolution.
var transitionFragments = map[config.Transition]string{
	config.TransitionFade: `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
uniform sampler2D tex1;
uniform float progress;
uniform vec2 resolution;
out vec4 fragColor;
void main() {
    fragColor = mix(texture(tex0, vUV), texture(tex1, vUV), progress);
}
`,

	config.TransitionSlideLeft: `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
uniform sampler2D tex1;
uniform float progress;
uniform vec2 resolution;
out vec4 fragColor;
void main() {
    if (vUV.x < 1.0 - progress) {
        fragColor = texture(tex0, vec2(vUV.x + progress, vUV.y));
    } else {
        fragColor = texture(tex1, vec2(vUV.x - (1.0 - progress), vUV.y));
    }
}
`,

	config.TransitionSlideRight: `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
uniform sampler2D tex1;
uniform float progress;
uniform vec2 resolution;
out vec4 fragColor;
void main() {
    if (vUV.x > progress) {
        fragColor = texture(tex0, vec2(vUV.x - progress, vUV.y));
    } else {
        fragColor = texture(tex1, vec2(vUV.x + (1.0 - progress), vUV.y));
    }
}
`,

	config.TransitionGlitch: `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
uniform sampler2D tex1;
uniform float progress;
uniform vec2 resolution;
out vec4 fragColor;

float hash(float n) {
    return fract(sin(n * 127.1) * 43758.5453);
}

void main() {
    float strength = sin(progress * 3.14159265);
    float band = floor(vUV.y * 24.0);
    float shift = (hash(band + floor(progress * 16.0)) - 0.5) * 0.25 * strength;
    vec2 uv = vec2(fract(vUV.x + shift), vUV.y);

    vec4 from = texture(tex0, uv);
    vec4 to = texture(tex1, uv);
    vec4 base = progress < 0.5 ? from : to;

    // Chromatic split grows with strength.
    vec2 split = vec2(0.008 * strength, 0.0);
    base.r = (progress < 0.5 ? texture(tex0, uv + split) : texture(tex1, uv + split)).r;
    base.b = (progress < 0.5 ? texture(tex0, uv - split) : texture(tex1, uv - split)).b;

    fragColor = base;
}
`,

	config.TransitionPixelate: `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
uniform sampler2D tex1;
uniform float progress;
uniform vec2 resolution;
out vec4 fragColor;
void main() {
    float strength = sin(progress * 3.14159265);
    float cells = mix(resolution.x, 24.0, strength);
    vec2 grid = vec2(cells, cells * resolution.y / resolution.x);
    vec2 uv = (floor(vUV * grid) + 0.5) / grid;
    float fadeMix = smoothstep(0.45, 0.55, progress);
    fragColor = mix(texture(tex0, uv), texture(tex1, uv), fadeMix);
}
`,
}

// TransitionFragment returns the effect shader for a kind; ok is false for
// TransitionNone, which never compiles a program.
func TransitionFragment(kind config.Transition) (string, bool) {
	src, ok := transitionFragments[kind]
	return src, ok
}
