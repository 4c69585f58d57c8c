// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package render

import (
	"fmt"
	"regexp"
	"strconv"
	"unsafe"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/egl"
	"github.com/gogpu/wallshade/gl"
)

// ShaderError is a structured compile or link failure. The caller keeps
// its previous program active when one surfaces.
type ShaderError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string
	// InfoLog is the driver's raw info log.
	InfoLog string
	// LineHint is the first source line the driver pointed at, adjusted
	// for any prelude prepended to user source. 0 when unknown.
	LineHint int
}

func (e *ShaderError) Error() string {
	if e.LineHint > 0 {
		return fmt.Sprintf("render: %s shader error near line %d: %s", e.Stage, e.LineHint, e.InfoLog)
	}
	return fmt.Sprintf("render: %s shader error: %s", e.Stage, e.InfoLog)
}

// infoLogLine matches the common "0:123" / "0(123)" driver log prefixes.
var infoLogLine = regexp.MustCompile(`0[:(](\d+)`)

// lineHintFromLog extracts the first line number a driver log refers to,
// shifted down by the number of prelude lines prepended to user source.
func lineHintFromLog(log string, preludeLines int) int {
	m := infoLogLine.FindStringSubmatch(log)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if n > preludeLines {
		return n - preludeLines
	}
	return n
}

// compileShader compiles one shader stage.
func compileShader(glc *gl.Context, stage string, shaderType uint32, source string, preludeLines int) (uint32, *ShaderError) {
	id := glc.CreateShader(shaderType)
	glc.ShaderSource(id, source)
	glc.CompileShader(id)

	var status int32
	glc.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := glc.GetShaderInfoLog(id)
		glc.DeleteShader(id)
		return 0, &ShaderError{
			Stage:    stage,
			InfoLog:  log,
			LineHint: lineHintFromLog(log, preludeLines),
		}
	}
	return id, nil
}

// linkProgram links a vertex/fragment pair into a Program. preludeLines is
// how many lines the caller prepended to the user's fragment source; it
// corrects the line hint in errors.
func linkProgram(glc *gl.Context, vertexSrc, fragmentSrc string, preludeLines int) (*Program, *ShaderError) {
	vs, serr := compileShader(glc, "vertex", gl.VERTEX_SHADER, vertexSrc, 0)
	if serr != nil {
		return nil, serr
	}
	fs, serr := compileShader(glc, "fragment", gl.FRAGMENT_SHADER, fragmentSrc, preludeLines)
	if serr != nil {
		glc.DeleteShader(vs)
		return nil, serr
	}

	id := glc.CreateProgram()
	glc.AttachShader(id, vs)
	glc.AttachShader(id, fs)
	glc.LinkProgram(id)

	// Shaders are owned by the program from here on.
	glc.DetachShader(id, vs)
	glc.DetachShader(id, fs)
	glc.DeleteShader(vs)
	glc.DeleteShader(fs)

	var status int32
	glc.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := glc.GetProgramInfoLog(id)
		glc.DeleteProgram(id)
		return nil, &ShaderError{Stage: "link", InfoLog: log}
	}

	return &Program{id: id, glc: glc, uniforms: make(map[string]int32)}, nil
}

// quadVertexShader positions a unit quad and hands UVs to the fragment
// stage. posScale/uvScale/uvOffset implement the image display modes.
const quadVertexShader = `#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aUV;
uniform vec2 posScale;
uniform vec2 uvScale;
uniform vec2 uvOffset;
out vec2 vUV;
void main() {
    vUV = aUV * uvScale + uvOffset;
    gl_Position = vec4(aPos * posScale, 0.0, 1.0);
}
`

// imageFragmentShader samples the wallpaper texture.
const imageFragmentShader = `#version 330 core
in vec2 vUV;
uniform sampler2D tex0;
out vec4 fragColor;
void main() {
    fragColor = texture(tex0, vUV);
}
`

// passVertexShader is the fullscreen pass used by the shader host and the
// transition engine: no placement uniforms, plain UVs.
const passVertexShader = `#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aUV;
out vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

// quadVertices is a triangle-strip unit quad with UVs.
var quadVertices = []float32{
	// x, y, u, v
	-1, -1, 0, 0,
	1, -1, 1, 0,
	-1, 1, 0, 1,
	1, 1, 1, 1,
}

// Quad owns the shared fullscreen quad geometry for one output.
type Quad struct {
	vao uint32
	vbo uint32
	glc *gl.Context
}

// NewQuad uploads the quad geometry.
func NewQuad(glc *gl.Context) *Quad {
	vao := glc.GenVertexArrays(1)
	vbo := glc.GenBuffers(1)

	glc.BindVertexArray(vao)
	glc.BindBuffer(gl.ARRAY_BUFFER, vbo)
	glc.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4,
		uintptr(unsafe.Pointer(&quadVertices[0])), gl.STATIC_DRAW)
	glc.EnableVertexAttribArray(0)
	glc.VertexAttribPointer(0, 2, gl.FLOAT, false, 16, 0)
	glc.EnableVertexAttribArray(1)
	glc.VertexAttribPointer(1, 2, gl.FLOAT, false, 16, 8)
	glc.BindVertexArray(0)

	return &Quad{vao: vao, vbo: vbo, glc: glc}
}

// Draw issues the quad. The caller has bound program, textures, uniforms.
func (q *Quad) Draw() {
	q.glc.BindVertexArray(q.vao)
	q.glc.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	q.glc.BindVertexArray(0)
}

// Release frees the geometry under the current-context rule.
func (q *Quad) Release() {
	if q == nil || q.vao == 0 {
		return
	}
	if !egl.HasCurrentContext() {
		wallshade.Logger().Warn("leaking GL quad geometry, no current context", "vao", q.vao)
		q.vao, q.vbo = 0, 0
		return
	}
	q.glc.DeleteVertexArrays(q.vao)
	q.glc.DeleteBuffers(q.vbo)
	q.vao, q.vbo = 0, 0
}
