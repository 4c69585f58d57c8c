// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package gl

import (
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Common CallInterface signatures (reused across multiple GL functions)
var (
	cifVoid        types.CallInterface // void fn(void)
	cifUInt32      types.CallInterface // uint32 fn(void)
	cifUInt321     types.CallInterface // uint32 fn(uint32)
	cifInt322      types.CallInterface // int32 fn(uint32, void*)
	cifVoid1       types.CallInterface // void fn(uint32)
	cifVoid2       types.CallInterface // void fn(uint32, void*)
	cifVoid2UU     types.CallInterface // void fn(uint32, uint32)
	cifVoid3       types.CallInterface // void fn(uint32, uint32, uint32)
	cifVoid4       types.CallInterface // void fn(uint32, uint32, uint32, uint32)
	cifVoid4Float  types.CallInterface // void fn(float, float, float, float)
	cifVoid2UF     types.CallInterface // void fn(uint32, float)
	cifVoid3UFF    types.CallInterface // void fn(uint32, float, float)
	cifVoid4UFFF   types.CallInterface // void fn(uint32, float, float, float)
	cifVoid5UFFFF  types.CallInterface // void fn(uint32, float, float, float, float)
	cifVoid3Ptr    types.CallInterface // void fn(uint32, uint32, void*)
	cifVoid4Shader types.CallInterface // void fn(uint32, int32, void*, void*)
	cifVoid4Log    types.CallInterface // void fn(uint32, uint32, void*, void*)
	cifVoid4Buffer types.CallInterface // void fn(uint32, uintptr, void*, uint32)
	cifVoid6Attrib types.CallInterface // void fn(uint32, int32, uint32, uint8, int32, uintptr)
	cifVoid5FBO    types.CallInterface // void fn(uint32, uint32, uint32, uint32, int32)
	cifVoid9TexImg types.CallInterface // void fn(uint32, int32, int32, int32, int32, int32, uint32, uint32, void*)
	cifPtr1        types.CallInterface // void* fn(uint32)
	cifInitialized bool
)

// initCommonCallInterfaces prepares reusable CallInterface signatures.
func initCommonCallInterfaces() error {
	if cifInitialized {
		return nil
	}

	p := types.PointerTypeDescriptor
	u8 := types.UInt8TypeDescriptor
	i32 := types.SInt32TypeDescriptor
	u32 := types.UInt32TypeDescriptor
	f32 := types.FloatTypeDescriptor
	void := types.VoidTypeDescriptor

	prep := []struct {
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}{
		{&cifVoid, void, []*types.TypeDescriptor{}},
		{&cifUInt32, u32, []*types.TypeDescriptor{}},
		{&cifUInt321, u32, []*types.TypeDescriptor{u32}},
		{&cifInt322, i32, []*types.TypeDescriptor{u32, p}},
		{&cifVoid1, void, []*types.TypeDescriptor{u32}},
		{&cifVoid2, void, []*types.TypeDescriptor{u32, p}},
		{&cifVoid2UU, void, []*types.TypeDescriptor{u32, u32}},
		{&cifVoid3, void, []*types.TypeDescriptor{u32, u32, u32}},
		{&cifVoid4, void, []*types.TypeDescriptor{u32, u32, u32, u32}},
		{&cifVoid4Float, void, []*types.TypeDescriptor{f32, f32, f32, f32}},
		{&cifVoid2UF, void, []*types.TypeDescriptor{u32, f32}},
		{&cifVoid3UFF, void, []*types.TypeDescriptor{u32, f32, f32}},
		{&cifVoid4UFFF, void, []*types.TypeDescriptor{u32, f32, f32, f32}},
		{&cifVoid5UFFFF, void, []*types.TypeDescriptor{u32, f32, f32, f32, f32}},
		{&cifVoid3Ptr, void, []*types.TypeDescriptor{u32, u32, p}},
		{&cifVoid4Shader, void, []*types.TypeDescriptor{u32, i32, p, p}},
		{&cifVoid4Log, void, []*types.TypeDescriptor{u32, u32, p, p}},
		// BufferData: the size is a GLsizeiptr, pointer-wide.
		{&cifVoid4Buffer, void, []*types.TypeDescriptor{u32, p, p, u32}},
		// VertexAttribPointer: GLboolean normalized travels as uint8.
		{&cifVoid6Attrib, void, []*types.TypeDescriptor{u32, i32, u32, u8, i32, p}},
		{&cifVoid5FBO, void, []*types.TypeDescriptor{u32, u32, u32, u32, i32}},
		// TexImage2D / TexSubImage2D share this shape.
		{&cifVoid9TexImg, void, []*types.TypeDescriptor{u32, i32, i32, i32, i32, i32, u32, u32, p}},
		{&cifPtr1, p, []*types.TypeDescriptor{u32}},
	}
	for _, pr := range prep {
		if err := ffi.PrepareCallInterface(pr.cif, types.DefaultCall, pr.ret, pr.args); err != nil {
			return err
		}
	}

	cifInitialized = true
	return nil
}

// Context holds OpenGL function pointers loaded at runtime via goffi.
// Functions are loaded via eglGetProcAddress.
type Context struct {
	// Core GL 1.1
	glGetError    unsafe.Pointer
	glGetString   unsafe.Pointer
	glGetIntegerv unsafe.Pointer
	glEnable      unsafe.Pointer
	glDisable     unsafe.Pointer
	glClear       unsafe.Pointer
	glClearColor  unsafe.Pointer
	glViewport    unsafe.Pointer
	glDrawArrays  unsafe.Pointer
	glFlush       unsafe.Pointer
	glFinish      unsafe.Pointer
	glPixelStorei unsafe.Pointer

	// Shaders (GL 2.0+)
	glCreateShader       unsafe.Pointer
	glDeleteShader       unsafe.Pointer
	glShaderSource       unsafe.Pointer
	glCompileShader      unsafe.Pointer
	glGetShaderiv        unsafe.Pointer
	glGetShaderInfoLog   unsafe.Pointer
	glCreateProgram      unsafe.Pointer
	glDeleteProgram      unsafe.Pointer
	glAttachShader       unsafe.Pointer
	glDetachShader       unsafe.Pointer
	glLinkProgram        unsafe.Pointer
	glUseProgram         unsafe.Pointer
	glGetProgramiv       unsafe.Pointer
	glGetProgramInfoLog  unsafe.Pointer
	glGetUniformLocation unsafe.Pointer
	glGetAttribLocation  unsafe.Pointer

	// Uniforms (GL 2.0+)
	glUniform1i  unsafe.Pointer
	glUniform1f  unsafe.Pointer
	glUniform2f  unsafe.Pointer
	glUniform3f  unsafe.Pointer
	glUniform4f  unsafe.Pointer
	glUniform3fv unsafe.Pointer

	// Buffers (GL 1.5+)
	glGenBuffers    unsafe.Pointer
	glDeleteBuffers unsafe.Pointer
	glBindBuffer    unsafe.Pointer
	glBufferData    unsafe.Pointer

	// VAO (GL 3.0+)
	glGenVertexArrays    unsafe.Pointer
	glDeleteVertexArrays unsafe.Pointer
	glBindVertexArray    unsafe.Pointer

	// Vertex attributes (GL 2.0+)
	glEnableVertexAttribArray unsafe.Pointer
	glVertexAttribPointer     unsafe.Pointer

	// Textures (GL 1.1+)
	glGenTextures    unsafe.Pointer
	glDeleteTextures unsafe.Pointer
	glBindTexture    unsafe.Pointer
	glActiveTexture  unsafe.Pointer
	glTexImage2D     unsafe.Pointer
	glTexSubImage2D  unsafe.Pointer
	glTexParameteri  unsafe.Pointer
	glGenerateMipmap unsafe.Pointer

	// Framebuffers (GL 3.0+)
	glGenFramebuffers        unsafe.Pointer
	glDeleteFramebuffers     unsafe.Pointer
	glBindFramebuffer        unsafe.Pointer
	glFramebufferTexture2D   unsafe.Pointer
	glCheckFramebufferStatus unsafe.Pointer

	// Blending (GL 1.4+)
	glBlendFunc unsafe.Pointer
}

// ProcAddressFunc is a function that returns the address of an OpenGL function.
type ProcAddressFunc func(name string) unsafe.Pointer

// Load loads all OpenGL function pointers using the provided loader.
func (c *Context) Load(getProcAddr ProcAddressFunc) error {
	// Initialize common CallInterfaces
	if err := initCommonCallInterfaces(); err != nil {
		return err
	}

	// Core GL 1.1
	c.glGetError = getProcAddr("glGetError")
	c.glGetString = getProcAddr("glGetString")
	c.glGetIntegerv = getProcAddr("glGetIntegerv")
	c.glEnable = getProcAddr("glEnable")
	c.glDisable = getProcAddr("glDisable")
	c.glClear = getProcAddr("glClear")
	c.glClearColor = getProcAddr("glClearColor")
	c.glViewport = getProcAddr("glViewport")
	c.glDrawArrays = getProcAddr("glDrawArrays")
	c.glFlush = getProcAddr("glFlush")
	c.glFinish = getProcAddr("glFinish")
	c.glPixelStorei = getProcAddr("glPixelStorei")

	// Shaders
	c.glCreateShader = getProcAddr("glCreateShader")
	c.glDeleteShader = getProcAddr("glDeleteShader")
	c.glShaderSource = getProcAddr("glShaderSource")
	c.glCompileShader = getProcAddr("glCompileShader")
	c.glGetShaderiv = getProcAddr("glGetShaderiv")
	c.glGetShaderInfoLog = getProcAddr("glGetShaderInfoLog")
	c.glCreateProgram = getProcAddr("glCreateProgram")
	c.glDeleteProgram = getProcAddr("glDeleteProgram")
	c.glAttachShader = getProcAddr("glAttachShader")
	c.glDetachShader = getProcAddr("glDetachShader")
	c.glLinkProgram = getProcAddr("glLinkProgram")
	c.glUseProgram = getProcAddr("glUseProgram")
	c.glGetProgramiv = getProcAddr("glGetProgramiv")
	c.glGetProgramInfoLog = getProcAddr("glGetProgramInfoLog")
	c.glGetUniformLocation = getProcAddr("glGetUniformLocation")
	c.glGetAttribLocation = getProcAddr("glGetAttribLocation")

	// Uniforms
	c.glUniform1i = getProcAddr("glUniform1i")
	c.glUniform1f = getProcAddr("glUniform1f")
	c.glUniform2f = getProcAddr("glUniform2f")
	c.glUniform3f = getProcAddr("glUniform3f")
	c.glUniform4f = getProcAddr("glUniform4f")
	c.glUniform3fv = getProcAddr("glUniform3fv")

	// Buffers
	c.glGenBuffers = getProcAddr("glGenBuffers")
	c.glDeleteBuffers = getProcAddr("glDeleteBuffers")
	c.glBindBuffer = getProcAddr("glBindBuffer")
	c.glBufferData = getProcAddr("glBufferData")

	// VAO
	c.glGenVertexArrays = getProcAddr("glGenVertexArrays")
	c.glDeleteVertexArrays = getProcAddr("glDeleteVertexArrays")
	c.glBindVertexArray = getProcAddr("glBindVertexArray")

	// Vertex attributes
	c.glEnableVertexAttribArray = getProcAddr("glEnableVertexAttribArray")
	c.glVertexAttribPointer = getProcAddr("glVertexAttribPointer")

	// Textures
	c.glGenTextures = getProcAddr("glGenTextures")
	c.glDeleteTextures = getProcAddr("glDeleteTextures")
	c.glBindTexture = getProcAddr("glBindTexture")
	c.glActiveTexture = getProcAddr("glActiveTexture")
	c.glTexImage2D = getProcAddr("glTexImage2D")
	c.glTexSubImage2D = getProcAddr("glTexSubImage2D")
	c.glTexParameteri = getProcAddr("glTexParameteri")
	c.glGenerateMipmap = getProcAddr("glGenerateMipmap")

	// Framebuffers
	c.glGenFramebuffers = getProcAddr("glGenFramebuffers")
	c.glDeleteFramebuffers = getProcAddr("glDeleteFramebuffers")
	c.glBindFramebuffer = getProcAddr("glBindFramebuffer")
	c.glFramebufferTexture2D = getProcAddr("glFramebufferTexture2D")
	c.glCheckFramebufferStatus = getProcAddr("glCheckFramebufferStatus")

	// Blending
	c.glBlendFunc = getProcAddr("glBlendFunc")

	return nil
}

// --- GL Function Wrappers ---
// These use goffi CallFunction to call the loaded function pointers

func (c *Context) GetError() uint32 {
	var result uint32
	_ = ffi.CallFunction(&cifUInt32, c.glGetError, unsafe.Pointer(&result), nil)
	return result
}

func (c *Context) GetString(name uint32) string {
	var ptr uintptr
	args := [1]unsafe.Pointer{unsafe.Pointer(&name)}
	_ = ffi.CallFunction(&cifPtr1, c.glGetString, unsafe.Pointer(&ptr), args[:])
	if ptr == 0 {
		return ""
	}
	return goString(ptr)
}

func (c *Context) GetIntegerv(pname uint32, data *int32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&pname),
		unsafe.Pointer(data),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glGetIntegerv, nil, args[:])
}

func (c *Context) Enable(capability uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&capability)}
	_ = ffi.CallFunction(&cifVoid1, c.glEnable, nil, args[:])
}

func (c *Context) Disable(capability uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&capability)}
	_ = ffi.CallFunction(&cifVoid1, c.glDisable, nil, args[:])
}

func (c *Context) Clear(mask uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&mask)}
	_ = ffi.CallFunction(&cifVoid1, c.glClear, nil, args[:])
}

func (c *Context) ClearColor(r, g, b, a float32) {
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&r),
		unsafe.Pointer(&g),
		unsafe.Pointer(&b),
		unsafe.Pointer(&a),
	}
	_ = ffi.CallFunction(&cifVoid4Float, c.glClearColor, nil, args[:])
}

func (c *Context) Viewport(x, y, width, height int32) {
	// Convert int32 to uint32 for API compatibility
	ux, uy, uw, uh := uint32(x), uint32(y), uint32(width), uint32(height)
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&ux),
		unsafe.Pointer(&uy),
		unsafe.Pointer(&uw),
		unsafe.Pointer(&uh),
	}
	_ = ffi.CallFunction(&cifVoid4, c.glViewport, nil, args[:])
}

func (c *Context) DrawArrays(mode uint32, first, count int32) {
	ufirst, ucount := uint32(first), uint32(count)
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&mode),
		unsafe.Pointer(&ufirst),
		unsafe.Pointer(&ucount),
	}
	_ = ffi.CallFunction(&cifVoid3, c.glDrawArrays, nil, args[:])
}

func (c *Context) Flush() {
	_ = ffi.CallFunction(&cifVoid, c.glFlush, nil, nil)
}

func (c *Context) Finish() {
	_ = ffi.CallFunction(&cifVoid, c.glFinish, nil, nil)
}

func (c *Context) PixelStorei(pname uint32, param int32) {
	uparam := uint32(param)
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&pname),
		unsafe.Pointer(&uparam),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glPixelStorei, nil, args[:])
}

// --- Shaders ---

func (c *Context) CreateShader(shaderType uint32) uint32 {
	var result uint32
	args := [1]unsafe.Pointer{unsafe.Pointer(&shaderType)}
	_ = ffi.CallFunction(&cifUInt321, c.glCreateShader, unsafe.Pointer(&result), args[:])
	return result
}

func (c *Context) DeleteShader(shader uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&shader)}
	_ = ffi.CallFunction(&cifVoid1, c.glDeleteShader, nil, args[:])
}

func (c *Context) ShaderSource(shader uint32, source string) {
	csource, free := cString(source)
	defer free()
	count := int32(1)
	length := int32(len(source))
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&shader),
		unsafe.Pointer(&count),
		unsafe.Pointer(&csource),
		unsafe.Pointer(&length),
	}
	_ = ffi.CallFunction(&cifVoid4Shader, c.glShaderSource, nil, args[:])
}

func (c *Context) CompileShader(shader uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&shader)}
	_ = ffi.CallFunction(&cifVoid1, c.glCompileShader, nil, args[:])
}

func (c *Context) GetShaderiv(shader uint32, pname uint32, params *int32) {
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&shader),
		unsafe.Pointer(&pname),
		unsafe.Pointer(params),
	}
	_ = ffi.CallFunction(&cifVoid3Ptr, c.glGetShaderiv, nil, args[:])
}

func (c *Context) GetShaderInfoLog(shader uint32) string {
	var length int32
	c.GetShaderiv(shader, INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := make([]byte, length)
	maxLen := uint32(length)
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&shader),
		unsafe.Pointer(&maxLen),
		unsafe.Pointer(&length),
		unsafe.Pointer(&buf[0]),
	}
	_ = ffi.CallFunction(&cifVoid4Log, c.glGetShaderInfoLog, nil, args[:])
	return string(buf[:length])
}

func (c *Context) CreateProgram() uint32 {
	var result uint32
	_ = ffi.CallFunction(&cifUInt32, c.glCreateProgram, unsafe.Pointer(&result), nil)
	return result
}

func (c *Context) DeleteProgram(program uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&program)}
	_ = ffi.CallFunction(&cifVoid1, c.glDeleteProgram, nil, args[:])
}

func (c *Context) AttachShader(program, shader uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&shader),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glAttachShader, nil, args[:])
}

func (c *Context) DetachShader(program, shader uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&shader),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glDetachShader, nil, args[:])
}

func (c *Context) LinkProgram(program uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&program)}
	_ = ffi.CallFunction(&cifVoid1, c.glLinkProgram, nil, args[:])
}

func (c *Context) UseProgram(program uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&program)}
	_ = ffi.CallFunction(&cifVoid1, c.glUseProgram, nil, args[:])
}

func (c *Context) GetProgramiv(program uint32, pname uint32, params *int32) {
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&pname),
		unsafe.Pointer(params),
	}
	_ = ffi.CallFunction(&cifVoid3Ptr, c.glGetProgramiv, nil, args[:])
}

func (c *Context) GetProgramInfoLog(program uint32) string {
	var length int32
	c.GetProgramiv(program, INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := make([]byte, length)
	maxLen := uint32(length)
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&maxLen),
		unsafe.Pointer(&length),
		unsafe.Pointer(&buf[0]),
	}
	_ = ffi.CallFunction(&cifVoid4Log, c.glGetProgramInfoLog, nil, args[:])
	return string(buf[:length])
}

func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	cname, free := cString(name)
	defer free()
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&cname),
	}
	_ = ffi.CallFunction(&cifInt322, c.glGetUniformLocation, unsafe.Pointer(&result), args[:])
	return result
}

func (c *Context) GetAttribLocation(program uint32, name string) int32 {
	cname, free := cString(name)
	defer free()
	var result int32
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&program),
		unsafe.Pointer(&cname),
	}
	_ = ffi.CallFunction(&cifInt322, c.glGetAttribLocation, unsafe.Pointer(&result), args[:])
	return result
}

// --- Uniforms ---

// Uniform1i sets an integer uniform value.
func (c *Context) Uniform1i(location, value int32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&location),
		unsafe.Pointer(&value),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glUniform1i, nil, args[:])
}

// Uniform1f sets a float uniform value.
func (c *Context) Uniform1f(location int32, value float32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&location),
		unsafe.Pointer(&value),
	}
	_ = ffi.CallFunction(&cifVoid2UF, c.glUniform1f, nil, args[:])
}

// Uniform2f sets a vec2 uniform value.
func (c *Context) Uniform2f(location int32, v0, v1 float32) {
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&location),
		unsafe.Pointer(&v0),
		unsafe.Pointer(&v1),
	}
	_ = ffi.CallFunction(&cifVoid3UFF, c.glUniform2f, nil, args[:])
}

// Uniform3f sets a vec3 uniform value.
func (c *Context) Uniform3f(location int32, v0, v1, v2 float32) {
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&location),
		unsafe.Pointer(&v0),
		unsafe.Pointer(&v1),
		unsafe.Pointer(&v2),
	}
	_ = ffi.CallFunction(&cifVoid4UFFF, c.glUniform3f, nil, args[:])
}

// Uniform4f sets a vec4 uniform value.
func (c *Context) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	args := [5]unsafe.Pointer{
		unsafe.Pointer(&location),
		unsafe.Pointer(&v0),
		unsafe.Pointer(&v1),
		unsafe.Pointer(&v2),
		unsafe.Pointer(&v3),
	}
	_ = ffi.CallFunction(&cifVoid5UFFFF, c.glUniform4f, nil, args[:])
}

// Uniform3fv sets an array of vec3 uniform values.
func (c *Context) Uniform3fv(location int32, values []float32) {
	if len(values) == 0 || len(values)%3 != 0 {
		return
	}
	uloc := uint32(location)
	count := uint32(len(values) / 3)
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&uloc),
		unsafe.Pointer(&count),
		unsafe.Pointer(&values[0]),
	}
	_ = ffi.CallFunction(&cifVoid3Ptr, c.glUniform3fv, nil, args[:])
}

// --- Buffers ---

func (c *Context) GenBuffers(n int32) uint32 {
	var id uint32
	un := uint32(n)
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&un),
		unsafe.Pointer(&id),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glGenBuffers, nil, args[:])
	return id
}

func (c *Context) DeleteBuffers(buffers ...uint32) {
	if len(buffers) == 0 {
		return
	}
	n := uint32(len(buffers))
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&n),
		unsafe.Pointer(&buffers[0]),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glDeleteBuffers, nil, args[:])
}

func (c *Context) BindBuffer(target, buffer uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&buffer),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindBuffer, nil, args[:])
}

func (c *Context) BufferData(target uint32, size int, data uintptr, usage uint32) {
	usize := uintptr(size)
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&usize),
		unsafe.Pointer(&data),
		unsafe.Pointer(&usage),
	}
	_ = ffi.CallFunction(&cifVoid4Buffer, c.glBufferData, nil, args[:])
}

// --- Vertex arrays ---

func (c *Context) GenVertexArrays(n int32) uint32 {
	var id uint32
	un := uint32(n)
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&un),
		unsafe.Pointer(&id),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glGenVertexArrays, nil, args[:])
	return id
}

func (c *Context) DeleteVertexArrays(arrays ...uint32) {
	if len(arrays) == 0 {
		return
	}
	n := uint32(len(arrays))
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&n),
		unsafe.Pointer(&arrays[0]),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glDeleteVertexArrays, nil, args[:])
}

func (c *Context) BindVertexArray(array uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&array)}
	_ = ffi.CallFunction(&cifVoid1, c.glBindVertexArray, nil, args[:])
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&index)}
	_ = ffi.CallFunction(&cifVoid1, c.glEnableVertexAttribArray, nil, args[:])
}

func (c *Context) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset uintptr) {
	var norm uint8
	if normalized {
		norm = 1
	}
	args := [6]unsafe.Pointer{
		unsafe.Pointer(&index),
		unsafe.Pointer(&size),
		unsafe.Pointer(&typ),
		unsafe.Pointer(&norm),
		unsafe.Pointer(&stride),
		unsafe.Pointer(&offset),
	}
	_ = ffi.CallFunction(&cifVoid6Attrib, c.glVertexAttribPointer, nil, args[:])
}

// --- Textures ---

func (c *Context) GenTextures(n int32) uint32 {
	var id uint32
	un := uint32(n)
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&un),
		unsafe.Pointer(&id),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glGenTextures, nil, args[:])
	return id
}

func (c *Context) DeleteTextures(textures ...uint32) {
	if len(textures) == 0 {
		return
	}
	n := uint32(len(textures))
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&n),
		unsafe.Pointer(&textures[0]),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glDeleteTextures, nil, args[:])
}

func (c *Context) BindTexture(target, texture uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&texture),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindTexture, nil, args[:])
}

func (c *Context) ActiveTexture(texture uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&texture)}
	_ = ffi.CallFunction(&cifVoid1, c.glActiveTexture, nil, args[:])
}

func (c *Context) TexParameteri(target, pname uint32, param int32) {
	uparam := uint32(param)
	args := [3]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&pname),
		unsafe.Pointer(&uparam),
	}
	_ = ffi.CallFunction(&cifVoid3, c.glTexParameteri, nil, args[:])
}

func (c *Context) TexImage2D(target uint32, level, internalformat, width, height, border int32, format, typ uint32, pixels uintptr) {
	args := [9]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&level),
		unsafe.Pointer(&internalformat),
		unsafe.Pointer(&width),
		unsafe.Pointer(&height),
		unsafe.Pointer(&border),
		unsafe.Pointer(&format),
		unsafe.Pointer(&typ),
		unsafe.Pointer(&pixels),
	}
	_ = ffi.CallFunction(&cifVoid9TexImg, c.glTexImage2D, nil, args[:])
}

func (c *Context) TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, typ uint32, pixels uintptr) {
	args := [9]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&level),
		unsafe.Pointer(&xoffset),
		unsafe.Pointer(&yoffset),
		unsafe.Pointer(&width),
		unsafe.Pointer(&height),
		unsafe.Pointer(&format),
		unsafe.Pointer(&typ),
		unsafe.Pointer(&pixels),
	}
	_ = ffi.CallFunction(&cifVoid9TexImg, c.glTexSubImage2D, nil, args[:])
}

func (c *Context) GenerateMipmap(target uint32) {
	args := [1]unsafe.Pointer{unsafe.Pointer(&target)}
	_ = ffi.CallFunction(&cifVoid1, c.glGenerateMipmap, nil, args[:])
}

// --- Framebuffers ---

func (c *Context) GenFramebuffers(n int32) uint32 {
	var id uint32
	un := uint32(n)
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&un),
		unsafe.Pointer(&id),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glGenFramebuffers, nil, args[:])
	return id
}

func (c *Context) DeleteFramebuffers(framebuffers ...uint32) {
	if len(framebuffers) == 0 {
		return
	}
	n := uint32(len(framebuffers))
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&n),
		unsafe.Pointer(&framebuffers[0]),
	}
	_ = ffi.CallFunction(&cifVoid2, c.glDeleteFramebuffers, nil, args[:])
}

func (c *Context) BindFramebuffer(target, framebuffer uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&framebuffer),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindFramebuffer, nil, args[:])
}

func (c *Context) FramebufferTexture2D(target, attachment, textarget, texture uint32, level int32) {
	args := [5]unsafe.Pointer{
		unsafe.Pointer(&target),
		unsafe.Pointer(&attachment),
		unsafe.Pointer(&textarget),
		unsafe.Pointer(&texture),
		unsafe.Pointer(&level),
	}
	_ = ffi.CallFunction(&cifVoid5FBO, c.glFramebufferTexture2D, nil, args[:])
}

func (c *Context) CheckFramebufferStatus(target uint32) uint32 {
	var result uint32
	args := [1]unsafe.Pointer{unsafe.Pointer(&target)}
	_ = ffi.CallFunction(&cifUInt321, c.glCheckFramebufferStatus, unsafe.Pointer(&result), args[:])
	return result
}

// --- Blending ---

func (c *Context) BlendFunc(sfactor, dfactor uint32) {
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&sfactor),
		unsafe.Pointer(&dfactor),
	}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBlendFunc, nil, args[:])
}

// --- Helpers ---

// ptrFromUintptr converts a uintptr (from FFI) to *byte without triggering go vet warning.
// This uses double pointer indirection pattern from ebitengine/purego.
// Reference: https://github.com/golang/go/issues/56487
func ptrFromUintptr(ptr uintptr) *byte {
	return *(**byte)(unsafe.Pointer(&ptr))
}

// goString converts a null-terminated C string pointer to Go string.
// The pointer must be valid and point to a null-terminated string.
// This is safe because the pointer comes from OpenGL and remains valid
// for the duration of this function call.
func goString(cstr uintptr) string {
	if cstr == 0 {
		return ""
	}
	// Find string length first (max 4096 to prevent infinite loops)
	length := 0
	for i := 0; i < 4096; i++ {
		b := unsafe.Slice(ptrFromUintptr(cstr), i+1)
		if b[i] == 0 {
			length = i
			break
		}
	}
	if length == 0 {
		return ""
	}
	result := unsafe.Slice(ptrFromUintptr(cstr), length)
	return string(result)
}

// cString converts a Go string to a null-terminated C string.
// The returned free function is a no-op since Go manages the memory.
func cString(s string) (*byte, func()) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return &buf[0], func() {} // No-op free since Go manages memory
}
