package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// GLShader is a linked program built from per-stage SPIR-V binaries.
type GLShader struct {
	renderer.RefCount

	program uint32
}

func ShaderCreate(desc *renderer.ShaderDescription) (*GLShader, error) {
	program := gl.CreateProgram()
	var shaders []uint32
	cleanup := func() {
		for _, shader := range shaders {
			gl.DeleteShader(shader)
		}
		gl.DeleteProgram(program)
	}

	for stage := renderer.ShaderStage(0); stage < renderer.ShaderStageCount; stage++ {
		code := desc.Stages[stage]
		if len(code) == 0 {
			continue
		}

		shader := gl.CreateShader(glShaderStage(stage))
		shaders = append(shaders, shader)

		handle := shader
		gl.ShaderBinary(1, &handle, gl.SHADER_BINARY_FORMAT_SPIR_V, gl.Ptr(code), int32(len(code)))
		entry := stage.DefaultEntryPoint() + "\x00"
		gl.SpecializeShader(shader, gl.Str(entry), 0, nil, nil)

		var status int32
		gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
		if status == gl.FALSE {
			diagnostic := shaderInfoLog(shader)
			cleanup()
			return nil, fmt.Errorf("shader '%s' stage %s failed to specialize: %s", desc.DebugName, stage, diagnostic)
		}
		gl.AttachShader(program, shader)
	}

	gl.LinkProgram(program)
	var linked int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &linked)
	if linked == gl.FALSE {
		diagnostic := programInfoLog(program)
		cleanup()
		return nil, fmt.Errorf("shader '%s' failed to link: %s", desc.DebugName, diagnostic)
	}

	for _, shader := range shaders {
		gl.DetachShader(program, shader)
		gl.DeleteShader(shader)
	}

	sh := &GLShader{program: program}
	sh.InitRefCount(desc.DebugName, func() {
		gl.DeleteProgram(sh.program)
		sh.program = 0
	})
	return sh, nil
}

func shaderInfoLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return "no diagnostic"
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func programInfoLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return "no diagnostic"
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}
