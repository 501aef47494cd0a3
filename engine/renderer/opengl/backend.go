package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/platform"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

func init() {
	renderer.Register(renderer.KindOpenGL, func() renderer.Backend {
		return &GLBackend{}
	})
}

// GLBackend drives a single GL 4.6 core context owned by the window.
// All calls assume that context is current on the calling thread,
// which holds as long as setup stays single-threaded.
type GLBackend struct {
	window *platform.Window
	build  core.BuildConfiguration
}

func (b *GLBackend) Initialize(cfg *renderer.BackendConfig) error {
	if cfg.Window == nil {
		err := fmt.Errorf("opengl: a window carrying a GL context is required: %w", core.ErrNoDevice)
		core.LogError(err.Error())
		return err
	}

	cfg.Window.Handle().MakeContextCurrent()
	if err := gl.Init(); err != nil {
		core.LogError("failed to load OpenGL function pointers: %s", err)
		return err
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	device := gl.GoStr(gl.GetString(gl.RENDERER))
	core.LogInfo("OpenGL context: %s", version)
	core.LogInfo("OpenGL device: %s", device)

	// The shader path feeds SPIR-V binaries straight to the driver, so
	// a context that accepts no binary formats cannot run anything.
	var binaryFormats int32
	gl.GetIntegerv(gl.NUM_SHADER_BINARY_FORMATS, &binaryFormats)
	if binaryFormats == 0 {
		err := fmt.Errorf("opengl: driver accepts no shader binary formats: %w", core.ErrUnsupported)
		core.LogError(err.Error())
		return err
	}

	if cfg.Build.Validation() {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(debugCallback, nil)
		core.LogInfo("OpenGL debug output enabled")
	}

	b.window = cfg.Window
	b.build = cfg.Build
	return nil
}

func (b *GLBackend) Shutdown() {
	if b.window == nil {
		return
	}
	glfw.DetachCurrentContext()
	b.window = nil
}

func (b *GLBackend) CreateFramebuffer(desc *renderer.FramebufferDescription) (renderer.Framebuffer, error) {
	fb, err := FramebufferCreate(desc)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (b *GLBackend) CreateRenderPass(desc *renderer.RenderPassDescription) (renderer.RenderPass, error) {
	target, ok := desc.Target.(*GLFramebuffer)
	if !ok {
		err := fmt.Errorf("render pass target '%s' was not created by this backend", desc.Target.DebugName())
		core.LogError(err.Error())
		return nil, err
	}
	pass, err := RenderPassCreate(desc, target)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (b *GLBackend) CreateShader(desc *renderer.ShaderDescription) (renderer.Shader, error) {
	shader, err := ShaderCreate(desc)
	if err != nil {
		return nil, err
	}
	return shader, nil
}

func (b *GLBackend) CreateTexture2D(desc *renderer.Texture2DDescription) (renderer.Texture2D, error) {
	texture, err := TextureCreate(desc)
	if err != nil {
		return nil, err
	}
	return texture, nil
}

func (b *GLBackend) CreateSwapSurface(desc *renderer.SwapSurfaceDescription) (renderer.SwapSurface, error) {
	return nil, fmt.Errorf("opengl presents through the window's bound context, not an explicit swap surface: %w", core.ErrUnsupported)
}

func (b *GLBackend) CreateRenderingContext(desc *renderer.RenderingContextDescription) (renderer.RenderingContext, error) {
	desc.Window.Handle().MakeContextCurrent()
	return newRenderingContext(desc.Window), nil
}

func debugCallback(source uint32, gltype uint32, id uint32, severity uint32,
	length int32, message string, userParam unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		core.LogError("GL: %s", message)
	case gl.DEBUG_SEVERITY_MEDIUM:
		core.LogWarn("GL: %s", message)
	case gl.DEBUG_SEVERITY_LOW:
		core.LogInfo("GL: %s", message)
	default:
		core.LogDebug("GL: %s", message)
	}
}
