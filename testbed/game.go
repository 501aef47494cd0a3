package testbed

import (
	"github.com/spaghettifunk/basalto/engine"
	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
	"github.com/spaghettifunk/basalto/engine/shaderc"
)

// The builtin shaders are embedded so the testbed runs without an
// asset build. The same sources live under assets/shaders for the
// offline pipeline.
const builtinVertexSource = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position.x, in.position.y, in.position.z, 1.0);
    out.color = in.color;
    return out;
}
`

const builtinFragmentSource = `
struct FragmentInput {
    @location(0) color: vec3<f32>,
};

@fragment
fn fs_main(in: FragmentInput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color.x, in.color.y, in.color.z, 1.0);
}
`

// TestGame exercises the rendering stack: it compiles the builtin
// shaders at startup, keeps a window-sized offscreen target and clears
// it every frame.
type TestGame struct {
	engine *engine.Engine

	shader    renderer.Shader
	checker   renderer.Texture2D
	offscreen renderer.Framebuffer
	scenePass renderer.RenderPass
}

func NewTestGame() *TestGame {
	return &TestGame{}
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("testbed: initializing")
	g.engine = e

	// Both live backends consume SPIR-V modules.
	translator, err := shaderc.New(shaderc.Config{
		Target: shaderc.TargetSPIRV,
		Build:  core.ActiveBuild,
	})
	if err != nil {
		return err
	}
	vertex, err := translator.Translate(&shaderc.Input{
		Source: builtinVertexSource,
		Stage:  renderer.ShaderStageVertex,
	})
	if err != nil {
		return err
	}
	fragment, err := translator.Translate(&shaderc.Input{
		Source: builtinFragmentSource,
		Stage:  renderer.ShaderStagePixel,
	})
	if err != nil {
		return err
	}
	core.LogDebug("testbed: builtin vertex shader reflects %d inputs", len(vertex.Reflection.Inputs))

	shaderDesc := &renderer.ShaderDescription{DebugName: "builtin"}
	shaderDesc.Stages[renderer.ShaderStageVertex] = vertex.Code
	shaderDesc.Stages[renderer.ShaderStagePixel] = fragment.Code
	shader, err := e.RHI().CreateShader(shaderDesc)
	if err != nil {
		return err
	}
	g.shader = shader

	checker, err := e.RHI().CreateTexture2D(&renderer.Texture2DDescription{
		Width:  2,
		Height: 2,
		Format: renderer.FormatRGBA8Unorm,
		Pixels: []byte{
			255, 255, 255, 255, 64, 64, 64, 255,
			64, 64, 64, 255, 255, 255, 255, 255,
		},
		MinFilter: renderer.FilterNearest,
		MagFilter: renderer.FilterNearest,
		AddressU:  renderer.AddressModeRepeat,
		AddressV:  renderer.AddressModeRepeat,
		AddressW:  renderer.AddressModeRepeat,
		DebugName: "checker",
	})
	if err != nil {
		return err
	}
	g.checker = checker

	// The offscreen target is created by the initial OnResize.
	return nil
}

func (g *TestGame) Update(delta float64) error {
	input := g.engine.Input()
	if input.KeyPressedThisFrame(core.KeyF1) {
		metrics := g.engine.Metrics()
		core.LogInfo("testbed: %.0f fps, %.2f ms/frame", metrics.FPS(), metrics.FrameTimeMS())
	}
	if input.KeyPressedThisFrame(core.KeyF2) {
		x, y := input.MousePosition()
		core.LogInfo("testbed: mouse at %d, %d", x, y)
	}
	return nil
}

func (g *TestGame) Render(delta float64) error {
	if err := g.scenePass.Begin(); err != nil {
		return err
	}
	return g.scenePass.End()
}

// OnResize rebuilds the window-sized offscreen target. The first call
// comes from engine initialization, so creation lives here only.
func (g *TestGame) OnResize(width, height uint32) error {
	g.releaseTargets()

	offscreen, err := g.engine.RHI().CreateFramebuffer(&renderer.FramebufferDescription{
		Width:  width,
		Height: height,
		Attachments: []renderer.AttachmentDescription{
			{Format: renderer.FormatBGRA8Unorm},
			{Format: renderer.FormatD24UnormS8Uint},
		},
		DebugName: "scene-target",
	})
	if err != nil {
		return err
	}
	scenePass, err := g.engine.RHI().CreateRenderPass(&renderer.RenderPassDescription{
		Target: offscreen,
		Attachments: []renderer.AttachmentOps{
			{
				Load:  renderer.LoadOpClear,
				Store: renderer.StoreOpPreserve,
				Clear: renderer.ClearValue{Color: [4]float32{0.1, 0.1, 0.2, 1.0}},
			},
			{
				Load:  renderer.LoadOpClear,
				Store: renderer.StoreOpDiscard,
				Clear: renderer.ClearValue{Depth: 1.0, Stencil: 0},
			},
		},
		DebugName: "scene-pass",
	})
	if err != nil {
		offscreen.Release()
		return err
	}

	g.offscreen = offscreen
	g.scenePass = scenePass
	core.LogDebug("testbed: scene target rebuilt at %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed: shutting down")
	g.releaseTargets()
	if g.checker != nil {
		g.checker.Release()
		g.checker = nil
	}
	if g.shader != nil {
		g.shader.Release()
		g.shader = nil
	}
	return nil
}

func (g *TestGame) releaseTargets() {
	if g.scenePass != nil {
		g.scenePass.Release()
		g.scenePass = nil
	}
	if g.offscreen != nil {
		g.offscreen.Release()
		g.offscreen = nil
	}
}
