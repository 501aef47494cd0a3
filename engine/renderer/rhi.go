package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/platform"
)

// Config selects and parameterizes the active backend.
type Config struct {
	Kind            Kind
	ApplicationName string
	Window          *platform.Window
	// Build defaults to core.ActiveBuild when left zero-valued in a
	// shipping binary; tests and tools may pin it.
	Build core.BuildConfiguration
}

// RHI is the hardware-interface facade. One value owns one active
// backend; creating several RHI values yields independent rendering
// stacks, so tests and multi-window tools need no global state.
//
// Setup and teardown are single-threaded by design: Initialize,
// Shutdown and the Create methods must not race each other. The
// resources they return are themselves safe to share.
type RHI struct {
	backend Backend
	kind    Kind
}

func NewRHI() *RHI {
	return &RHI{}
}

// Initialize selects the backend for cfg.Kind and brings its native
// API up. It fails when called twice, when the kind has no registered
// implementation, or when the backend's own initialization fails; in
// every failure case the facade stays uninitialized.
func (r *RHI) Initialize(cfg *Config) error {
	if r.backend != nil {
		core.LogError("renderer: Initialize called twice (active backend: %s)", r.kind)
		return core.ErrAlreadyInitialized
	}

	factory, ok := factoryFor(cfg.Kind)
	if !ok {
		core.LogError("renderer: backend %s is not registered in this build", cfg.Kind)
		return fmt.Errorf("backend %s: %w", cfg.Kind, core.ErrNoBackend)
	}

	backend := factory()
	if err := backend.Initialize(&BackendConfig{
		ApplicationName: cfg.ApplicationName,
		Window:          cfg.Window,
		Build:           cfg.Build,
	}); err != nil {
		core.LogError("renderer: %s backend failed to initialize: %s", cfg.Kind, err)
		return fmt.Errorf("initializing %s backend: %w", cfg.Kind, err)
	}

	r.backend = backend
	r.kind = cfg.Kind
	core.LogInfo("renderer: %s backend initialized", cfg.Kind)
	return nil
}

// Shutdown tears the backend down and clears the facade. Calling it on
// an uninitialized facade logs and returns.
func (r *RHI) Shutdown() {
	if r.backend == nil {
		core.LogWarn("renderer: Shutdown called while not initialized")
		return
	}
	r.backend.Shutdown()
	r.backend = nil
	core.LogInfo("renderer: %s backend shut down", r.kind)
}

// IsInitialized reports whether a backend is active. Callers must
// guard all resource creation with it.
func (r *RHI) IsInitialized() bool {
	return r.backend != nil
}

// Kind returns the active backend kind. Meaningless before
// initialization.
func (r *RHI) Kind() Kind {
	return r.kind
}

// mustBackend returns the active backend or aborts: creating resources
// without an initialized facade is a build/integration defect, not a
// recoverable condition.
func (r *RHI) mustBackend(op string) Backend {
	if r.backend == nil {
		core.Abortf("renderer: %s called before Initialize", op)
	}
	return r.backend
}

func debugName(name string) string {
	if name == "" {
		return uuid.New().String()
	}
	return name
}

// CreateFramebuffer validates the attachment set and dispatches to the
// active backend. At most one attachment may carry a depth/stencil-
// capable format; violating that is a contract violation.
func (r *RHI) CreateFramebuffer(desc *FramebufferDescription) (Framebuffer, error) {
	backend := r.mustBackend("CreateFramebuffer")

	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("framebuffer %q: zero extent %dx%d", desc.DebugName, desc.Width, desc.Height)
	}
	if len(desc.Attachments) == 0 {
		return nil, fmt.Errorf("framebuffer %q: no attachments", desc.DebugName)
	}
	depthCount := 0
	for _, a := range desc.Attachments {
		if a.Format.IsDepthStencil() {
			depthCount++
		}
	}
	if depthCount > 1 {
		core.Abortf("renderer: framebuffer %q declares %d depth/stencil attachments, at most one is allowed", desc.DebugName, depthCount)
	}

	d := *desc
	d.DebugName = debugName(desc.DebugName)
	return backend.CreateFramebuffer(&d)
}

// CreateRenderPass validates the behaviors against the target
// framebuffer before any native call: entry i describes attachment i,
// so the lengths must match exactly.
func (r *RHI) CreateRenderPass(desc *RenderPassDescription) (RenderPass, error) {
	backend := r.mustBackend("CreateRenderPass")

	if desc.Target == nil {
		return nil, fmt.Errorf("render pass %q: nil target framebuffer", desc.DebugName)
	}
	if got, want := len(desc.Attachments), len(desc.Target.AttachmentFormats()); got != want {
		return nil, fmt.Errorf("render pass %q: %d attachment behaviors for a framebuffer with %d attachments",
			desc.DebugName, got, want)
	}

	d := *desc
	d.DebugName = debugName(desc.DebugName)
	return backend.CreateRenderPass(&d)
}

func (r *RHI) CreateShader(desc *ShaderDescription) (Shader, error) {
	backend := r.mustBackend("CreateShader")

	if desc.StageCount() == 0 {
		return nil, fmt.Errorf("shader %q: no stage carries bytecode", desc.DebugName)
	}

	d := *desc
	d.DebugName = debugName(desc.DebugName)
	return backend.CreateShader(&d)
}

func (r *RHI) CreateTexture2D(desc *Texture2DDescription) (Texture2D, error) {
	backend := r.mustBackend("CreateTexture2D")

	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("texture %q: zero extent %dx%d", desc.DebugName, desc.Width, desc.Height)
	}
	if desc.Pixels != nil {
		want := int(desc.Width) * int(desc.Height) * int(desc.Format.BytesPerPixel())
		if desc.Format.BytesPerPixel() == 0 {
			return nil, fmt.Errorf("texture %q: format %s does not accept pixel payloads", desc.DebugName, desc.Format)
		}
		if len(desc.Pixels) != want {
			return nil, fmt.Errorf("texture %q: payload is %d bytes, %dx%d %s needs %d",
				desc.DebugName, len(desc.Pixels), desc.Width, desc.Height, desc.Format, want)
		}
	}

	d := *desc
	d.DebugName = debugName(desc.DebugName)
	return backend.CreateTexture2D(&d)
}

func (r *RHI) CreateSwapSurface(desc *SwapSurfaceDescription) (SwapSurface, error) {
	backend := r.mustBackend("CreateSwapSurface")

	if desc.Window == nil {
		return nil, fmt.Errorf("swap surface: nil window")
	}
	return backend.CreateSwapSurface(desc)
}

func (r *RHI) CreateRenderingContext(desc *RenderingContextDescription) (RenderingContext, error) {
	backend := r.mustBackend("CreateRenderingContext")

	if desc.Window == nil {
		return nil, fmt.Errorf("rendering context: nil window")
	}
	return backend.CreateRenderingContext(desc)
}
