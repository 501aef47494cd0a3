package renderer

import (
	"sync"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/platform"
)

// BackendConfig is what a backend needs to bring its native API up.
type BackendConfig struct {
	ApplicationName string
	// Window is required by single-context backends at initialization
	// and by explicit-queue backends when a swap surface is created.
	Window *platform.Window
	Build  core.BuildConfiguration
}

// Backend is one concrete implementation of the rendering interface
// bound to a single native graphics API. All calls are synchronous and
// block until the native driver returns.
type Backend interface {
	Initialize(cfg *BackendConfig) error
	Shutdown()

	CreateFramebuffer(desc *FramebufferDescription) (Framebuffer, error)
	CreateRenderPass(desc *RenderPassDescription) (RenderPass, error)
	CreateShader(desc *ShaderDescription) (Shader, error)
	CreateTexture2D(desc *Texture2DDescription) (Texture2D, error)
	CreateSwapSurface(desc *SwapSurfaceDescription) (SwapSurface, error)
	CreateRenderingContext(desc *RenderingContextDescription) (RenderingContext, error)
}

// Factory constructs an uninitialized backend. Registered factories
// are how a build declares which native APIs it ships.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]Factory)
)

// Register makes a backend available under the given kind. Backend
// packages call it from init; importing a backend package is enough to
// make its kind selectable.
func Register(kind Kind, factory Factory) {
	if factory == nil {
		core.Abortf("renderer: Register(%s) with nil factory", kind)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		core.Abortf("renderer: Register(%s) called twice", kind)
	}
	registry[kind] = factory
}

// Registered reports whether a backend kind can be instantiated in
// this build.
func Registered(kind Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

func factoryFor(kind Kind) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}
