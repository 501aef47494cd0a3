package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spaghettifunk/basalto/engine/assets"
	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/platform"
	"github.com/spaghettifunk/basalto/engine/renderer"

	// Importing a backend package registers its kind with the facade.
	_ "github.com/spaghettifunk/basalto/engine/renderer/opengl"
	_ "github.com/spaghettifunk/basalto/engine/renderer/vulkan"
)

// Application is the game-side half of the engine. The run loop calls
// Update then Render once per frame with the frame delta in seconds;
// OnResize runs once at startup with the initial size and again after
// every window resize.
type Application interface {
	Initialize(e *Engine) error
	Update(delta float64) error
	Render(delta float64) error
	OnResize(width, height uint32) error
	Shutdown() error
}

// Engine owns the window, the rendering facade and the frame loop.
// Everything runs on the main thread; Run does not return until the
// application quits.
type Engine struct {
	config *Config
	app    Application

	window  *platform.Window
	rhi     *renderer.RHI
	assets  *assets.Manager
	bus     *core.EventBus
	input   *core.Input
	clock   *core.Clock
	metrics *core.Metrics

	// Exactly one of the two is set after Initialize: explicit-queue
	// backends present through a swap surface, single-context backends
	// through the window's own context.
	swapSurface renderer.SwapSurface
	context     renderer.RenderingContext

	width    uint32
	height   uint32
	lastTime float64
	// running is atomic so Quit works from the signal goroutine;
	// everything else belongs to the main thread.
	running   atomic.Bool
	suspended bool
}

func New(cfg *Config, app Application) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: nil config")
	}
	if app == nil {
		return nil, fmt.Errorf("engine: nil application")
	}

	am, err := assets.NewManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	bus := core.NewEventBus()
	return &Engine{
		config:  cfg,
		app:     app,
		rhi:     renderer.NewRHI(),
		assets:  am,
		bus:     bus,
		input:   core.NewInput(bus),
		clock:   core.NewClock(),
		metrics: core.NewMetrics(),
		width:   cfg.Application.Width,
		height:  cfg.Application.Height,
	}, nil
}

// Initialize opens the window, brings the configured backend up and
// hands control to the application's own Initialize.
func (e *Engine) Initialize() error {
	core.SetLogLevel(e.config.Renderer.LogLevel)

	kind, ok := renderer.KindFromString(e.config.Renderer.Backend)
	if !ok {
		return fmt.Errorf("engine: unknown renderer backend %q", e.config.Renderer.Backend)
	}

	api := platform.ClientAPINone
	if kind == renderer.KindOpenGL {
		api = platform.ClientAPIOpenGL
	}
	window, err := platform.Startup(e.config.Application.Name, e.width, e.height, api)
	if err != nil {
		return err
	}
	e.window = window

	// Input flows straight into the tracker; resizes are queued so a
	// drag storm collapses into at most a handful of frame-boundary
	// events.
	window.SetKeyCallback(e.input.ProcessKey)
	window.SetMouseButtonCallback(e.input.ProcessButton)
	window.SetCursorPosCallback(e.input.ProcessMouseMove)
	window.SetScrollCallback(e.input.ProcessMouseWheel)
	window.SetResizeCallback(func(width, height uint32) {
		e.bus.Enqueue(core.EventContext{
			Type: core.EventResized,
			Data: core.ResizeEvent{Width: width, Height: height},
		})
	})

	e.bus.Register(core.EventQuit, e.onQuit)
	e.bus.Register(core.EventKeyPressed, e.onKey)
	e.bus.Register(core.EventResized, e.onResized)

	if err := e.rhi.Initialize(&renderer.Config{
		Kind:            kind,
		ApplicationName: e.config.Application.Name,
		Window:          window,
		Build:           core.ActiveBuild,
	}); err != nil {
		return err
	}

	// Presentation is negotiated by capability, not by kind: ask for a
	// swap surface first and fall back to a bound context when the
	// backend does not do explicit queues.
	surface, err := e.rhi.CreateSwapSurface(&renderer.SwapSurfaceDescription{Window: window})
	switch {
	case err == nil:
		e.swapSurface = surface
		core.LogInfo("engine: presenting through a %d-image swap surface", surface.ImageCount())
	case errors.Is(err, core.ErrUnsupported):
		ctx, cerr := e.rhi.CreateRenderingContext(&renderer.RenderingContextDescription{Window: window})
		if cerr != nil {
			return fmt.Errorf("engine: no presentation path: %w", cerr)
		}
		e.context = ctx
		core.LogInfo("engine: presenting through the window's bound context")
	default:
		return fmt.Errorf("engine: creating swap surface: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	assetRoot := filepath.Join(wd, "assets")
	if _, serr := os.Stat(assetRoot); serr == nil {
		if err := e.assets.Startup(assetRoot); err != nil {
			return err
		}
	} else {
		core.LogWarn("engine: no asset directory at %s, hot reload disabled", assetRoot)
	}

	if err := e.app.Initialize(e); err != nil {
		return err
	}
	return e.app.OnResize(e.width, e.height)
}

// Run drives the frame loop until the window closes or a quit event
// fires. While the window is minimized the loop keeps pumping events
// but skips frames.
func (e *Engine) Run() error {
	e.running.Store(true)
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	frames := 0
	for e.running.Load() {
		e.window.PollEvents()
		if e.window.ShouldClose() {
			e.running.Store(false)
			break
		}

		e.bus.Dispatch()
		if e.suspended {
			e.window.WaitEvents()
			continue
		}

		e.clock.Update()
		current := e.clock.Elapsed()
		delta := current - e.lastTime

		if err := e.app.Update(delta); err != nil {
			core.LogError("engine: application update failed, stopping: %s", err)
			e.running.Store(false)
			break
		}
		if err := e.app.Render(delta); err != nil {
			core.LogError("engine: application render failed, stopping: %s", err)
			e.running.Store(false)
			break
		}
		if e.context != nil {
			e.context.Present()
		}

		e.metrics.RecordFrame(delta)
		frames++
		if frames%300 == 0 {
			core.LogDebug("engine: %.0f fps, %.2f ms/frame", e.metrics.FPS(), e.metrics.FrameTimeMS())
		}

		// Input state copying stays the last thing in the frame, after
		// every consumer of this frame's transitions has run.
		e.input.Update()
		e.lastTime = current
	}
	return nil
}

// Shutdown tears the stack down in reverse initialization order. Safe
// to call after a failed Initialize; the steps that never ran are
// skipped.
func (e *Engine) Shutdown() error {
	var appErr error
	if e.app != nil {
		if appErr = e.app.Shutdown(); appErr != nil {
			core.LogError("engine: application shutdown failed: %s", appErr)
		}
	}

	if e.swapSurface != nil {
		e.swapSurface.Destroy()
		e.swapSurface = nil
	}
	if e.context != nil {
		e.context.Destroy()
		e.context = nil
	}
	if e.rhi.IsInitialized() {
		e.rhi.Shutdown()
	}
	e.assets.Shutdown()
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
		platform.Shutdown()
	}
	return appErr
}

// RHI exposes the rendering facade for the application's resource
// creation.
func (e *Engine) RHI() *renderer.RHI {
	return e.rhi
}

// Input exposes frame-coherent keyboard and mouse queries.
func (e *Engine) Input() *core.Input {
	return e.input
}

// Metrics exposes the frame counters.
func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// Assets exposes the asset index and watcher.
func (e *Engine) Assets() *assets.Manager {
	return e.assets
}

// Size returns the current framebuffer size in pixels.
func (e *Engine) Size() (uint32, uint32) {
	return e.width, e.height
}

// Quit asks the run loop to stop after the current frame. Safe from
// any goroutine.
func (e *Engine) Quit() {
	e.bus.Fire(core.EventContext{Type: core.EventQuit})
}

func (e *Engine) onQuit(core.EventContext) bool {
	core.LogInfo("engine: quit requested, stopping run loop")
	e.running.Store(false)
	return true
}

func (e *Engine) onKey(ctx core.EventContext) bool {
	ke, ok := ctx.Data.(core.KeyEvent)
	if !ok {
		core.LogError("engine: key event carries %T payload", ctx.Data)
		return false
	}
	if ke.Key == core.KeyEscape {
		// Fired at ourselves so other listeners see the quit too.
		e.bus.Fire(core.EventContext{Type: core.EventQuit})
		return true
	}
	return false
}

func (e *Engine) onResized(ctx core.EventContext) bool {
	re, ok := ctx.Data.(core.ResizeEvent)
	if !ok {
		core.LogError("engine: resize event carries %T payload", ctx.Data)
		return false
	}
	if re.Width == e.width && re.Height == e.height {
		return false
	}
	e.width, e.height = re.Width, re.Height

	if re.Width == 0 || re.Height == 0 {
		core.LogInfo("engine: window minimized, suspending")
		e.suspended = true
		return true
	}
	if e.suspended {
		core.LogInfo("engine: window restored, resuming")
		e.suspended = false
	}

	core.LogDebug("engine: window resized to %dx%d", re.Width, re.Height)
	if e.swapSurface != nil {
		if err := e.swapSurface.Resize(re.Width, re.Height); err != nil {
			core.LogError("engine: swap surface resize failed: %s", err)
		}
	}
	if err := e.app.OnResize(re.Width, re.Height); err != nil {
		core.LogError("engine: application resize failed: %s", err)
	}
	return false
}
