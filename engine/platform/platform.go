package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/basalto/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// ClientAPI tells the window which native graphics API will drive it.
// Explicit-queue backends bring their own device and need no context;
// single-context backends need the window to own one.
type ClientAPI uint8

const (
	ClientAPINone ClientAPI = iota
	ClientAPIOpenGL
)

// Window wraps a GLFW window. The renderer consumes it through its
// pixel size and native handle only; input and resize updates flow
// out through the registered callbacks, already translated to core
// types.
type Window struct {
	handle *glfw.Window

	onResize    func(width, height uint32)
	onKey       func(key core.KeyCode, pressed bool)
	onButton    func(button core.Button, pressed bool)
	onCursorPos func(x, y int32)
	onScroll    func(delta float64)
}

// Startup initializes GLFW and opens a single window configured for
// the given client API.
func Startup(applicationName string, width, height uint32, api ClientAPI) (*Window, error) {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return nil, err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	switch api {
	case ClientAPIOpenGL:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 6)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	}

	handle, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		core.LogError("failed to create window: %s", err)
		return nil, err
	}

	w := &Window{handle: handle}
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		// Zero size (minimized window) is forwarded; the run loop
		// suspends on it rather than resizing to nothing.
		if w.onResize != nil && width >= 0 && height >= 0 {
			w.onResize(uint32(width), uint32(height))
		}
	})
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		// Key codes share the windowing system's layout, so the
		// translation is a cast. Repeats carry no transition.
		if w.onKey == nil || key < 0 || action == glfw.Repeat {
			return
		}
		w.onKey(core.KeyCode(key), action == glfw.Press)
	})
	handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.onButton == nil || button > glfw.MouseButtonMiddle {
			return
		}
		w.onButton(core.Button(button), action == glfw.Press)
	})
	handle.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.onCursorPos != nil {
			w.onCursorPos(int32(xpos), int32(ypos))
		}
	})
	handle.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(yoff)
		}
	})
	handle.Show()

	return w, nil
}

// Handle exposes the native window for surface and context calls.
func (w *Window) Handle() *glfw.Window {
	return w.handle
}

// PixelSize returns the current framebuffer size in pixels, which on
// high-DPI displays differs from the window size in screen units.
func (w *Window) PixelSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// SetResizeCallback registers fn to run whenever the framebuffer
// changes size. A zero size means the window was minimized.
func (w *Window) SetResizeCallback(fn func(width, height uint32)) {
	w.onResize = fn
}

// SetKeyCallback registers fn for key press and release transitions.
func (w *Window) SetKeyCallback(fn func(key core.KeyCode, pressed bool)) {
	w.onKey = fn
}

// SetMouseButtonCallback registers fn for the left, right and middle
// buttons.
func (w *Window) SetMouseButtonCallback(fn func(button core.Button, pressed bool)) {
	w.onButton = fn
}

// SetCursorPosCallback registers fn for cursor movement, in screen
// coordinates relative to the window's top-left corner.
func (w *Window) SetCursorPosCallback(fn func(x, y int32)) {
	w.onCursorPos = fn
}

// SetScrollCallback registers fn for vertical wheel movement.
func (w *Window) SetScrollCallback(fn func(delta float64)) {
	w.onScroll = fn
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrives, then processes
// it. Used while the window is minimized to avoid a hot loop.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) Destroy() {
	w.handle.Destroy()
	w.handle = nil
}

// Shutdown terminates GLFW. Call after every window is destroyed.
func Shutdown() {
	glfw.Terminate()
}
