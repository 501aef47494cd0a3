package opengl

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/platform"
)

// GLRenderingContext is the exclusive handle to the window's GL
// context. Unlike the refcounted resources it is never shared: one
// owner makes it current, and destroying it detaches the context from
// the calling thread.
type GLRenderingContext struct {
	window *platform.Window
}

func newRenderingContext(window *platform.Window) *GLRenderingContext {
	return &GLRenderingContext{window: window}
}

// Present swaps the window's back buffer. GL has no explicit swapchain
// to negotiate; presentation rides on the context itself.
func (c *GLRenderingContext) Present() {
	c.window.Handle().SwapBuffers()
}

func (c *GLRenderingContext) Destroy() {
	if c.window == nil {
		core.LogWarn("opengl: rendering context destroyed twice")
		return
	}
	glfw.DetachCurrentContext()
	c.window = nil
}
