package renderer

import (
	"sync/atomic"
)

// Resource is the shared-ownership half of the object model. Copies of
// a resource handle may live on any goroutine; the native object is
// destroyed exactly once, when the last holder releases it.
type Resource interface {
	// Retain adds an owner.
	Retain()
	// Release drops an owner and tears down the native object when the
	// count reaches zero.
	Release()
	// DebugName returns the name given at creation, or the generated
	// one. It has no semantic effect.
	DebugName() string
}

// RefCount implements the shared-ownership contract. Backend resource
// types embed it and wire their native teardown through InitRefCount.
type RefCount struct {
	refs    atomic.Int32
	destroy func()
	name    string
}

// InitRefCount starts the count at one owner. destroy runs exactly
// once, on the Release call that drops the count to zero.
func (rc *RefCount) InitRefCount(name string, destroy func()) {
	rc.refs.Store(1)
	rc.destroy = destroy
	rc.name = name
}

func (rc *RefCount) Retain() {
	rc.refs.Add(1)
}

func (rc *RefCount) Release() {
	if rc.refs.Add(-1) == 0 && rc.destroy != nil {
		rc.destroy()
	}
}

func (rc *RefCount) DebugName() string {
	return rc.name
}

// Framebuffer is an ordered set of attachment images rendered into by
// a render pass.
type Framebuffer interface {
	Resource
	Width() uint32
	Height() uint32
	// AttachmentFormats returns the attachment formats in declaration
	// order. Render-pass validation matches behaviors against it.
	AttachmentFormats() []Format
}

// RenderPass binds a framebuffer's attachments for rendering. Begin
// and End bracket the pass; nesting is not allowed.
type RenderPass interface {
	Resource
	Begin() error
	End() error
}

// Shader is a set of per-stage native shader objects.
type Shader interface {
	Resource
}

// Texture2D is a sampled two-dimensional image with its sampler state.
type Texture2D interface {
	Resource
	Width() uint32
	Height() uint32
}

// SwapSurface is the negotiated set of presentable images tied to a
// window. Exclusive ownership: one owner, transferable, never copied.
type SwapSurface interface {
	Destroy()
	// Resize re-negotiates the surface for the new pixel size. The old
	// image set stays alive until the new one exists.
	Resize(width, height uint32) error
	ImageCount() int
}

// RenderingContext is the native context of a single-context backend,
// bound to one window. Exclusive ownership, like SwapSurface.
type RenderingContext interface {
	Destroy()
	// Present swaps the window's back buffer. Single-context backends
	// have no separate presentation object.
	Present()
}
