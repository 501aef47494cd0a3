package renderer

import (
	"github.com/spaghettifunk/basalto/engine/platform"
)

// Kind identifies a native graphics API. The active kind is chosen
// once at RHI initialization and never changes until shutdown.
type Kind uint8

const (
	KindVulkan Kind = iota
	KindOpenGL
	KindDirectX
	KindMetal
)

func (k Kind) String() string {
	switch k {
	case KindVulkan:
		return "vulkan"
	case KindOpenGL:
		return "opengl"
	case KindDirectX:
		return "directx"
	case KindMetal:
		return "metal"
	}
	return "unknown"
}

// KindFromString parses a configuration value into a Kind.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "vulkan":
		return KindVulkan, true
	case "opengl":
		return KindOpenGL, true
	case "directx":
		return KindDirectX, true
	case "metal":
		return KindMetal, true
	}
	return KindVulkan, false
}

// Format is the backend-neutral pixel format vocabulary. Backends map
// these onto their native enumerations.
type Format uint8

const (
	FormatRGBA8Unorm Format = iota
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatR32Float
	FormatD32Float
	FormatD24UnormS8Uint
	FormatD32FloatS8Uint
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8_unorm"
	case FormatBGRA8Unorm:
		return "bgra8_unorm"
	case FormatRGBA16Float:
		return "rgba16_float"
	case FormatR32Float:
		return "r32_float"
	case FormatD32Float:
		return "d32_float"
	case FormatD24UnormS8Uint:
		return "d24_unorm_s8_uint"
	case FormatD32FloatS8Uint:
		return "d32_float_s8_uint"
	}
	return "unknown"
}

// HasDepth reports whether the format carries a depth aspect.
func (f Format) HasDepth() bool {
	switch f {
	case FormatD32Float, FormatD24UnormS8Uint, FormatD32FloatS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether the format carries a stencil aspect.
func (f Format) HasStencil() bool {
	switch f {
	case FormatD24UnormS8Uint, FormatD32FloatS8Uint:
		return true
	}
	return false
}

// IsDepthStencil reports whether the format is depth/stencil-capable,
// which classifies an attachment as the pass's depth target.
func (f Format) IsDepthStencil() bool {
	return f.HasDepth()
}

// BytesPerPixel returns the texel size for formats that accept initial
// pixel payloads. Depth formats return 0; they are never uploaded.
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FormatRGBA8Unorm, FormatBGRA8Unorm:
		return 4
	case FormatRGBA16Float:
		return 8
	case FormatR32Float:
		return 4
	}
	return 0
}

// LoadOp governs how an attachment's prior contents are treated when a
// render pass begins.
type LoadOp uint8

const (
	LoadOpDiscard LoadOp = iota
	LoadOpPreserve
	LoadOpClear
)

// StoreOp governs what happens to an attachment's contents when a
// render pass ends.
type StoreOp uint8

const (
	StoreOpDiscard StoreOp = iota
	StoreOpPreserve
)

// ClearValue holds both interpretations of a clear request. Which
// fields apply is keyed by the owning attachment's format category and
// resolved once at render-pass construction.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// AttachmentOps is the per-attachment behavior of a render pass. Entry
// i of a RenderPassDescription describes attachment i of the target
// framebuffer.
type AttachmentOps struct {
	Load  LoadOp
	Store StoreOp
	Clear ClearValue
}

// AttachmentDescription declares one framebuffer attachment. Order is
// significant: render passes address attachments by position.
type AttachmentDescription struct {
	Format Format
}

type FramebufferDescription struct {
	Width       uint32
	Height      uint32
	Attachments []AttachmentDescription
	DebugName   string
}

type RenderPassDescription struct {
	// Target is the framebuffer this pass renders into.
	Target Framebuffer
	// Attachments must match the target's attachments one to one.
	Attachments []AttachmentOps
	DebugName   string
}

// ShaderStage indexes the per-stage bytecode slots of a shader.
// Which stages a backend accepts is backend-dependent.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
	ShaderStageCompute
	ShaderStageGeometry
	ShaderStageHull
	ShaderStageDomain

	ShaderStageCount
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStagePixel:
		return "pixel"
	case ShaderStageCompute:
		return "compute"
	case ShaderStageGeometry:
		return "geometry"
	case ShaderStageHull:
		return "hull"
	case ShaderStageDomain:
		return "domain"
	}
	return "unknown"
}

// DefaultEntryPoint is the entry-point naming convention the shader
// toolchain emits per stage. Modules compiled elsewhere must follow it
// for backends to locate their entry points.
func (s ShaderStage) DefaultEntryPoint() string {
	switch s {
	case ShaderStageVertex:
		return "vs_main"
	case ShaderStagePixel:
		return "fs_main"
	case ShaderStageCompute:
		return "cs_main"
	case ShaderStageGeometry:
		return "gs_main"
	case ShaderStageHull:
		return "hs_main"
	default:
		return "ds_main"
	}
}

// ShaderDescription carries one compiled bytecode blob per stage. An
// empty blob means the stage is absent. The debug name has no semantic
// effect.
type ShaderDescription struct {
	Stages    [ShaderStageCount][]byte
	DebugName string
}

// StageCount returns how many stages carry bytecode.
func (d *ShaderDescription) StageCount() int {
	n := 0
	for _, blob := range d.Stages {
		if len(blob) > 0 {
			n++
		}
	}
	return n
}

// Filter selects texel filtering for magnification or minification.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// AddressMode selects wrapping behavior along one texture axis.
type AddressMode uint8

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirroredRepeat
	AddressModeClampToEdge
	AddressModeClampToBorder
)

type Texture2DDescription struct {
	Width  uint32
	Height uint32
	Format Format
	// Pixels optionally seeds the texture. When non-nil its length
	// must equal Width*Height*Format.BytesPerPixel().
	Pixels    []byte
	MinFilter Filter
	MagFilter Filter
	// One address mode per texture axis.
	AddressU    AddressMode
	AddressV    AddressMode
	AddressW    AddressMode
	BorderColor [4]float32
	DebugName   string
}

// SwapSurfaceDescription names the window whose display surface the
// swap surface presents into.
type SwapSurfaceDescription struct {
	Window *platform.Window
}

// RenderingContextDescription names the window owning the native
// context of a single-context backend.
type RenderingContextDescription struct {
	Window *platform.Window
}
