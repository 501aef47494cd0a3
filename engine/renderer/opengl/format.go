package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// glInternalFormat maps the neutral format onto a sized internal
// format. BGRA has no sized internal form in core profile; it is
// stored as RGBA8 and swizzled at upload time instead.
func glInternalFormat(format renderer.Format) uint32 {
	switch format {
	case renderer.FormatRGBA8Unorm, renderer.FormatBGRA8Unorm:
		return gl.RGBA8
	case renderer.FormatRGBA16Float:
		return gl.RGBA16F
	case renderer.FormatR32Float:
		return gl.R32F
	case renderer.FormatD32Float:
		return gl.DEPTH_COMPONENT32F
	case renderer.FormatD24UnormS8Uint:
		return gl.DEPTH24_STENCIL8
	case renderer.FormatD32FloatS8Uint:
		return gl.DEPTH32F_STENCIL8
	}
	return 0
}

// glUploadFormat returns the client pixel format and component type
// for initial payload uploads. Depth formats return (0, 0); they never
// accept payloads.
func glUploadFormat(format renderer.Format) (uint32, uint32) {
	switch format {
	case renderer.FormatRGBA8Unorm:
		return gl.RGBA, gl.UNSIGNED_BYTE
	case renderer.FormatBGRA8Unorm:
		return gl.BGRA, gl.UNSIGNED_BYTE
	case renderer.FormatRGBA16Float:
		return gl.RGBA, gl.HALF_FLOAT
	case renderer.FormatR32Float:
		return gl.RED, gl.FLOAT
	}
	return 0, 0
}

// glAttachmentSlot classifies an attachment onto its framebuffer
// binding point. Color attachments are slotted by their position in
// the color list, not by their framebuffer index.
func glAttachmentSlot(format renderer.Format, colorIndex int) uint32 {
	if format.IsDepthStencil() {
		if format.HasStencil() {
			return gl.DEPTH_STENCIL_ATTACHMENT
		}
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(colorIndex)
}

func glFilter(filter renderer.Filter) int32 {
	if filter == renderer.FilterNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func glAddressMode(mode renderer.AddressMode) int32 {
	switch mode {
	case renderer.AddressModeMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case renderer.AddressModeClampToEdge:
		return gl.CLAMP_TO_EDGE
	case renderer.AddressModeClampToBorder:
		return gl.CLAMP_TO_BORDER
	}
	return gl.REPEAT
}

func glShaderStage(stage renderer.ShaderStage) uint32 {
	switch stage {
	case renderer.ShaderStageVertex:
		return gl.VERTEX_SHADER
	case renderer.ShaderStagePixel:
		return gl.FRAGMENT_SHADER
	case renderer.ShaderStageCompute:
		return gl.COMPUTE_SHADER
	case renderer.ShaderStageGeometry:
		return gl.GEOMETRY_SHADER
	case renderer.ShaderStageHull:
		return gl.TESS_CONTROL_SHADER
	default:
		return gl.TESS_EVALUATION_SHADER
	}
}
