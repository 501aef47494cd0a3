package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// vulkanFormat maps a portable texel format onto its native
// equivalent. Unknown formats map to FormatUndefined and are rejected
// by the caller.
func vulkanFormat(format renderer.Format) vk.Format {
	switch format {
	case renderer.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case renderer.FormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case renderer.FormatRGBA16Float:
		return vk.FormatR16g16b16a16Sfloat
	case renderer.FormatR32Float:
		return vk.FormatR32Sfloat
	case renderer.FormatD32Float:
		return vk.FormatD32Sfloat
	case renderer.FormatD24UnormS8Uint:
		return vk.FormatD24UnormS8Uint
	case renderer.FormatD32FloatS8Uint:
		return vk.FormatD32SfloatS8Uint
	default:
		return vk.FormatUndefined
	}
}

func vulkanAspect(format renderer.Format) vk.ImageAspectFlags {
	if !format.IsDepthStencil() {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if format.HasStencil() {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

func vulkanLoadOp(op renderer.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case renderer.LoadOpClear:
		return vk.AttachmentLoadOpClear
	case renderer.LoadOpPreserve:
		return vk.AttachmentLoadOpLoad
	default:
		return vk.AttachmentLoadOpDontCare
	}
}

func vulkanStoreOp(op renderer.StoreOp) vk.AttachmentStoreOp {
	if op == renderer.StoreOpPreserve {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

func vulkanFilter(filter renderer.Filter) vk.Filter {
	if filter == renderer.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func vulkanAddressMode(mode renderer.AddressMode) vk.SamplerAddressMode {
	switch mode {
	case renderer.AddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case renderer.AddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case renderer.AddressModeClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	default:
		return vk.SamplerAddressModeRepeat
	}
}
