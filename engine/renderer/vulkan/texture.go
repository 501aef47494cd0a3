package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// VulkanTexture is a sampled image with its sampler state. Initial
// pixel data goes through a host-visible staging buffer and a
// single-use transfer on the graphics queue.
type VulkanTexture struct {
	renderer.RefCount

	context *VulkanContext

	image   *VulkanImage
	sampler vk.Sampler

	width  uint32
	height uint32
	format renderer.Format
}

func TextureCreate(context *VulkanContext, desc *renderer.Texture2DDescription) (*VulkanTexture, error) {
	format := vulkanFormat(desc.Format)
	if format == vk.FormatUndefined {
		err := fmt.Errorf("unsupported texture format %s", desc.Format)
		core.LogError(err.Error())
		return nil, err
	}

	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		desc.Width,
		desc.Height,
		format,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	texture := &VulkanTexture{
		context: context,
		image:   image,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
	}

	if len(desc.Pixels) > 0 {
		if err := texture.upload(desc.Pixels); err != nil {
			image.ImageDestroy(context)
			return nil, err
		}
	}

	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vulkanFilter(desc.MagFilter),
		MinFilter:        vulkanFilter(desc.MinFilter),
		AddressModeU:     vulkanAddressMode(desc.AddressU),
		AddressModeV:     vulkanAddressMode(desc.AddressV),
		AddressModeW:     vulkanAddressMode(desc.AddressW),
		AnisotropyEnable: vk.False,
		BorderColor:      vulkanBorderColor(desc.BorderColor),
		MipmapMode:       vk.SamplerMipmapModeLinear,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerCreateInfo, context.Allocator, &sampler); res != vk.Success {
		image.ImageDestroy(context)
		err := fmt.Errorf("failed to create sampler: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	texture.sampler = sampler

	texture.InitRefCount(desc.DebugName, func() {
		context.locks.SafeCall(ResourceManagement, func() error {
			if texture.sampler != vk.NullSampler {
				vk.DestroySampler(context.Device.LogicalDevice, texture.sampler, context.Allocator)
				texture.sampler = vk.NullSampler
			}
			texture.image.ImageDestroy(context)
			return nil
		})
	})
	return texture, nil
}

func (vt *VulkanTexture) Width() uint32  { return vt.width }
func (vt *VulkanTexture) Height() uint32 { return vt.height }

// upload copies pixel data into the image through a staging buffer,
// transitioning the image to shader-read layout when done.
func (vt *VulkanTexture) upload(pixels []byte) error {
	staging, err := bufferCreate(
		vt.context,
		vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.destroy(vt.context)

	var data unsafe.Pointer
	if res := vk.MapMemory(vt.context.Device.LogicalDevice, staging.Memory, 0, vk.DeviceSize(len(pixels)), 0, &data); res != vk.Success {
		err := fmt.Errorf("failed to map staging memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(data, pixels)
	vk.UnmapMemory(vt.context.Device.LogicalDevice, staging.Memory)

	commandBuffer, err := AllocateAndBeginSingleUse(vt.context, vt.context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	subresourceRange := vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}

	vk.CmdPipelineBarrier(commandBuffer.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil,
		1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       0,
			DstAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
			OldLayout:           vk.ImageLayoutUndefined,
			NewLayout:           vk.ImageLayoutTransferDstOptimal,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               vt.image.Handle,
			SubresourceRange:    subresourceRange,
		}})

	vk.CmdCopyBufferToImage(commandBuffer.Handle, staging.Handle, vt.image.Handle,
		vk.ImageLayoutTransferDstOptimal,
		1, []vk.BufferImageCopy{{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: vk.Extent3D{Width: vt.width, Height: vt.height, Depth: 1},
		}})

	vk.CmdPipelineBarrier(commandBuffer.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil,
		1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask:       vk.AccessFlags(vk.AccessShaderReadBit),
			OldLayout:           vk.ImageLayoutTransferDstOptimal,
			NewLayout:           vk.ImageLayoutShaderReadOnlyOptimal,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               vt.image.Handle,
			SubresourceRange:    subresourceRange,
		}})

	return vt.context.locks.SafeQueueCall(uint32(vt.context.Device.GraphicsQueueIndex), func() error {
		return commandBuffer.EndSingleUse(vt.context, vt.context.Device.GraphicsCommandPool, vt.context.Device.GraphicsQueue)
	})
}

// vulkanBorderColor picks the closest preset. Arbitrary border colors
// need VK_EXT_custom_border_color, which is not requested.
func vulkanBorderColor(color [4]float32) vk.BorderColor {
	if color[3] == 0 {
		return vk.BorderColorFloatTransparentBlack
	}
	if color[0] >= 0.5 && color[1] >= 0.5 && color[2] >= 0.5 {
		return vk.BorderColorFloatOpaqueWhite
	}
	return vk.BorderColorFloatOpaqueBlack
}

// VulkanBuffer is a buffer with its backing allocation. Only staging
// uploads use it for now.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
}

func bufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType == -1 {
		vk.DestroyBuffer(context.Device.LogicalDevice, handle, context.Allocator)
		err := fmt.Errorf("required memory type not found, buffer not valid")
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(context.Device.LogicalDevice, handle, context.Allocator)
		err := fmt.Errorf("failed to allocate buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		vk.FreeMemory(context.Device.LogicalDevice, memory, context.Allocator)
		vk.DestroyBuffer(context.Device.LogicalDevice, handle, context.Allocator)
		err := fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	return &VulkanBuffer{Handle: handle, Memory: memory}, nil
}

func (vb *VulkanBuffer) destroy(context *VulkanContext) {
	context.locks.SafeCall(BufferManagement, func() error {
		if vb.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
			vb.Memory = vk.NullDeviceMemory
		}
		if vb.Handle != vk.NullBuffer {
			vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
			vb.Handle = vk.NullBuffer
		}
		return nil
	})
}
