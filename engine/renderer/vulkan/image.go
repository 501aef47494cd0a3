package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

// ImageCreate creates an image, backs it with freshly allocated device
// memory and optionally attaches a view. Used for depth attachments,
// offscreen render targets and sampled textures.
func ImageCreate(
	context *VulkanContext,
	imageType vk.ImageType,
	width uint32,
	height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	memoryFlags vk.MemoryPropertyFlags,
	createView bool,
	viewAspect vk.ImageAspectFlags) (*VulkanImage, error) {

	image := &VulkanImage{
		Width:  width,
		Height: height,
	}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: imageType,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1, // TODO: support configurable depth for 3D images
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create image: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	image.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType == -1 {
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		err := fmt.Errorf("required memory type not found, image not valid")
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
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		err := fmt.Errorf("failed to allocate image memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		err := fmt.Errorf("failed to bind image memory: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	if createView {
		if err := image.ViewCreate(context, format, viewAspect); err != nil {
			image.ImageDestroy(context)
			return nil, err
		}
	}

	return image, nil
}

func (vi *VulkanImage) ViewCreate(context *VulkanContext, format vk.Format, aspectFlags vk.ImageAspectFlags) error {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		err := fmt.Errorf("failed to create image view: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	vi.View = view
	return nil
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	context.locks.SafeCall(ImageManagement, func() error {
		if vi.View != vk.NullImageView {
			vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
			vi.View = vk.NullImageView
		}
		if vi.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
			vi.Memory = vk.NullDeviceMemory
		}
		if vi.Handle != vk.NullImage {
			vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
			vi.Handle = vk.NullImage
		}
		return nil
	})
}
