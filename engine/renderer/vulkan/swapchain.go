package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	amath "github.com/spaghettifunk/basalto/engine/math"
)

// VulkanSwapchain owns one surface and the presentable image set
// negotiated against it. Ownership is exclusive: the holder destroys
// it explicitly, there is no reference count.
type VulkanSwapchain struct {
	context *VulkanContext

	Surface vk.Surface

	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView

	// DepthAttachment is nil when the device reported no usable depth
	// format.
	DepthAttachment *VulkanImage

	imageCount uint32
}

type swapchainSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func querySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (swapchainSupport, error) {
	var support swapchainSupport

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &support.capabilities); res != vk.Success {
		err := fmt.Errorf("failed to get surface capabilities: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return support, err
	}
	support.capabilities.Deref()
	support.capabilities.CurrentExtent.Deref()
	support.capabilities.MinImageExtent.Deref()
	support.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return support, err
	}
	if formatCount != 0 {
		support.formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, support.formats); res != vk.Success {
			err := fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return support, err
		}
		for i := range support.formats {
			support.formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return support, err
	}
	if presentModeCount != 0 {
		support.presentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, support.presentModes); res != vk.Success {
			err := fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return support, err
		}
	}

	return support, nil
}

// chooseSurfaceFormat prefers 32-bit BGRA in the sRGB color space and
// falls back to whatever the surface advertises first.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox and falls back to FIFO, the one
// mode every driver must support.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent resolves the swap extent. A current extent with all
// bits set means the surface takes its size from the swapchain, in
// which case the window's pixel size is used. Either way the result is
// clamped to the surface limits.
func chooseExtent(capabilities vk.SurfaceCapabilities, windowWidth, windowHeight uint32) vk.Extent2D {
	extent := vk.Extent2D{
		Width:  windowWidth,
		Height: windowHeight,
	}
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	extent.Width = amath.Clamp(extent.Width, min.Width, max.Width)
	extent.Height = amath.Clamp(extent.Height, min.Height, max.Height)
	return extent
}

// chooseImageCount asks for one image above the driver minimum so one
// frame can be recorded while another presents. A zero maximum means
// the driver imposes no cap.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// chooseSharingMode picks exclusive ownership when a single family
// both renders and presents, concurrent sharing across the two
// families otherwise.
func chooseSharingMode(graphicsIndex, presentIndex int32) (vk.SharingMode, []uint32) {
	if graphicsIndex == presentIndex {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, []uint32{uint32(graphicsIndex), uint32(presentIndex)}
}

// SwapchainCreate negotiates a swapchain against the surface. The
// surface is adopted: destroying the swapchain destroys it.
func SwapchainCreate(context *VulkanContext, surface vk.Surface, width, height uint32) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{
		context: context,
		Surface: surface,
	}
	err := context.locks.SafeCall(SwapchainManagement, func() error {
		state, err := buildSwapchain(context, surface, width, height, vk.NullSwapchain)
		if err != nil {
			return err
		}
		swapchain.install(state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	core.LogInfo("Swapchain created successfully.")
	return swapchain, nil
}

// Resize re-negotiates the image set for the new pixel size. The old
// swapchain is handed to the driver as a reuse hint and stays alive
// until the new one exists; on failure the current image set is left
// untouched.
func (vs *VulkanSwapchain) Resize(width, height uint32) error {
	return vs.context.locks.SafeCall(SwapchainManagement, func() error {
		state, err := buildSwapchain(vs.context, vs.Surface, width, height, vs.Handle)
		if err != nil {
			return err
		}
		vk.DeviceWaitIdle(vs.context.Device.LogicalDevice)
		vs.releaseImages()
		vs.install(state)
		return nil
	})
}

func (vs *VulkanSwapchain) Destroy() {
	vs.context.locks.SafeCall(SwapchainManagement, func() error {
		vk.DeviceWaitIdle(vs.context.Device.LogicalDevice)
		vs.releaseImages()
		if vs.Surface != vk.NullSurface {
			vk.DestroySurface(vs.context.Instance, vs.Surface, vs.context.Allocator)
			vs.Surface = vk.NullSurface
		}
		return nil
	})
}

func (vs *VulkanSwapchain) ImageCount() int {
	return int(vs.imageCount)
}

// swapchainState is one negotiated image set. Kept separate from the
// swapchain so re-negotiation can hold the old and the new at once.
type swapchainState struct {
	handle          vk.Swapchain
	imageFormat     vk.SurfaceFormat
	extent          vk.Extent2D
	images          []vk.Image
	views           []vk.ImageView
	depthAttachment *VulkanImage
	imageCount      uint32
}

func (vs *VulkanSwapchain) install(state *swapchainState) {
	vs.Handle = state.handle
	vs.ImageFormat = state.imageFormat
	vs.Extent = state.extent
	vs.Images = state.images
	vs.Views = state.views
	vs.DepthAttachment = state.depthAttachment
	vs.imageCount = state.imageCount
}

// releaseImages destroys the views, the depth attachment and the
// swapchain handle. Only the views are destroyed per image; the images
// themselves are owned by the swapchain.
func (vs *VulkanSwapchain) releaseImages() {
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.ImageDestroy(vs.context)
		vs.DepthAttachment = nil
	}
	for i := range vs.Views {
		vk.DestroyImageView(vs.context.Device.LogicalDevice, vs.Views[i], vs.context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(vs.context.Device.LogicalDevice, vs.Handle, vs.context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
	vs.imageCount = 0
}

func buildSwapchain(context *VulkanContext, surface vk.Surface, width, height uint32, oldSwapchain vk.Swapchain) (*swapchainState, error) {
	support, err := querySwapchainSupport(context.Device.PhysicalDevice, surface)
	if err != nil {
		return nil, err
	}
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		err := fmt.Errorf("surface advertises no formats or present modes")
		core.LogError(err.Error())
		return nil, err
	}

	state := &swapchainState{
		imageFormat: chooseSurfaceFormat(support.formats),
		extent:      chooseExtent(support.capabilities, width, height),
	}
	presentMode := choosePresentMode(support.presentModes)
	imageCount := chooseImageCount(support.capabilities)
	sharingMode, queueFamilyIndices := chooseSharingMode(
		context.Device.GraphicsQueueIndex,
		context.Device.PresentQueueIndex)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surface,
		MinImageCount:         imageCount,
		ImageFormat:           state.imageFormat.Format,
		ImageColorSpace:       state.imageFormat.ColorSpace,
		ImageExtent:           state.extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(queueFamilyIndices)),
		PQueueFamilyIndices:   queueFamilyIndices,
		PreTransform:          support.capabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           presentMode,
		Clipped:               vk.True,
		OldSwapchain:          oldSwapchain,
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := fmt.Errorf("failed to create swapchain: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	state.handle = swapchainHandle

	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, state.handle, &state.imageCount, nil); res != vk.Success {
		vk.DestroySwapchain(context.Device.LogicalDevice, state.handle, context.Allocator)
		err := fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	state.images = make([]vk.Image, state.imageCount)
	state.views = make([]vk.ImageView, state.imageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, state.handle, &state.imageCount, state.images); res != vk.Success {
		vk.DestroySwapchain(context.Device.LogicalDevice, state.handle, context.Allocator)
		err := fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	for i := 0; i < int(state.imageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    state.images[i],
			ViewType: vk.ImageViewType2d,
			Format:   state.imageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &state.views[i]); res != vk.Success {
			for j := 0; j < i; j++ {
				vk.DestroyImageView(context.Device.LogicalDevice, state.views[j], context.Allocator)
			}
			vk.DestroySwapchain(context.Device.LogicalDevice, state.handle, context.Allocator)
			err := fmt.Errorf("failed to create swapchain image view: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
	}

	if context.Device.DepthFormat != vk.FormatUndefined {
		depthAttachment, err := ImageCreate(
			context,
			vk.ImageType2d,
			state.extent.Width,
			state.extent.Height,
			context.Device.DepthFormat,
			vk.ImageTilingOptimal,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			true,
			vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			for i := range state.views {
				vk.DestroyImageView(context.Device.LogicalDevice, state.views[i], context.Allocator)
			}
			vk.DestroySwapchain(context.Device.LogicalDevice, state.handle, context.Allocator)
			return nil, err
		}
		state.depthAttachment = depthAttachment
	}

	return state, nil
}
