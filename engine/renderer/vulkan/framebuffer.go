package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// VulkanFramebuffer is an offscreen render target: one device-local
// image per declared attachment. The native framebuffer object is
// built by the render pass that targets it, since the two must be
// created against each other.
type VulkanFramebuffer struct {
	renderer.RefCount

	context *VulkanContext

	width   uint32
	height  uint32
	formats []renderer.Format

	attachments []*VulkanImage
}

func FramebufferCreate(context *VulkanContext, desc *renderer.FramebufferDescription) (*VulkanFramebuffer, error) {
	fb := &VulkanFramebuffer{
		context: context,
		width:   desc.Width,
		height:  desc.Height,
	}

	for _, attachment := range desc.Attachments {
		format := vulkanFormat(attachment.Format)
		if format == vk.FormatUndefined {
			fb.destroyAttachments()
			err := fmt.Errorf("unsupported attachment format %s", attachment.Format)
			core.LogError(err.Error())
			return nil, err
		}

		usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit)
		if attachment.Format.IsDepthStencil() {
			usage = vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		}

		image, err := ImageCreate(
			context,
			vk.ImageType2d,
			desc.Width,
			desc.Height,
			format,
			vk.ImageTilingOptimal,
			usage,
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			true,
			vulkanAspect(attachment.Format))
		if err != nil {
			fb.destroyAttachments()
			return nil, err
		}
		fb.attachments = append(fb.attachments, image)
		fb.formats = append(fb.formats, attachment.Format)
	}

	fb.InitRefCount(desc.DebugName, func() {
		context.locks.SafeCall(ResourceManagement, func() error {
			fb.destroyAttachments()
			return nil
		})
	})
	return fb, nil
}

func (vfb *VulkanFramebuffer) Width() uint32  { return vfb.width }
func (vfb *VulkanFramebuffer) Height() uint32 { return vfb.height }

// AttachmentFormats returns the formats in declaration order. The
// slice is a copy; the declared set never changes after creation.
func (vfb *VulkanFramebuffer) AttachmentFormats() []renderer.Format {
	return append([]renderer.Format(nil), vfb.formats...)
}

func (vfb *VulkanFramebuffer) attachmentViews() []vk.ImageView {
	views := make([]vk.ImageView, len(vfb.attachments))
	for i, attachment := range vfb.attachments {
		views[i] = attachment.View
	}
	return views
}

func (vfb *VulkanFramebuffer) destroyAttachments() {
	for _, attachment := range vfb.attachments {
		attachment.ImageDestroy(vfb.context)
	}
	vfb.attachments = nil
}
