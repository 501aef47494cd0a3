package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// VulkanRenderPass pairs a native render pass with the native
// framebuffer built against its target. Begin and End bracket a
// single-use submission on the graphics queue, so clear behaviors
// execute even when no draws are recorded.
type VulkanRenderPass struct {
	renderer.RefCount

	context *VulkanContext
	target  *VulkanFramebuffer

	Handle      vk.RenderPass
	Framebuffer vk.Framebuffer

	// clearValues are resolved once at construction from the stored
	// attachment behaviors, indexed by declaration order.
	clearValues []vk.ClearValue

	recording *VulkanCommandBuffer
}

// renderPassLayout is the native lowering of a target's attachment
// list and the per-attachment behaviors declared against it.
type renderPassLayout struct {
	attachments []vk.AttachmentDescription
	colorRefs   []vk.AttachmentReference
	depthRef    *vk.AttachmentReference
	clearValues []vk.ClearValue
}

// buildRenderPassLayout lowers the declared behaviors onto native
// attachment descriptions. Attachments keep their declaration order;
// the references classify each one into the color list or the single
// depth slot by its format alone. Clear values are resolved here and
// nowhere else.
func buildRenderPassLayout(formats []renderer.Format, ops []renderer.AttachmentOps) (renderPassLayout, error) {
	var layout renderPassLayout
	if len(ops) != len(formats) {
		return layout, fmt.Errorf("attachment behavior count %d does not match target attachment count %d", len(ops), len(formats))
	}

	layout.attachments = make([]vk.AttachmentDescription, len(formats))
	layout.clearValues = make([]vk.ClearValue, len(formats))

	for i, format := range formats {
		op := ops[i]
		native := vulkanFormat(format)
		if native == vk.FormatUndefined {
			return layout, fmt.Errorf("unsupported attachment format %s", format)
		}

		loadOp := vulkanLoadOp(op.Load)
		storeOp := vulkanStoreOp(op.Store)
		stencilLoadOp := vk.AttachmentLoadOpDontCare
		stencilStoreOp := vk.AttachmentStoreOpDontCare
		if format.HasStencil() {
			stencilLoadOp = loadOp
			stencilStoreOp = storeOp
		}

		if format.IsDepthStencil() {
			if layout.depthRef != nil {
				return layout, fmt.Errorf("target declares more than one depth attachment")
			}
			initialLayout := vk.ImageLayoutUndefined
			if op.Load == renderer.LoadOpPreserve {
				initialLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
			}
			layout.attachments[i] = vk.AttachmentDescription{
				Format:         native,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         loadOp,
				StoreOp:        storeOp,
				StencilLoadOp:  stencilLoadOp,
				StencilStoreOp: stencilStoreOp,
				InitialLayout:  initialLayout,
				FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
			layout.depthRef = &vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
			layout.clearValues[i].SetDepthStencil(op.Clear.Depth, op.Clear.Stencil)
		} else {
			initialLayout := vk.ImageLayoutUndefined
			if op.Load == renderer.LoadOpPreserve {
				initialLayout = vk.ImageLayoutColorAttachmentOptimal
			}
			layout.attachments[i] = vk.AttachmentDescription{
				Format:         native,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         loadOp,
				StoreOp:        storeOp,
				StencilLoadOp:  stencilLoadOp,
				StencilStoreOp: stencilStoreOp,
				InitialLayout:  initialLayout,
				FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
			}
			layout.colorRefs = append(layout.colorRefs, vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
			color := op.Clear.Color
			layout.clearValues[i].SetColor(color[:])
		}
	}

	return layout, nil
}

func RenderPassCreate(context *VulkanContext, desc *renderer.RenderPassDescription, target *VulkanFramebuffer) (*VulkanRenderPass, error) {
	layout, err := buildRenderPassLayout(target.AttachmentFormats(), desc.Attachments)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(layout.colorRefs)),
		PColorAttachments:    layout.colorRefs,
	}
	if layout.depthRef != nil {
		subpass.PDepthStencilAttachment = layout.depthRef
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(layout.attachments)),
		PAttachments:    layout.attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPassHandle vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &renderPassHandle); res != vk.Success {
		err := fmt.Errorf("failed to create render pass: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPassHandle,
		AttachmentCount: uint32(len(target.attachments)),
		PAttachments:    target.attachmentViews(),
		Width:           target.Width(),
		Height:          target.Height(),
		Layers:          1,
	}
	var framebufferHandle vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &framebufferHandle); res != vk.Success {
		vk.DestroyRenderPass(context.Device.LogicalDevice, renderPassHandle, context.Allocator)
		err := fmt.Errorf("failed to create framebuffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	pass := &VulkanRenderPass{
		context:     context,
		target:      target,
		Handle:      renderPassHandle,
		Framebuffer: framebufferHandle,
		clearValues: layout.clearValues,
	}

	// The pass keeps its target alive for its whole lifetime.
	target.Retain()
	pass.InitRefCount(desc.DebugName, func() {
		context.locks.SafeCall(RenderpassManagement, func() error {
			if pass.Framebuffer != vk.NullFramebuffer {
				vk.DestroyFramebuffer(context.Device.LogicalDevice, pass.Framebuffer, context.Allocator)
				pass.Framebuffer = vk.NullFramebuffer
			}
			if pass.Handle != vk.NullRenderPass {
				vk.DestroyRenderPass(context.Device.LogicalDevice, pass.Handle, context.Allocator)
				pass.Handle = vk.NullRenderPass
			}
			return nil
		})
		target.Release()
	})
	return pass, nil
}

// Begin starts recording the pass into a fresh single-use command
// buffer. Attachments with a clear behavior are cleared by the native
// pass begin using the values resolved at construction.
func (vr *VulkanRenderPass) Begin() error {
	if vr.recording != nil {
		err := fmt.Errorf("render pass '%s' begun twice without End", vr.DebugName())
		core.LogError(err.Error())
		return err
	}

	commandBuffer, err := AllocateAndBeginSingleUse(vr.context, vr.context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: vr.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: vr.target.Width(), Height: vr.target.Height()},
		},
		ClearValueCount: uint32(len(vr.clearValues)),
		PClearValues:    vr.clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	vr.recording = commandBuffer
	return nil
}

// End closes the pass and submits the recording to the graphics
// queue, waiting for it to drain.
func (vr *VulkanRenderPass) End() error {
	if vr.recording == nil {
		err := fmt.Errorf("render pass '%s' End called before Begin", vr.DebugName())
		core.LogError(err.Error())
		return err
	}

	vk.CmdEndRenderPass(vr.recording.Handle)

	commandBuffer := vr.recording
	vr.recording = nil
	return vr.context.locks.SafeQueueCall(uint32(vr.context.Device.GraphicsQueueIndex), func() error {
		return commandBuffer.EndSingleUse(vr.context, vr.context.Device.GraphicsCommandPool, vr.context.Device.GraphicsQueue)
	})
}
