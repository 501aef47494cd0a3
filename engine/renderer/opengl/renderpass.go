package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// GLRenderPass binds its target framebuffer for drawing. GL has no
// native render-pass object; the pass is a precomputed binding plan
// executed by Begin and undone by End.
type GLRenderPass struct {
	renderer.RefCount

	target *GLFramebuffer
	plan   bindingPlan
	bound  bool
}

// colorBinding is one color attachment in draw-buffer order, with its
// clear action resolved from the declared behavior.
type colorBinding struct {
	attachment int
	clear      bool
	clearColor [4]float32
}

type depthBinding struct {
	attachment   int
	hasStencil   bool
	clear        bool
	clearDepth   float32
	clearStencil int32
}

// bindingPlan is the pass lowered onto GL binding state: the ordered
// color target list and the at-most-one depth/stencil target.
type bindingPlan struct {
	colors []colorBinding
	depth  *depthBinding
}

// buildBindingPlan classifies each attachment by its format into the
// color list or the single depth slot, resolving clear values as it
// goes. Positions in ops describe the same positions in formats.
func buildBindingPlan(formats []renderer.Format, ops []renderer.AttachmentOps) (bindingPlan, error) {
	var plan bindingPlan
	if len(ops) != len(formats) {
		return plan, fmt.Errorf("attachment behavior count %d does not match target attachment count %d", len(ops), len(formats))
	}

	for i, format := range formats {
		op := ops[i]
		if format.IsDepthStencil() {
			if plan.depth != nil {
				return plan, fmt.Errorf("target declares more than one depth attachment")
			}
			plan.depth = &depthBinding{
				attachment:   i,
				hasStencil:   format.HasStencil(),
				clear:        op.Load == renderer.LoadOpClear,
				clearDepth:   op.Clear.Depth,
				clearStencil: int32(op.Clear.Stencil),
			}
			continue
		}
		plan.colors = append(plan.colors, colorBinding{
			attachment: i,
			clear:      op.Load == renderer.LoadOpClear,
			clearColor: op.Clear.Color,
		})
	}

	return plan, nil
}

func RenderPassCreate(desc *renderer.RenderPassDescription, target *GLFramebuffer) (*GLRenderPass, error) {
	plan, err := buildBindingPlan(target.AttachmentFormats(), desc.Attachments)
	if err != nil {
		return nil, fmt.Errorf("render pass '%s': %w", desc.DebugName, err)
	}

	pass := &GLRenderPass{
		target: target,
		plan:   plan,
	}

	target.Retain()
	pass.InitRefCount(desc.DebugName, func() {
		target.Release()
	})
	return pass, nil
}

// Begin binds the target framebuffer, routes the ordered color list
// onto the draw buffers and executes the planned clears.
func (rp *GLRenderPass) Begin() error {
	if rp.bound {
		return fmt.Errorf("render pass '%s' begun twice without End", rp.DebugName())
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, rp.target.fbo)

	if len(rp.plan.colors) > 0 {
		drawBuffers := make([]uint32, len(rp.plan.colors))
		for i := range drawBuffers {
			drawBuffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		}
		gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
	} else {
		// Depth-only pass.
		gl.DrawBuffer(gl.NONE)
	}

	for i, color := range rp.plan.colors {
		if !color.clear {
			continue
		}
		value := color.clearColor
		gl.ClearBufferfv(gl.COLOR, int32(i), &value[0])
	}
	if depth := rp.plan.depth; depth != nil && depth.clear {
		if depth.hasStencil {
			gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, depth.clearDepth, depth.clearStencil)
		} else {
			value := depth.clearDepth
			gl.ClearBufferfv(gl.DEPTH, 0, &value)
		}
	}

	rp.bound = true
	return nil
}

// End restores the default framebuffer so later operations cannot
// accidentally target stale attachments.
func (rp *GLRenderPass) End() error {
	if !rp.bound {
		return fmt.Errorf("render pass '%s' End called before Begin", rp.DebugName())
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	rp.bound = false
	return nil
}
