package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// GLFramebuffer is a framebuffer object with one immutable-storage
// texture per attachment. Textures are attached in declaration order:
// color attachments take consecutive color slots, the depth/stencil
// attachment takes its dedicated slot.
type GLFramebuffer struct {
	renderer.RefCount

	fbo      uint32
	textures []uint32
	width    uint32
	height   uint32
	formats  []renderer.Format
}

func FramebufferCreate(desc *renderer.FramebufferDescription) (*GLFramebuffer, error) {
	fb := &GLFramebuffer{
		width:   desc.Width,
		height:  desc.Height,
		formats: make([]renderer.Format, len(desc.Attachments)),
	}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	colorIndex := 0
	for i, attachment := range desc.Attachments {
		internal := glInternalFormat(attachment.Format)
		if internal == 0 {
			fb.releaseObjects()
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return nil, fmt.Errorf("framebuffer '%s': unsupported attachment format %s", desc.DebugName, attachment.Format)
		}

		var tex uint32
		gl.GenTextures(1, &tex)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexStorage2D(gl.TEXTURE_2D, 1, internal, int32(desc.Width), int32(desc.Height))
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		fb.textures = append(fb.textures, tex)
		fb.formats[i] = attachment.Format

		slot := glAttachmentSlot(attachment.Format, colorIndex)
		if !attachment.Format.IsDepthStencil() {
			colorIndex++
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, slot, gl.TEXTURE_2D, tex, 0)
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		fb.releaseObjects()
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return nil, fmt.Errorf("framebuffer '%s' is incomplete: status 0x%x", desc.DebugName, status)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	fb.InitRefCount(desc.DebugName, fb.releaseObjects)
	return fb, nil
}

func (fb *GLFramebuffer) Width() uint32  { return fb.width }
func (fb *GLFramebuffer) Height() uint32 { return fb.height }

func (fb *GLFramebuffer) AttachmentFormats() []renderer.Format {
	out := make([]renderer.Format, len(fb.formats))
	copy(out, fb.formats)
	return out
}

func (fb *GLFramebuffer) releaseObjects() {
	for _, tex := range fb.textures {
		t := tex
		gl.DeleteTextures(1, &t)
	}
	fb.textures = nil
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
}
