package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

type GLTexture struct {
	renderer.RefCount

	id     uint32
	width  uint32
	height uint32
	format renderer.Format
}

func TextureCreate(desc *renderer.Texture2DDescription) (*GLTexture, error) {
	internal := glInternalFormat(desc.Format)
	if internal == 0 || desc.Format.IsDepthStencil() {
		return nil, fmt.Errorf("texture '%s': format %s is not samplable here", desc.DebugName, desc.Format)
	}

	tex := &GLTexture{
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
	}

	gl.GenTextures(1, &tex.id)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, internal, int32(desc.Width), int32(desc.Height))

	if len(desc.Pixels) > 0 {
		uploadFormat, uploadType := glUploadFormat(desc.Format)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(desc.Width), int32(desc.Height),
			uploadFormat, uploadType, gl.Ptr(desc.Pixels))
	}

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glAddressMode(desc.AddressU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glAddressMode(desc.AddressV))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_R, glAddressMode(desc.AddressW))
	border := desc.BorderColor
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.BindTexture(gl.TEXTURE_2D, 0)

	tex.InitRefCount(desc.DebugName, func() {
		gl.DeleteTextures(1, &tex.id)
		tex.id = 0
	})
	return tex, nil
}

func (t *GLTexture) Width() uint32  { return t.width }
func (t *GLTexture) Height() uint32 { return t.height }
