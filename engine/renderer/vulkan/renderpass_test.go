package vulkan

import (
	"strings"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

func TestBuildRenderPassLayout(t *testing.T) {
	t.Run("classifies attachments by format", func(t *testing.T) {
		formats := []renderer.Format{
			renderer.FormatBGRA8Unorm,
			renderer.FormatD24UnormS8Uint,
			renderer.FormatRGBA16Float,
		}
		ops := make([]renderer.AttachmentOps, len(formats))
		layout, err := buildRenderPassLayout(formats, ops)
		if err != nil {
			t.Fatalf("buildRenderPassLayout: %v", err)
		}
		if len(layout.attachments) != 3 {
			t.Fatalf("attachment descriptions: got %d, want 3", len(layout.attachments))
		}
		if len(layout.colorRefs) != 2 {
			t.Fatalf("color references: got %d, want 2", len(layout.colorRefs))
		}
		if layout.colorRefs[0].Attachment != 0 || layout.colorRefs[1].Attachment != 2 {
			t.Errorf("color references: got attachments %d and %d, want 0 and 2 in declaration order",
				layout.colorRefs[0].Attachment, layout.colorRefs[1].Attachment)
		}
		if layout.depthRef == nil {
			t.Fatal("depth reference: got none, want attachment 1")
		}
		if layout.depthRef.Attachment != 1 {
			t.Errorf("depth reference: got attachment %d, want 1", layout.depthRef.Attachment)
		}
	})

	t.Run("rejects a second depth attachment", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatD32Float, renderer.FormatD24UnormS8Uint}
		_, err := buildRenderPassLayout(formats, make([]renderer.AttachmentOps, 2))
		if err == nil {
			t.Fatal("buildRenderPassLayout: want error for two depth attachments")
		}
		if !strings.Contains(err.Error(), "depth") {
			t.Errorf("buildRenderPassLayout error: got %q, want mention of depth", err)
		}
	})

	t.Run("rejects behavior count mismatch", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatBGRA8Unorm}
		if _, err := buildRenderPassLayout(formats, make([]renderer.AttachmentOps, 2)); err == nil {
			t.Fatal("buildRenderPassLayout: want error when behaviors outnumber attachments")
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := buildRenderPassLayout([]renderer.Format{renderer.Format(250)}, make([]renderer.AttachmentOps, 1)); err == nil {
			t.Fatal("buildRenderPassLayout: want error for unmappable format")
		}
	})

	t.Run("resolves clear values at build time", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatBGRA8Unorm, renderer.FormatD32FloatS8Uint}
		ops := []renderer.AttachmentOps{
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve,
				Clear: renderer.ClearValue{Color: [4]float32{0.1, 0.2, 0.3, 1.0}}},
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpDiscard,
				Clear: renderer.ClearValue{Depth: 1.0, Stencil: 128}},
		}
		layout, err := buildRenderPassLayout(formats, ops)
		if err != nil {
			t.Fatalf("buildRenderPassLayout: %v", err)
		}
		var wantColor vk.ClearValue
		wantColor.SetColor([]float32{0.1, 0.2, 0.3, 1.0})
		if layout.clearValues[0] != wantColor {
			t.Error("color clear value was not resolved from the declared behavior")
		}
		var wantDepth vk.ClearValue
		wantDepth.SetDepthStencil(1.0, 128)
		if layout.clearValues[1] != wantDepth {
			t.Error("depth clear value was not resolved from the declared behavior")
		}
	})

	t.Run("lowers load and store ops", func(t *testing.T) {
		formats := []renderer.Format{
			renderer.FormatRGBA8Unorm,
			renderer.FormatRGBA8Unorm,
			renderer.FormatRGBA8Unorm,
		}
		ops := []renderer.AttachmentOps{
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve},
			{Load: renderer.LoadOpPreserve, Store: renderer.StoreOpDiscard},
			{Load: renderer.LoadOpDiscard, Store: renderer.StoreOpPreserve},
		}
		layout, err := buildRenderPassLayout(formats, ops)
		if err != nil {
			t.Fatalf("buildRenderPassLayout: %v", err)
		}
		if got := layout.attachments[0].LoadOp; got != vk.AttachmentLoadOpClear {
			t.Errorf("attachment 0 load op: got %d, want clear", got)
		}
		if got := layout.attachments[1].LoadOp; got != vk.AttachmentLoadOpLoad {
			t.Errorf("attachment 1 load op: got %d, want load", got)
		}
		if got := layout.attachments[1].StoreOp; got != vk.AttachmentStoreOpDontCare {
			t.Errorf("attachment 1 store op: got %d, want dont-care", got)
		}
		if got := layout.attachments[2].LoadOp; got != vk.AttachmentLoadOpDontCare {
			t.Errorf("attachment 2 load op: got %d, want dont-care", got)
		}
		// Preserved contents must already be in the attachment layout.
		if got := layout.attachments[1].InitialLayout; got != vk.ImageLayoutColorAttachmentOptimal {
			t.Errorf("attachment 1 initial layout: got %d, want color-attachment-optimal", got)
		}
		if got := layout.attachments[0].InitialLayout; got != vk.ImageLayoutUndefined {
			t.Errorf("attachment 0 initial layout: got %d, want undefined", got)
		}
	})

	t.Run("stencil ops engage only on stencil formats", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatBGRA8Unorm, renderer.FormatD24UnormS8Uint}
		ops := []renderer.AttachmentOps{
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve},
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve},
		}
		layout, err := buildRenderPassLayout(formats, ops)
		if err != nil {
			t.Fatalf("buildRenderPassLayout: %v", err)
		}
		if got := layout.attachments[0].StencilLoadOp; got != vk.AttachmentLoadOpDontCare {
			t.Errorf("color stencil load op: got %d, want dont-care", got)
		}
		if got := layout.attachments[1].StencilLoadOp; got != vk.AttachmentLoadOpClear {
			t.Errorf("depth-stencil stencil load op: got %d, want clear", got)
		}
		if got := layout.attachments[1].StencilStoreOp; got != vk.AttachmentStoreOpStore {
			t.Errorf("depth-stencil stencil store op: got %d, want store", got)
		}
	})
}
