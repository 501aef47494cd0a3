package opengl

import (
	"strings"
	"testing"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

func TestBuildBindingPlan(t *testing.T) {
	t.Run("one color one depth, both cleared", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatBGRA8Unorm, renderer.FormatD24UnormS8Uint}
		ops := []renderer.AttachmentOps{
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve,
				Clear: renderer.ClearValue{Color: [4]float32{0.2, 0.2, 0.2, 1.0}}},
			{Load: renderer.LoadOpClear, Store: renderer.StoreOpPreserve,
				Clear: renderer.ClearValue{Depth: 1.0, Stencil: 0}},
		}
		plan, err := buildBindingPlan(formats, ops)
		if err != nil {
			t.Fatalf("buildBindingPlan: %v", err)
		}
		if len(plan.colors) != 1 {
			t.Fatalf("color targets: got %d, want exactly 1", len(plan.colors))
		}
		if !plan.colors[0].clear {
			t.Error("color target: want exactly one planned color clear")
		}
		if plan.colors[0].clearColor != [4]float32{0.2, 0.2, 0.2, 1.0} {
			t.Errorf("color clear value: got %v", plan.colors[0].clearColor)
		}
		if plan.depth == nil {
			t.Fatal("depth target: got none, want exactly 1")
		}
		if !plan.depth.clear {
			t.Error("depth target: want exactly one planned depth/stencil clear")
		}
		if !plan.depth.hasStencil {
			t.Error("depth target: d24s8 should carry a stencil aspect")
		}
		if plan.depth.clearDepth != 1.0 || plan.depth.clearStencil != 0 {
			t.Errorf("depth clear values: got %v/%v, want 1/0", plan.depth.clearDepth, plan.depth.clearStencil)
		}
	})

	t.Run("colors keep declaration order", func(t *testing.T) {
		formats := []renderer.Format{
			renderer.FormatRGBA8Unorm,
			renderer.FormatD32Float,
			renderer.FormatRGBA16Float,
		}
		plan, err := buildBindingPlan(formats, make([]renderer.AttachmentOps, 3))
		if err != nil {
			t.Fatalf("buildBindingPlan: %v", err)
		}
		if len(plan.colors) != 2 {
			t.Fatalf("color targets: got %d, want 2", len(plan.colors))
		}
		if plan.colors[0].attachment != 0 || plan.colors[1].attachment != 2 {
			t.Errorf("color targets: got attachments %d and %d, want 0 and 2",
				plan.colors[0].attachment, plan.colors[1].attachment)
		}
		if plan.depth == nil || plan.depth.attachment != 1 {
			t.Error("depth target: want attachment 1")
		}
		if plan.depth != nil && plan.depth.hasStencil {
			t.Error("depth target: d32 has no stencil aspect")
		}
	})

	t.Run("preserve load plans no clear", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatRGBA8Unorm, renderer.FormatD32Float}
		ops := []renderer.AttachmentOps{
			{Load: renderer.LoadOpPreserve, Store: renderer.StoreOpPreserve},
			{Load: renderer.LoadOpDiscard, Store: renderer.StoreOpDiscard},
		}
		plan, err := buildBindingPlan(formats, ops)
		if err != nil {
			t.Fatalf("buildBindingPlan: %v", err)
		}
		if plan.colors[0].clear {
			t.Error("preserve-loaded color target should not plan a clear")
		}
		if plan.depth.clear {
			t.Error("discard-loaded depth target should not plan a clear")
		}
	})

	t.Run("depth-only pass has no color targets", func(t *testing.T) {
		plan, err := buildBindingPlan([]renderer.Format{renderer.FormatD32Float}, make([]renderer.AttachmentOps, 1))
		if err != nil {
			t.Fatalf("buildBindingPlan: %v", err)
		}
		if len(plan.colors) != 0 {
			t.Errorf("color targets: got %d, want none", len(plan.colors))
		}
		if plan.depth == nil {
			t.Error("depth target: want one")
		}
	})

	t.Run("rejects a second depth attachment", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatD32Float, renderer.FormatD32FloatS8Uint}
		_, err := buildBindingPlan(formats, make([]renderer.AttachmentOps, 2))
		if err == nil {
			t.Fatal("buildBindingPlan: want error for two depth attachments")
		}
		if !strings.Contains(err.Error(), "depth") {
			t.Errorf("buildBindingPlan error: got %q, want mention of depth", err)
		}
	})

	t.Run("rejects behavior count mismatch", func(t *testing.T) {
		formats := []renderer.Format{renderer.FormatRGBA8Unorm}
		if _, err := buildBindingPlan(formats, make([]renderer.AttachmentOps, 2)); err == nil {
			t.Fatal("buildBindingPlan: want error when behaviors outnumber attachments")
		}
	})
}
