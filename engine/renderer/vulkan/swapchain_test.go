package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	t.Run("prefers bgra8 in srgb", func(t *testing.T) {
		formats := []vk.SurfaceFormat{
			{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		}
		got := chooseSurfaceFormat(formats)
		if got.Format != vk.FormatB8g8r8a8Unorm || got.ColorSpace != vk.ColorSpaceSrgbNonlinear {
			t.Errorf("chooseSurfaceFormat: got %d/%d, want bgra8 in srgb", got.Format, got.ColorSpace)
		}
	})

	t.Run("falls back to first advertised", func(t *testing.T) {
		formats := []vk.SurfaceFormat{
			{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		}
		if got := chooseSurfaceFormat(formats); got.Format != formats[0].Format {
			t.Errorf("chooseSurfaceFormat: got %d, want first advertised %d", got.Format, formats[0].Format)
		}
	})
}

func TestChoosePresentMode(t *testing.T) {
	t.Run("prefers mailbox", func(t *testing.T) {
		modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
		if got := choosePresentMode(modes); got != vk.PresentModeMailbox {
			t.Errorf("choosePresentMode: got %d, want mailbox", got)
		}
	})

	t.Run("falls back to fifo", func(t *testing.T) {
		modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
		if got := choosePresentMode(modes); got != vk.PresentModeFifo {
			t.Errorf("choosePresentMode: got %d, want fifo", got)
		}
	})
}

func TestChooseExtent(t *testing.T) {
	t.Run("fixed current extent is authoritative", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{
			CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		}
		got := chooseExtent(caps, 1024, 768)
		if got.Width != 800 || got.Height != 600 {
			t.Errorf("chooseExtent: got %dx%d, want surface extent 800x600", got.Width, got.Height)
		}
	})

	t.Run("sentinel extent defers to window size", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{
			CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		}
		got := chooseExtent(caps, 1024, 768)
		if got.Width != 1024 || got.Height != 768 {
			t.Errorf("chooseExtent: got %dx%d, want window size 1024x768", got.Width, got.Height)
		}
	})

	t.Run("window size is clamped to surface limits", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{
			CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent: vk.Extent2D{Width: 8, Height: 8},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		}
		got := chooseExtent(caps, 5000, 2)
		if got.Width != 4096 || got.Height != 8 {
			t.Errorf("chooseExtent: got %dx%d, want clamped 4096x8", got.Width, got.Height)
		}
	})
}

func TestChooseImageCount(t *testing.T) {
	t.Run("one above the minimum", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}
		if got := chooseImageCount(caps); got != 3 {
			t.Errorf("chooseImageCount: got %d, want 3", got)
		}
	})

	t.Run("capped by the maximum", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
		if got := chooseImageCount(caps); got != 3 {
			t.Errorf("chooseImageCount: got %d, want 3", got)
		}
	})

	t.Run("zero maximum means uncapped", func(t *testing.T) {
		caps := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
		if got := chooseImageCount(caps); got != 3 {
			t.Errorf("chooseImageCount: got %d, want 3", got)
		}
	})
}

func TestChooseSharingMode(t *testing.T) {
	t.Run("single family owns exclusively", func(t *testing.T) {
		mode, indices := chooseSharingMode(1, 1)
		if mode != vk.SharingModeExclusive {
			t.Errorf("chooseSharingMode: got %d, want exclusive", mode)
		}
		if indices != nil {
			t.Errorf("chooseSharingMode: got indices %v, want none", indices)
		}
	})

	t.Run("split families share concurrently", func(t *testing.T) {
		mode, indices := chooseSharingMode(0, 2)
		if mode != vk.SharingModeConcurrent {
			t.Errorf("chooseSharingMode: got %d, want concurrent", mode)
		}
		if len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
			t.Errorf("chooseSharingMode: got indices %v, want [0 2]", indices)
		}
	})
}
