package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// VulkanFence wraps a vk.Fence together with its last known signal state.
type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("failed to create fence: %s", VulkanResultString(res))
	}
	fence.Handle = handle

	return fence, nil
}

func (f *VulkanFence) Destroy(context *VulkanContext) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, f.Handle, context.Allocator)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

// Wait blocks until the fence signals or timeoutNs elapses. A fence that
// already signaled returns immediately without calling into the driver.
func (f *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) error {
	if f.IsSignaled {
		return nil
	}

	fences := []vk.Fence{f.Handle}
	res := vk.WaitForFences(context.Device.LogicalDevice, 1, fences, vk.True, timeoutNs)
	switch res {
	case vk.Success:
		f.IsSignaled = true
		return nil
	case vk.Timeout:
		return fmt.Errorf("fence wait timed out")
	default:
		return fmt.Errorf("fence wait failed: %s", VulkanResultString(res))
	}
}

func (f *VulkanFence) Reset(context *VulkanContext) error {
	if !f.IsSignaled {
		return nil
	}

	fences := []vk.Fence{f.Handle}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, fences); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("fence reset failed: %s", VulkanResultString(res))
	}
	f.IsSignaled = false

	return nil
}
