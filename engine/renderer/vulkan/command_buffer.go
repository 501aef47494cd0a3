package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
)

type VulkanCommandBufferState int

const (
	commandBufferStateNotAllocated VulkanCommandBufferState = iota
	commandBufferStateReady
	commandBufferStateRecording
	commandBufferStateRecordingEnded
	commandBufferStateSubmitted
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	commandBuffer := &VulkanCommandBuffer{
		State: commandBufferStateNotAllocated,
	}

	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, buffers); res != vk.Success {
		err := fmt.Errorf("failed to allocate command buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	commandBuffer.Handle = buffers[0]
	commandBuffer.State = commandBufferStateReady

	return commandBuffer, nil
}

func (v *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
	v.Handle = nil
	v.State = commandBufferStateNotAllocated
}

func (v *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin command buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	v.State = commandBufferStateRecording

	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		err := fmt.Errorf("failed to end command buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	v.State = commandBufferStateRecordingEnded
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = commandBufferStateSubmitted
}

func (v *VulkanCommandBuffer) Reset() {
	v.State = commandBufferStateReady
}

// AllocateAndBeginSingleUse allocates a primary command buffer from
// the pool and starts recording it for one-time submission.
func AllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb, err := NewVulkanCommandBuffer(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		cb.Free(context, pool)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse ends recording, submits to the queue, waits on a fence
// for the work to finish and frees the command buffer. Callers serialize
// access to the queue through the lock pool.
func (v *VulkanCommandBuffer) EndSingleUse(context *VulkanContext, pool vk.CommandPool, queue vk.Queue) error {
	if err := v.End(); err != nil {
		return err
	}

	fence, err := NewFence(context, false)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	defer fence.Destroy(context)

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}

	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
		err := fmt.Errorf("failed to submit single-use command buffer: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	v.UpdateSubmitted()

	// Waiting on the fence only stalls this submission, not every queue
	// in flight the way QueueWaitIdle would.
	if err := fence.Wait(context, math.MaxUint64); err != nil {
		core.LogError(err.Error())
		return err
	}

	v.Free(context, pool)

	return nil
}
