package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
)

// VulkanDevice holds the negotiated physical device, the logical
// device built on top of it and one queue handle per capability.
type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	GraphicsQueueIndex int32
	PresentQueueIndex  int32
	ComputeQueueIndex  int32
	TransferQueueIndex int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	ComputeQueue  vk.Queue
	TransferQueue vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

// unresolvedQueueIndex marks a capability no queue family provides.
const unresolvedQueueIndex int32 = -1

// queueFamilyIndices are the four capability indices resolved per
// physical device during negotiation.
type queueFamilyIndices struct {
	graphics int32
	present  int32
	compute  int32
	transfer int32
}

// viable reports whether every capability resolved. Devices missing
// any of the four are discarded.
func (q queueFamilyIndices) viable() bool {
	return q.graphics != unresolvedQueueIndex &&
		q.present != unresolvedQueueIndex &&
		q.compute != unresolvedQueueIndex &&
		q.transfer != unresolvedQueueIndex
}

// distinct deduplicates the four indices in first-seen order. One
// queue is requested per distinct family.
func (q queueFamilyIndices) distinct() []uint32 {
	out := make([]uint32, 0, 4)
	for _, idx := range []int32{q.graphics, q.present, q.compute, q.transfer} {
		seen := false
		for _, d := range out {
			if d == uint32(idx) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, uint32(idx))
		}
	}
	return out
}

// resolveQueueFamilies walks the family properties once and resolves
// the four capability indices. A graphics-capable family is also taken
// as the present family: the device is negotiated before any surface
// exists, so presentability cannot be queried here. That is a
// heuristic, not a platform guarantee.
func resolveQueueFamilies(families []vk.QueueFamilyProperties) queueFamilyIndices {
	indices := queueFamilyIndices{
		graphics: unresolvedQueueIndex,
		present:  unresolvedQueueIndex,
		compute:  unresolvedQueueIndex,
		transfer: unresolvedQueueIndex,
	}

	minTransferScore := 255
	for i, family := range families {
		currentTransferScore := 0

		// Graphics queue?
		if vk.QueueFlagBits(family.QueueFlags)&vk.QueueGraphicsBit > 0 {
			if indices.graphics == unresolvedQueueIndex {
				indices.graphics = int32(i)
				indices.present = int32(i)
			}
			currentTransferScore++
		}

		// Compute queue?
		if family.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) > 0 {
			if indices.compute == unresolvedQueueIndex {
				indices.compute = int32(i)
			}
			currentTransferScore++
		}

		// Transfer queue?
		if vk.QueueFlagBits(family.QueueFlags)&vk.QueueTransferBit > 0 {
			// Take the index if it is the current lowest. This increases the
			// liklihood that it is a dedicated transfer queue.
			if currentTransferScore <= minTransferScore {
				minTransferScore = currentTransferScore
				indices.transfer = int32(i)
			}
		}
	}
	return indices
}

// deviceCandidate is one enumerated physical device reduced to what
// the selection rule needs.
type deviceCandidate struct {
	queues   queueFamilyIndices
	discrete bool
}

// pickPhysicalDevice applies the selection rule over candidates in
// enumeration order: the first viable device is the initial selection,
// and a later viable device replaces it only when that device is a
// discrete GPU. The last discrete viable device therefore wins when
// any exists; otherwise the first viable one does. Returns -1 when no
// candidate is viable.
func pickPhysicalDevice(candidates []deviceCandidate) int {
	selected := -1
	for i, c := range candidates {
		if !c.queues.viable() {
			continue
		}
		if selected == -1 {
			selected = i
			continue
		}
		if c.discrete {
			selected = i
		}
	}
	return selected
}

// SelectPhysicalDevice enumerates the physical devices, resolves queue
// capabilities for each and stores the selected device in the context.
func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32 = 0
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if physicalDeviceCount == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return core.ErrNoDevice
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		err := fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}

	properties := make([]vk.PhysicalDeviceProperties, physicalDeviceCount)
	candidates := make([]deviceCandidate, physicalDeviceCount)

	core.LogInfo("Graphics | Present | Compute | Transfer | Name")
	for i := 0; i < int(physicalDeviceCount); i++ {
		vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties[i])
		properties[i].Deref()

		var queueFamilyCount uint32 = 0
		vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevices[i], &queueFamilyCount, nil)
		queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevices[i], &queueFamilyCount, queueFamilies)
		for j := range queueFamilies {
			queueFamilies[j].Deref()
		}

		queues := resolveQueueFamilies(queueFamilies)
		candidates[i] = deviceCandidate{
			queues:   queues,
			discrete: properties[i].DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
		}

		core.LogInfo("       %t |       %t |       %t |        %t | %s",
			queues.graphics != unresolvedQueueIndex,
			queues.present != unresolvedQueueIndex,
			queues.compute != unresolvedQueueIndex,
			queues.transfer != unresolvedQueueIndex,
			VulkanTrimString(properties[i].DeviceName[:]))
	}

	selected := pickPhysicalDevice(candidates)
	if selected == -1 {
		core.LogError("No physical devices were found which meet the requirements.")
		return core.ErrNoDevice
	}

	device := physicalDevices[selected]
	context.Device.PhysicalDevice = device
	context.Device.GraphicsQueueIndex = candidates[selected].queues.graphics
	context.Device.PresentQueueIndex = candidates[selected].queues.present
	context.Device.ComputeQueueIndex = candidates[selected].queues.compute
	context.Device.TransferQueueIndex = candidates[selected].queues.transfer

	context.Device.Properties = properties[selected]
	vk.GetPhysicalDeviceFeatures(device, &context.Device.Features)
	context.Device.Features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(device, &context.Device.Memory)
	context.Device.Memory.Deref()

	logSelectedDevice(&context.Device)
	return nil
}

func logSelectedDevice(device *VulkanDevice) {
	core.LogInfo("Selected device: '%s'.", VulkanTrimString(device.Properties.DeviceName[:]))
	switch device.Properties.DeviceType {
	default:
		fallthrough
	case vk.PhysicalDeviceTypeOther:
		core.LogInfo("GPU type is Unknown.")
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version.Major(vk.Version(device.Properties.DriverVersion)),
		vk.Version.Minor(vk.Version(device.Properties.DriverVersion)),
		vk.Version.Patch(vk.Version(device.Properties.DriverVersion)),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(device.Properties.ApiVersion)),
		vk.Version.Minor(vk.Version(device.Properties.ApiVersion)),
		vk.Version.Patch(vk.Version(device.Properties.ApiVersion)),
	)

	for j := 0; j < int(device.Memory.MemoryHeapCount); j++ {
		device.Memory.MemoryHeaps[j].Deref()
		memorySizeGib := device.Memory.MemoryHeaps[j].Size / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(device.Memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit > 0 {
			core.LogInfo("Local GPU memory: %d GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %d GiB", memorySizeGib)
		}
	}
}

// DeviceCreate negotiates the physical device and builds the logical
// device: one queue per distinct capability family at equal priority,
// the swapchain extension, and portability when the driver wants it.
// Once negotiation begins there is no retry and no fallback device.
func DeviceCreate(context *VulkanContext) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := queueFamilyIndices{
		graphics: context.Device.GraphicsQueueIndex,
		present:  context.Device.PresentQueueIndex,
		compute:  context.Device.ComputeQueueIndex,
		transfer: context.Device.TransferQueueIndex,
	}.distinct()

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range queueCreateInfos {
		queueCreateInfos[i].SType = vk.StructureTypeDeviceQueueCreateInfo
		queueCreateInfos[i].QueueFamilyIndex = indices[i]
		queueCreateInfos[i].QueueCount = 1
		queueCreateInfos[i].Flags = 0
		queueCreateInfos[i].PNext = nil
		queueCreateInfos[i].PQueuePriorities = []float32{1.0}
	}

	// No optional features are requested; samplers stay within the
	// baseline feature set.
	deviceFeatures := vk.PhysicalDeviceFeatures{}

	requiredExtensions := []string{vk.KhrSwapchainExtensionName}
	if deviceExtensionAvailable(context.Device.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		requiredExtensions = append(requiredExtensions, "VK_KHR_portability_subset")
	}
	for _, ext := range requiredExtensions {
		if !deviceExtensionAvailable(context.Device.PhysicalDevice, ext) {
			core.Abortf("vulkan: required device extension '%s' is not available", ext)
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(requiredExtensions),
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(
		context.Device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&logicalDevice); res != vk.Success {
		err := fmt.Errorf("failed to create logical device: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	context.Device.LogicalDevice = logicalDevice
	core.LogInfo("Logical device created.")

	// Get queues.
	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.GraphicsQueueIndex),
		0,
		&context.Device.GraphicsQueue)

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.PresentQueueIndex),
		0,
		&context.Device.PresentQueue)

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.ComputeQueueIndex),
		0,
		&context.Device.ComputeQueue)

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.TransferQueueIndex),
		0,
		&context.Device.TransferQueue)
	core.LogInfo("Queues obtained.")

	// Create command pool for graphics queue. Initial-data uploads
	// record their single-use command buffers here.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(
		context.Device.LogicalDevice,
		&poolCreateInfo,
		context.Allocator,
		&pool); res != vk.Success {
		err := fmt.Errorf("failed to create graphics command pool: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	context.Device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	if !DeviceDetectDepthFormat(&context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		core.LogWarn("No supported depth format found, depth attachments unavailable.")
	}

	return nil
}

func deviceExtensionAvailable(device vk.PhysicalDevice, name string) bool {
	var availableCount uint32 = 0
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableCount, nil); res != vk.Success {
		return false
	}
	if availableCount == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, availableCount)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableCount, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if VulkanTrimString(available[i].ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

func DeviceDestroy(context *VulkanContext) {
	// Unset queues
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil
	context.Device.ComputeQueue = nil
	context.Device.TransferQueue = nil

	core.LogInfo("Destroying command pools...")
	if context.Device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(
			context.Device.LogicalDevice,
			context.Device.GraphicsCommandPool,
			context.Allocator)
		context.Device.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil

	context.Device.GraphicsQueueIndex = unresolvedQueueIndex
	context.Device.PresentQueueIndex = unresolvedQueueIndex
	context.Device.ComputeQueueIndex = unresolvedQueueIndex
	context.Device.TransferQueueIndex = unresolvedQueueIndex
}

// DeviceDetectDepthFormat probes the depth-capable formats in
// preference order and stores the first the device can use as a
// depth/stencil attachment.
func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureDepthStencilAttachmentBit
	for _, candidate := range candidates {
		properties := vk.FormatProperties{}
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if (vk.FormatFeatureFlagBits(properties.LinearTilingFeatures) & flags) == flags {
			device.DepthFormat = candidate
			return true
		} else if (vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures) & flags) == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	return false
}
