package vulkan

import "sync"

type LockGroup string

const (
	InstanceManagement   LockGroup = "instance_management"
	DeviceManagement     LockGroup = "device_management"
	SwapchainManagement  LockGroup = "swapchain_management"
	ImageManagement      LockGroup = "image_management"
	BufferManagement     LockGroup = "buffer_management"
	ShaderManagement     LockGroup = "shader_management"
	RenderpassManagement LockGroup = "renderpass_management"
	ResourceManagement   LockGroup = "resource_management"
)

// VulkanLockPool hands out one mutex per lock group and one per queue
// family. Destruction paths run under the owning group so a release on
// one goroutine cannot race a create or submit on another.
type VulkanLockPool struct {
	mu    sync.Mutex // protects both maps
	locks map[LockGroup]*sync.Mutex

	queueMutexes map[uint32]*sync.Mutex // queue family index as key
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks:        make(map[LockGroup]*sync.Mutex),
		queueMutexes: make(map[uint32]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) groupLock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	return vs.locks[group]
}

func (vs *VulkanLockPool) queueLock(queueFamilyIndex uint32) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.queueMutexes[queueFamilyIndex]; !exists {
		vs.queueMutexes[queueFamilyIndex] = &sync.Mutex{}
	}
	return vs.queueMutexes[queueFamilyIndex]
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.groupLock(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}

// SafeQueueCall serializes submissions against a queue family. Vulkan
// queues are externally synchronized, so every submit and wait on a
// shared family must go through here.
func (vs *VulkanLockPool) SafeQueueCall(queueFamilyIndex uint32, fn func() error) error {
	l := vs.queueLock(queueFamilyIndex)
	l.Lock()
	defer l.Unlock()

	return fn()
}
