package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// VulkanBackend drives the explicit-queue native API. Initialization
// negotiates the physical device before any surface exists; surfaces
// are created per swap surface.
type VulkanBackend struct {
	context *VulkanContext

	applicationName string
	build           core.BuildConfiguration
}

func init() {
	renderer.Register(renderer.KindVulkan, func() renderer.Backend { return &VulkanBackend{} })
}

func (vb *VulkanBackend) Initialize(cfg *renderer.BackendConfig) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("vulkan loader not found, GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vulkan: %s", err)
		return err
	}

	vb.applicationName = cfg.ApplicationName
	vb.build = cfg.Build
	vb.context = &VulkanContext{
		// TODO: custom allocator.
		Allocator: nil,
		locks:     NewVulkanLockPool(),
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.ApplicationName),
		PEngineName:        VulkanSafeString("Basalto Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// The window system reports the surface extensions it needs,
	// VK_KHR_surface included.
	requiredExtensions := glfw.GetRequiredInstanceExtensions()
	if len(requiredExtensions) == 0 {
		err := fmt.Errorf("window system reports no vulkan surface support")
		core.LogError(err.Error())
		return err
	}

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	if vb.build.Validation() {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugUtilsExtensionName, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for i := 0; i < len(requiredExtensions); i++ {
			core.LogInfo(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers ship with the SDK, not the driver. They are
	// required on every build that is not a shipping build; a missing
	// layer is a broken installation, not a condition to limp past.
	requiredValidationLayerNames := []string{}
	if vb.build.Validation() {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layers: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layers: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}

		for i := range requiredValidationLayerNames {
			core.LogInfo("Searching for layer: %s...", requiredValidationLayerNames[i])
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				if requiredValidationLayerNames[i] == VulkanTrimString(availableLayers[j].LayerName[:]) {
					found = true
					core.LogInfo("Found.")
					break
				}
			}
			if !found {
				core.Abortf("vulkan: required validation layer '%s' is missing", requiredValidationLayerNames[i])
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	err := vb.context.locks.SafeCall(InstanceManagement, func() error {
		if res := vk.CreateInstance(&createInfo, vb.context.Allocator, &vb.context.Instance); res != vk.Success {
			err := fmt.Errorf("failed to create the vulkan instance: %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		return vk.InitInstance(vb.context.Instance)
	})
	if err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vb.build.Validation() {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportInformationBit),
			PfnCallback: dbgCallbackFunc,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vb.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			vb.teardownInstance()
			return err
		}
		vb.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	err = vb.context.locks.SafeCall(DeviceManagement, func() error {
		return DeviceCreate(vb.context)
	})
	if err != nil {
		vb.teardownInstance()
		return err
	}

	core.LogInfo("Vulkan backend initialized successfully.")
	return nil
}

func (vb *VulkanBackend) Shutdown() {
	if vb.context == nil {
		return
	}

	// Destroy in the opposite order of creation.
	if vb.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vb.context.Device.LogicalDevice)
		core.LogDebug("Destroying Vulkan device...")
		vb.context.locks.SafeCall(DeviceManagement, func() error {
			DeviceDestroy(vb.context)
			return nil
		})
	}

	vb.teardownInstance()
	vb.context = nil
}

func (vb *VulkanBackend) teardownInstance() {
	if vb.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vb.context.Instance, vb.context.debugMessenger, vb.context.Allocator)
		vb.context.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vb.context.locks.SafeCall(InstanceManagement, func() error {
		vk.DestroyInstance(vb.context.Instance, vb.context.Allocator)
		vb.context.Instance = nil
		return nil
	})
}

func (vb *VulkanBackend) CreateFramebuffer(desc *renderer.FramebufferDescription) (renderer.Framebuffer, error) {
	fb, err := FramebufferCreate(vb.context, desc)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (vb *VulkanBackend) CreateRenderPass(desc *renderer.RenderPassDescription) (renderer.RenderPass, error) {
	target, ok := desc.Target.(*VulkanFramebuffer)
	if !ok {
		err := fmt.Errorf("render pass target '%s' was not created by this backend", desc.Target.DebugName())
		core.LogError(err.Error())
		return nil, err
	}
	pass, err := RenderPassCreate(vb.context, desc, target)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (vb *VulkanBackend) CreateShader(desc *renderer.ShaderDescription) (renderer.Shader, error) {
	shader, err := ShaderCreate(vb.context, desc)
	if err != nil {
		return nil, err
	}
	return shader, nil
}

func (vb *VulkanBackend) CreateTexture2D(desc *renderer.Texture2DDescription) (renderer.Texture2D, error) {
	texture, err := TextureCreate(vb.context, desc)
	if err != nil {
		return nil, err
	}
	return texture, nil
}

func (vb *VulkanBackend) CreateSwapSurface(desc *renderer.SwapSurfaceDescription) (renderer.SwapSurface, error) {
	surfacePtr, err := desc.Window.Handle().CreateWindowSurface(vb.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return nil, err
	}
	surface := vk.SurfaceFromPointer(surfacePtr)
	core.LogDebug("Vulkan surface created.")

	width, height := desc.Window.PixelSize()
	swapchain, err := SwapchainCreate(vb.context, surface, width, height)
	if err != nil {
		vk.DestroySurface(vb.context.Instance, surface, vb.context.Allocator)
		return nil, err
	}
	return swapchain, nil
}

// CreateRenderingContext is the single-context path; this backend has
// none. Callers that can run on either backend treat this as a normal
// capability miss.
func (vb *VulkanBackend) CreateRenderingContext(desc *renderer.RenderingContextDescription) (renderer.RenderingContext, error) {
	return nil, fmt.Errorf("vulkan backend drives explicit queues, not a bound context: %w", core.ErrUnsupported)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogInfo("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
