package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// VulkanShader holds one shader module per populated stage, plus the
// pipeline stage infos a pipeline build consumes.
type VulkanShader struct {
	renderer.RefCount

	context *VulkanContext

	modules    [renderer.ShaderStageCount]vk.ShaderModule
	StageInfos []vk.PipelineShaderStageCreateInfo
}

func ShaderCreate(context *VulkanContext, desc *renderer.ShaderDescription) (*VulkanShader, error) {
	shader := &VulkanShader{context: context}

	for stage := renderer.ShaderStage(0); stage < renderer.ShaderStageCount; stage++ {
		code := desc.Stages[stage]
		if len(code) == 0 {
			continue
		}

		words, err := spirvWords(code)
		if err != nil {
			shader.destroyModules()
			err := fmt.Errorf("stage %s: %w", stage, err)
			core.LogError(err.Error())
			return nil, err
		}

		createInfo := vk.ShaderModuleCreateInfo{
			SType:    vk.StructureTypeShaderModuleCreateInfo,
			CodeSize: uint(len(code)),
			PCode:    words,
		}
		var module vk.ShaderModule
		if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
			shader.destroyModules()
			err := fmt.Errorf("failed to create %s shader module: %s", stage, VulkanResultString(res))
			core.LogError(err.Error())
			return nil, err
		}
		shader.modules[stage] = module
		shader.StageInfos = append(shader.StageInfos, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkanShaderStage(stage),
			Module: module,
			PName:  VulkanSafeString(stage.DefaultEntryPoint()),
		})
	}

	shader.InitRefCount(desc.DebugName, func() {
		context.locks.SafeCall(ShaderManagement, func() error {
			shader.destroyModules()
			return nil
		})
	})
	return shader, nil
}

func (vs *VulkanShader) destroyModules() {
	for i, module := range vs.modules {
		if module != vk.NullShaderModule {
			vk.DestroyShaderModule(vs.context.Device.LogicalDevice, module, vs.context.Allocator)
			vs.modules[i] = vk.NullShaderModule
		}
	}
	vs.StageInfos = nil
}

func vulkanShaderStage(stage renderer.ShaderStage) vk.ShaderStageFlagBits {
	switch stage {
	case renderer.ShaderStageVertex:
		return vk.ShaderStageVertexBit
	case renderer.ShaderStagePixel:
		return vk.ShaderStageFragmentBit
	case renderer.ShaderStageCompute:
		return vk.ShaderStageComputeBit
	case renderer.ShaderStageGeometry:
		return vk.ShaderStageGeometryBit
	case renderer.ShaderStageHull:
		return vk.ShaderStageTessellationControlBit
	default:
		return vk.ShaderStageTessellationEvaluationBit
	}
}

// spirvWords reinterprets a byte stream as little-endian code words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("bytecode length %d is not a whole number of words", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}
