package shaderc

import (
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// Physical layout constants from the SPIR-V specification. The walker
// reads the word stream directly; it needs no disassembler.
const (
	spirvMagic = 0x07230203

	opName       = 5
	opEntryPoint = 15
	opVariable   = 59
	opDecorate   = 71

	decorationLocation      = 30
	decorationBinding       = 33
	decorationDescriptorSet = 34

	storageClassInput = 1
)

const (
	executionModelVertex                 = 0
	executionModelTessellationControl    = 1
	executionModelTessellationEvaluation = 2
	executionModelGeometry               = 3
	executionModelFragment               = 4
	executionModelGLCompute              = 5
)

// Reflection is the metadata recovered from the debug intermediate.
// Only names and binding points are extracted; resource and attribute
// types are not recovered.
type Reflection struct {
	EntryPoints []EntryPoint
	Bindings    []ResourceBinding
	Inputs      []StageInput
}

type EntryPoint struct {
	Name  string
	Stage renderer.ShaderStage
}

// ResourceBinding is one descriptor-bound resource: a variable
// decorated with both a descriptor set and a binding index.
type ResourceBinding struct {
	Name    string
	Set     uint32
	Binding uint32
}

// StageInput is one input-storage-class variable carrying a location.
type StageInput struct {
	Name     string
	Location uint32
}

// idDecorations accumulates the decorations seen for one result id.
// A negative field means the decoration never appeared.
type idDecorations struct {
	location int64
	binding  int64
	set      int64
}

// Reflect walks the intermediate bytecode and extracts entry points,
// resource bindings and stage inputs. Debug names and decorations
// precede variable declarations in a valid module, so one pass in
// stream order suffices and keeps the output deterministic.
func Reflect(code []byte) (Reflection, error) {
	var reflection Reflection

	words, err := spirvWords(code)
	if err != nil {
		return reflection, err
	}
	if len(words) < 5 {
		return reflection, fmt.Errorf("bytecode is shorter than a module header")
	}
	if words[0] != spirvMagic {
		return reflection, fmt.Errorf("bad magic number 0x%08x", words[0])
	}

	names := make(map[uint32]string)
	decorated := make(map[uint32]*idDecorations)
	decorationsFor := func(id uint32) *idDecorations {
		d := decorated[id]
		if d == nil {
			d = &idDecorations{location: -1, binding: -1, set: -1}
			decorated[id] = d
		}
		return d
	}

	for at := 5; at < len(words); {
		wordCount := int(words[at] >> 16)
		opcode := words[at] & 0xffff
		if wordCount == 0 || at+wordCount > len(words) {
			return reflection, fmt.Errorf("malformed instruction at word %d", at)
		}
		operands := words[at+1 : at+wordCount]
		at += wordCount

		switch opcode {
		case opName:
			if len(operands) >= 2 {
				names[operands[0]] = decodeString(operands[1:])
			}

		case opEntryPoint:
			if len(operands) >= 3 {
				reflection.EntryPoints = append(reflection.EntryPoints, EntryPoint{
					Name:  decodeString(operands[2:]),
					Stage: stageFromExecutionModel(operands[0]),
				})
			}

		case opDecorate:
			if len(operands) >= 3 {
				d := decorationsFor(operands[0])
				switch operands[1] {
				case decorationLocation:
					d.location = int64(operands[2])
				case decorationBinding:
					d.binding = int64(operands[2])
				case decorationDescriptorSet:
					d.set = int64(operands[2])
				}
			}

		case opVariable:
			if len(operands) >= 3 {
				id := operands[1]
				storageClass := operands[2]
				d := decorated[id]
				if d == nil {
					continue
				}
				if d.set >= 0 && d.binding >= 0 {
					reflection.Bindings = append(reflection.Bindings, ResourceBinding{
						Name:    names[id],
						Set:     uint32(d.set),
						Binding: uint32(d.binding),
					})
				}
				if storageClass == storageClassInput && d.location >= 0 {
					reflection.Inputs = append(reflection.Inputs, StageInput{
						Name:     names[id],
						Location: uint32(d.location),
					})
				}
			}
		}
	}

	return reflection, nil
}

// decodeString reads a SPIR-V literal string: UTF-8 bytes packed
// little-endian into words, terminated by a NUL byte.
func decodeString(words []uint32) string {
	var out []byte
	for _, word := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(word >> shift)
			if c == 0 {
				return string(out)
			}
			out = append(out, c)
		}
	}
	return string(out)
}

func stageFromExecutionModel(model uint32) renderer.ShaderStage {
	switch model {
	case executionModelVertex:
		return renderer.ShaderStageVertex
	case executionModelFragment:
		return renderer.ShaderStagePixel
	case executionModelGLCompute:
		return renderer.ShaderStageCompute
	case executionModelGeometry:
		return renderer.ShaderStageGeometry
	case executionModelTessellationControl:
		return renderer.ShaderStageHull
	default:
		return renderer.ShaderStageDomain
	}
}

// spirvWords reinterprets the byte stream as little-endian code words.
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
