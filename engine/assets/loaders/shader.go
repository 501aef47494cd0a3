package loaders

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

const spirvMagic = 0x07230203

// ParseStage maps a stage token to its pipeline stage. Both the
// glslang file suffixes (vert, frag, ...) and the long names the
// engine logs with are accepted.
func ParseStage(token string) (renderer.ShaderStage, error) {
	switch strings.ToLower(token) {
	case "vert", "vertex":
		return renderer.ShaderStageVertex, nil
	case "frag", "fragment", "pixel":
		return renderer.ShaderStagePixel, nil
	case "comp", "compute":
		return renderer.ShaderStageCompute, nil
	case "geom", "geometry":
		return renderer.ShaderStageGeometry, nil
	case "tesc", "hull":
		return renderer.ShaderStageHull, nil
	case "tese", "domain":
		return renderer.ShaderStageDomain, nil
	}
	return 0, fmt.Errorf("unknown shader stage %q", token)
}

// StageFromPath infers the pipeline stage from the stage token in a
// file name of the form name.<stage>.<ext>, e.g. "lit.frag.spv".
func StageFromPath(path string) (renderer.ShaderStage, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	token := filepath.Ext(base)
	if token == "" {
		return 0, fmt.Errorf("no stage token in file name %q", filepath.Base(path))
	}
	return ParseStage(strings.TrimPrefix(token, "."))
}

// LoadShaderBinary reads stage-tagged SPIR-V bytecode from disk. The
// stage comes from the file name; the payload is checked for word
// alignment and the SPIR-V magic number before it is handed on.
func LoadShaderBinary(path string) (renderer.ShaderStage, []byte, error) {
	stage, err := StageFromPath(path)
	if err != nil {
		return 0, nil, err
	}

	code, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	if len(code) < 4 || len(code)%4 != 0 {
		return 0, nil, fmt.Errorf("%s: %d bytes is not a sequence of code words", path, len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != spirvMagic {
		return 0, nil, fmt.Errorf("%s: magic number 0x%08x is not SPIR-V", path, magic)
	}

	return stage, code, nil
}

// LoadShaderDescription assembles one shader from its per-stage
// binaries. Two files tagging the same stage is an error.
func LoadShaderDescription(name string, paths ...string) (*renderer.ShaderDescription, error) {
	desc := &renderer.ShaderDescription{DebugName: name}
	for _, path := range paths {
		stage, code, err := LoadShaderBinary(path)
		if err != nil {
			return nil, err
		}
		if desc.Stages[stage] != nil {
			return nil, fmt.Errorf("shader %q: stage %s supplied twice", name, stage)
		}
		desc.Stages[stage] = code
	}
	return desc, nil
}
