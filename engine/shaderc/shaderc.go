package shaderc

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/spirv"

	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// Target is the bytecode format a translator emits, fixed at
// construction time.
type Target uint8

const (
	// TargetSPIRV is the intermediate-portable format. It is also the
	// reflection basis for every other target.
	TargetSPIRV Target = iota
	// TargetHLSL is the platform-native low-level form, lowered from
	// source rather than from the intermediate bytecode.
	TargetHLSL
	// TargetMSL is cross-translation to a third-party shading
	// language. Declared stub: it always reports failure.
	TargetMSL
)

func (t Target) String() string {
	switch t {
	case TargetSPIRV:
		return "spirv"
	case TargetHLSL:
		return "hlsl"
	case TargetMSL:
		return "msl"
	}
	return "unknown"
}

// TargetFromString parses a config or flag value into a Target.
func TargetFromString(s string) (Target, error) {
	switch s {
	case "spirv", "spv":
		return TargetSPIRV, nil
	case "hlsl":
		return TargetHLSL, nil
	case "msl", "metal":
		return TargetMSL, nil
	}
	return 0, fmt.Errorf("unknown shader target %q", s)
}

// Extension returns the output file extension for the target.
func (t Target) Extension() string {
	switch t {
	case TargetHLSL:
		return ".hlsl"
	case TargetMSL:
		return ".metal"
	default:
		return ".spv"
	}
}

type Config struct {
	Target Target
	Build  core.BuildConfiguration
}

// Input is one translation request. A blank EntryPoint falls back to
// the stage's default name.
type Input struct {
	Source     string
	Stage      renderer.ShaderStage
	EntryPoint string
	Defines    map[string]string
	ForceDebug bool
}

// Output carries the final code bytes plus the reflection extracted
// from the intermediate bytecode. Reflection is identical across every
// target and optimization level because it always derives from the
// same debug intermediate.
type Output struct {
	Code       []byte
	Reflection Reflection
	EntryPoint string
	Stage      renderer.ShaderStage
}

// Translator compiles shader source for one fixed target format.
type Translator struct {
	target Target
	build  core.BuildConfiguration
}

// New validates the target and constructs a translator. An unknown
// target cannot engage the compiler at all, which is an integration
// defect, not a user shader error.
func New(cfg Config) (*Translator, error) {
	switch cfg.Target {
	case TargetSPIRV, TargetHLSL, TargetMSL:
	default:
		core.Abortf("shaderc: unknown translation target %d", cfg.Target)
	}
	return &Translator{target: cfg.Target, build: cfg.Build}, nil
}

func (t *Translator) Target() Target {
	return t.target
}

// Translate runs the full pipeline: preprocess, compile the debug
// intermediate, reflect over it, then branch on the target format.
// Compiler diagnostics for bad source come back as recoverable errors
// carrying the compiler's text.
func (t *Translator) Translate(input *Input) (*Output, error) {
	entry := input.EntryPoint
	if entry == "" {
		entry = input.Stage.DefaultEntryPoint()
	}

	source := Preprocess(input.Source, input.Defines)

	// The intermediate is always compiled with debug symbols on and
	// optimizations off; it is the sole reflection basis.
	intermediate, err := compileSPIRV(source, true)
	if err != nil {
		return nil, err
	}

	reflection, err := Reflect(intermediate)
	if err != nil {
		return nil, fmt.Errorf("reflecting %s: %w", entry, err)
	}

	debugEligible := t.build.Debug() || input.ForceDebug

	out := &Output{
		Reflection: reflection,
		EntryPoint: entry,
		Stage:      input.Stage,
	}

	switch t.target {
	case TargetSPIRV:
		if debugEligible {
			// The intermediate already is the requested format; reuse
			// it byte-identically instead of recompiling.
			out.Code = intermediate
			break
		}
		code, err := compileSPIRV(source, false)
		if err != nil {
			return nil, err
		}
		out.Code = code

	case TargetHLSL:
		// The native form is lowered from source, not from the
		// intermediate bytecode.
		code, err := compileHLSL(source, entry)
		if err != nil {
			return nil, err
		}
		out.Code = code

	case TargetMSL:
		if !debugEligible {
			if _, err := compileSPIRV(source, false); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("msl cross-translation is not implemented: %w", core.ErrUnsupported)
	}

	return out, nil
}

func compileSPIRV(source string, debug bool) ([]byte, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	backend := spirv.NewBackend(spirv.Options{
		Version:    spirv.Version1_3,
		Debug:      debug,
		Validation: true,
	})
	code, err := backend.Compile(module)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return code, nil
}

func compileHLSL(source, entry string) ([]byte, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	options := hlsl.DefaultOptions()
	options.EntryPoint = entry
	code, info, err := hlsl.Compile(module, options)
	if err != nil {
		return nil, fmt.Errorf("hlsl: %w", err)
	}
	core.LogDebug("hlsl lowering targets %s", info.RequiredShaderModel)
	return []byte(code), nil
}
