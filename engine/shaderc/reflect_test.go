package shaderc

import (
	"encoding/binary"
	"testing"

	"github.com/spaghettifunk/basalto/engine/renderer"
)

// testModule assembles a minimal word stream for walker tests.
type testModule struct {
	words []uint32
}

func newTestModule() *testModule {
	return &testModule{words: []uint32{spirvMagic, 0x00010300, 0, 32, 0}}
}

func (m *testModule) instruction(opcode uint32, operands ...uint32) *testModule {
	m.words = append(m.words, uint32(len(operands)+1)<<16|opcode)
	m.words = append(m.words, operands...)
	return m
}

func (m *testModule) bytes() []byte {
	out := make([]byte, len(m.words)*4)
	for i, word := range m.words {
		binary.LittleEndian.PutUint32(out[i*4:], word)
	}
	return out
}

// packString encodes a NUL-terminated literal string as code words.
func packString(s string) []uint32 {
	data := append([]byte(s), 0)
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

func TestReflect(t *testing.T) {
	module := newTestModule()
	module.instruction(opEntryPoint, append([]uint32{executionModelFragment, 4}, packString("fs_main")...)...)
	module.instruction(opName, append([]uint32{7}, packString("tex")...)...)
	module.instruction(opName, append([]uint32{9}, packString("uv")...)...)
	module.instruction(opDecorate, 7, decorationDescriptorSet, 0)
	module.instruction(opDecorate, 7, decorationBinding, 1)
	module.instruction(opDecorate, 9, decorationLocation, 3)
	module.instruction(opVariable, 8, 7, 0) // uniform-constant storage
	module.instruction(opVariable, 10, 9, storageClassInput)

	reflection, err := Reflect(module.bytes())
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}

	if len(reflection.EntryPoints) != 1 {
		t.Fatalf("entry points: got %d, want 1", len(reflection.EntryPoints))
	}
	entry := reflection.EntryPoints[0]
	if entry.Name != "fs_main" || entry.Stage != renderer.ShaderStagePixel {
		t.Errorf("entry point: got %q/%s, want fs_main/pixel", entry.Name, entry.Stage)
	}

	if len(reflection.Bindings) != 1 {
		t.Fatalf("bindings: got %d, want 1", len(reflection.Bindings))
	}
	binding := reflection.Bindings[0]
	if binding.Name != "tex" || binding.Set != 0 || binding.Binding != 1 {
		t.Errorf("binding: got %q set=%d binding=%d, want tex set=0 binding=1",
			binding.Name, binding.Set, binding.Binding)
	}

	if len(reflection.Inputs) != 1 {
		t.Fatalf("stage inputs: got %d, want 1", len(reflection.Inputs))
	}
	input := reflection.Inputs[0]
	if input.Name != "uv" || input.Location != 3 {
		t.Errorf("stage input: got %q location=%d, want uv location=3", input.Name, input.Location)
	}
}

func TestReflectStageMapping(t *testing.T) {
	cases := []struct {
		model uint32
		want  renderer.ShaderStage
	}{
		{executionModelVertex, renderer.ShaderStageVertex},
		{executionModelFragment, renderer.ShaderStagePixel},
		{executionModelGLCompute, renderer.ShaderStageCompute},
		{executionModelGeometry, renderer.ShaderStageGeometry},
		{executionModelTessellationControl, renderer.ShaderStageHull},
		{executionModelTessellationEvaluation, renderer.ShaderStageDomain},
	}
	for _, tc := range cases {
		module := newTestModule()
		module.instruction(opEntryPoint, append([]uint32{tc.model, 1}, packString("main")...)...)
		reflection, err := Reflect(module.bytes())
		if err != nil {
			t.Fatalf("Reflect(model %d): %v", tc.model, err)
		}
		if len(reflection.EntryPoints) != 1 || reflection.EntryPoints[0].Stage != tc.want {
			t.Errorf("model %d: got %v, want stage %s", tc.model, reflection.EntryPoints, tc.want)
		}
	}
}

func TestReflectUndecoratedVariableIgnored(t *testing.T) {
	module := newTestModule()
	module.instruction(opVariable, 8, 7, storageClassInput)

	reflection, err := Reflect(module.bytes())
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if len(reflection.Bindings) != 0 || len(reflection.Inputs) != 0 {
		t.Errorf("undecorated variable leaked into reflection: %+v", reflection)
	}
}

func TestReflectRejectsBadInput(t *testing.T) {
	t.Run("odd byte length", func(t *testing.T) {
		if _, err := Reflect(make([]byte, 7)); err == nil {
			t.Error("want error for non-word-aligned input")
		}
	})

	t.Run("shorter than a header", func(t *testing.T) {
		if _, err := Reflect(make([]byte, 8)); err == nil {
			t.Error("want error for truncated header")
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		words := []uint32{0x12345678, 0, 0, 0, 0}
		raw := make([]byte, 20)
		for i, word := range words {
			binary.LittleEndian.PutUint32(raw[i*4:], word)
		}
		if _, err := Reflect(raw); err == nil {
			t.Error("want error for wrong magic number")
		}
	})

	t.Run("malformed instruction", func(t *testing.T) {
		module := newTestModule()
		// Word count of zero can never advance the walk.
		module.words = append(module.words, 0)
		if _, err := Reflect(module.bytes()); err == nil {
			t.Error("want error for zero-length instruction")
		}
	})
}
