package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetermineAssetType(t *testing.T) {
	cases := []struct {
		path string
		want Type
	}{
		{"textures/wood.png", TypeImage},
		{"textures/wood.jpg", TypeImage},
		{"textures/wood.jpeg", TypeImage},
		{"textures/wood.bmp", TypeImage},
		{"shaders/lit.frag.wgsl", TypeShaderSource},
		{"shaders/lit.frag.spv", TypeShaderBinary},
		{"fonts/ubuntu.fnt", TypeFontAtlas},
		{"notes.txt", TypeNone},
		{"Makefile", TypeNone},
	}
	for _, tc := range cases {
		if got := determineAssetType(tc.path); got != tc.want {
			t.Errorf("determineAssetType(%q): got %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestManagerIndexesTree(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "shaders")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(sub, "lit.frag.wgsl")
	if err := os.WriteFile(source, []byte("@fragment fn fs_main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ignored := filepath.Join(root, "README.md")
	if err := os.WriteFile(ignored, []byte("docs"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Shutdown()

	if err := m.Startup(root); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	info, ok := m.Lookup(source)
	if !ok {
		t.Fatalf("shader source not indexed: %s", source)
	}
	if info.Type != TypeShaderSource {
		t.Errorf("type: got %s, want shader-source", info.Type)
	}
	if _, ok := m.Lookup(ignored); ok {
		t.Error("unrecognized file should not be indexed")
	}

	sources := m.ByType(TypeShaderSource)
	if len(sources) != 1 || sources[0].Path != source {
		t.Errorf("ByType: got %+v, want just the wgsl file", sources)
	}
}

func TestManagerLoadDispatch(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "sky.vert.wgsl")
	body := "@vertex fn vs_main() {}"
	if err := os.WriteFile(source, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Shutdown()
	if err := m.Startup(root); err != nil {
		t.Fatal(err)
	}

	asset, err := m.Load(source)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Source != body {
		t.Errorf("source payload: got %q, want %q", asset.Source, body)
	}

	if _, err := m.Load(filepath.Join(root, "absent.png")); err == nil {
		t.Error("want error for unindexed path")
	}
}
