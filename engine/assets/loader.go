package assets

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/basalto/engine/assets/loaders"
	"github.com/spaghettifunk/basalto/engine/renderer"
)

// Asset is the result of loading an indexed file. Exactly one payload
// field is populated, matching Info.Type.
type Asset struct {
	Info

	Texture  *renderer.Texture2DDescription
	Font     *loaders.FontAtlas
	Stage    renderer.ShaderStage
	Bytecode []byte
	Source   string
}

// Load reads an indexed asset through the loader its type selects.
func (m *Manager) Load(path string) (*Asset, error) {
	info, ok := m.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("asset not indexed: %s", path)
	}

	asset := &Asset{Info: info}
	var err error
	switch info.Type {
	case TypeImage:
		asset.Texture, err = loaders.LoadTexture2D(path)
	case TypeFontAtlas:
		asset.Font, err = loaders.LoadFontAtlas(path)
	case TypeShaderBinary:
		asset.Stage, asset.Bytecode, err = loaders.LoadShaderBinary(path)
	case TypeShaderSource:
		var raw []byte
		raw, err = os.ReadFile(path)
		asset.Source = string(raw)
	default:
		err = fmt.Errorf("no loader for asset type %s", info.Type)
	}
	if err != nil {
		return nil, err
	}
	return asset, nil
}
