package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/gridsystem/pathfinding"
)

type layerFile struct {
	Layers []string `yaml:"layers"`
}

// LoadLayerNames reads the layer file at path. A missing file is created
// with pathfinding.DefaultLayerNames.
func LoadLayerNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: %s missing, writing default layers", path)
		names := append([]string(nil), pathfinding.DefaultLayerNames...)
		return names, SaveLayerNames(path, names)
	}
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	var f layerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return f.Layers, nil
}

func SaveLayerNames(path string, names []string) error {
	data, err := yaml.Marshal(layerFile{Layers: names})
	if err != nil {
		return fmt.Errorf("config: marshal layers: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: write %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// LoadLayers builds a registry from the layer file.
func LoadLayers(path string) (*pathfinding.LayerRegistry, error) {
	names, err := LoadLayerNames(path)
	if err != nil {
		return nil, err
	}
	return pathfinding.NewLayerRegistry(names...), nil
}
