// Package config loads YAML settings and the layer-name file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/gridsystem/pathfinding"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalidConfig = errors.New("config: invalid settings")

// Store drivers.
const (
	DriverNone     = "none"
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

type CostSettings struct {
	Straight int `yaml:"straight"`
	Diagonal int `yaml:"diagonal"`
	Hex      int `yaml:"hex"`
}

type SearchSettings struct {
	Diagonals bool         `yaml:"diagonals"`
	Limit     int          `yaml:"limit"`
	Costs     CostSettings `yaml:"costs"`
}

type ServerSettings struct {
	Addr string `yaml:"addr"`
	// Tick is the wall-clock interval between agent steps; Step is the
	// simulated seconds each tick advances.
	Tick time.Duration `yaml:"tick"`
	Step float64       `yaml:"step"`
}

type StoreSettings struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
}

type Settings struct {
	Level      string         `yaml:"level"`
	LayersFile string         `yaml:"layers_file"`
	Search     SearchSettings `yaml:"search"`
	Server     ServerSettings `yaml:"server"`
	Store      StoreSettings  `yaml:"store"`
}

// Default returns the embedded settings.
func Default() (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(defaultYAML, &s); err != nil {
		return nil, fmt.Errorf("config: unmarshal default.yaml: %w", err)
	}
	return &s, nil
}

// Load decodes path on top of the defaults. An empty path yields the
// defaults alone.
func Load(path string) (*Settings, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Costs() pathfinding.Costs {
	return pathfinding.Costs{
		Straight:  s.Search.Costs.Straight,
		Diagonal:  s.Search.Costs.Diagonal,
		Hex:       s.Search.Costs.Hex,
		Diagonals: s.Search.Diagonals,
	}
}

func (s *Settings) Validate() error {
	if err := s.Costs().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if s.Search.Limit < 0 {
		return fmt.Errorf("%w: search limit %d", ErrInvalidConfig, s.Search.Limit)
	}
	if s.Server.Tick < 0 || s.Server.Step < 0 {
		return fmt.Errorf("%w: tick %v step %v", ErrInvalidConfig, s.Server.Tick, s.Server.Step)
	}
	switch s.Store.Driver {
	case "", DriverNone, DriverJSON:
	case DriverPostgres:
		if s.Store.DSN == "" {
			return fmt.Errorf("%w: postgres store needs a dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, s.Store.Driver)
	}
	return nil
}

// Encode renders s as YAML.
func (s *Settings) Encode() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("config: marshal settings: %w", err)
	}
	return data, nil
}
