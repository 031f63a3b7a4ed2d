// Package tuning loads operator-facing knobs from tuning.yaml.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	WorldBoundaryR     int `yaml:"world_boundary_r"`
	SnapshotEveryEdits int `yaml:"snapshot_every_edits"`

	WS WSLimits `yaml:"ws"`
}

type WSLimits struct {
	ReadLimitBytes  int `yaml:"read_limit_bytes"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		WorldBoundaryR:     4000,
		SnapshotEveryEdits: 512,
		WS: WSLimits{
			ReadLimitBytes:  64 * 1024,
			ReadTimeoutSec:  60,
			WriteTimeoutSec: 5,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
