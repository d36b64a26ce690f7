package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/netsynth/internal/model"
)

// Metadata describes one generated dataset: a unique ID plus everything
// needed to regenerate it bit-for-bit.
type Metadata struct {
	ID      string       `yaml:"id"`
	Created time.Time    `yaml:"created"`
	Samples int          `yaml:"samples"`
	Seed    int64        `yaml:"seed"`
	Params  model.Params `yaml:"params"`
}

// NewMetadata assigns a fresh ULID to the table's provenance.
func NewMetadata(table *model.Table) Metadata {
	return Metadata{
		ID:      ulid.Make().String(),
		Created: time.Now().UTC(),
		Samples: table.Len(),
		Seed:    table.Seed(),
		Params:  table.Params(),
	}
}

// WriteMetadata writes the sidecar YAML next to a dataset.
func WriteMetadata(path string, meta Metadata) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadMetadata loads a sidecar written by WriteMetadata.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read %s: %w", path, err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return meta, nil
}
