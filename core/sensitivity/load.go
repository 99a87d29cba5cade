package sensitivity

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is a driver file: tornado drivers plus named scenarios.
type Set struct {
	Drivers   []Driver   `json:"drivers" yaml:"drivers"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadDrivers loads a Set from a JSON or YAML file.
func LoadDrivers(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeDrivers(f, ext)
}

// DecodeDrivers reads a Set in the given format ("yaml", "yml" or "json").
func DecodeDrivers(r io.Reader, format string) (Set, error) {
	var set Set
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&set); err != nil && err != io.EOF {
			return set, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&set); err != nil {
			return set, err
		}
	default:
		return set, fmt.Errorf("unsupported format: %s", format)
	}
	for _, d := range set.Drivers {
		if err := d.Validate(); err != nil {
			return set, err
		}
	}
	return set, nil
}
