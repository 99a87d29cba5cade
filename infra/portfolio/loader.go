// Package portfolio loads portfolio definitions from JSON or YAML files.
package portfolio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/assetfin/core/model"
)

// Load reads a portfolio file; the format follows the extension. An empty
// portfolio ID defaults to the file name without extension.
func Load(path string) (model.Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Portfolio{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	p, err := Decode(f, ext)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load portfolio %s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Decode reads a portfolio in the given format ("json", "yaml" or "yml").
func Decode(r io.Reader, format string) (model.Portfolio, error) {
	var p model.Portfolio
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&p); err != nil {
			return p, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return p, err
		}
	default:
		return p, fmt.Errorf("unsupported format: %s", format)
	}
	if p.Assets == nil {
		p.Assets = map[string]model.Asset{}
	}
	return p, nil
}

// Save writes p as indented JSON.
func Save(path string, p model.Portfolio) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
