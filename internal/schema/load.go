package schema

import (
	"LoraReport/internal/model"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromConfig builds a registry from YAML-loaded definitions.
func FromConfig(cfg model.SchemaConfig) (*Registry, error) {
	r := NewRegistry()
	for _, t := range cfg.Tasks {
		if err := r.RegisterTask(t.ID, t.ReportMessageSize); err != nil {
			return nil, fmt.Errorf("schema task %q: %w", t.Name, err)
		}
	}
	for _, tpl := range cfg.Templates {
		if err := r.RegisterTemplate(tpl.ID, tpl.Tasks); err != nil {
			return nil, fmt.Errorf("schema template %q: %w", tpl.Name, err)
		}
	}
	return r, nil
}

// Load reads a YAML file holding a SchemaConfig document and builds a registry.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg model.SchemaConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return FromConfig(cfg)
}
