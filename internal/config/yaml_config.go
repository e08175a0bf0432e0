package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"issuebrowser/internal/models"
)

// YAMLConfig represents the structure of the config.yaml file.
// Presentation settings that are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Categories CategoriesConfig `yaml:"categories"`
	Sort       SortConfig       `yaml:"sort"`
}

// CategoriesConfig controls how label categories appear in the filter panel.
type CategoriesConfig struct {
	Order  []string `yaml:"order"`  // Listed first, in this order; the rest follow in label order
	Hidden []string `yaml:"hidden"` // Never offered as filters
}

// SortConfig defines sort defaults and display names.
type SortConfig struct {
	DefaultField string            `yaml:"default_field"` // created, updated or comments
	Labels       map[string]string `yaml:"labels"`        // Sort field -> display name
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Sort.DefaultField != "" {
		if _, err := models.ParseSortField(cfg.Sort.DefaultField); err != nil {
			return nil, fmt.Errorf("%s: sort.default_field: %w", path, err)
		}
	}
	for field := range cfg.Sort.Labels {
		if _, err := models.ParseSortField(field); err != nil {
			return nil, fmt.Errorf("%s: sort.labels: %w", path, err)
		}
	}

	return &cfg, nil
}

// CategoryOrder returns the configured category order.
func (c *YAMLConfig) CategoryOrder() []string {
	if c == nil {
		return nil
	}
	return c.Categories.Order
}

// HiddenCategories returns the categories excluded from the filter panel.
func (c *YAMLConfig) HiddenCategories() []string {
	if c == nil {
		return nil
	}
	return c.Categories.Hidden
}

// DefaultSortField returns the configured initial sort field, created when unset.
func (c *YAMLConfig) DefaultSortField() models.SortField {
	if c == nil || c.Sort.DefaultField == "" {
		return models.SortCreated
	}
	return models.SortField(c.Sort.DefaultField)
}

// SortLabels returns display names for every sort field, with configured
// names overriding the defaults.
func (c *YAMLConfig) SortLabels() map[models.SortField]string {
	labels := make(map[models.SortField]string, len(models.DefaultSortLabels))
	for field, label := range models.DefaultSortLabels {
		labels[field] = label
	}
	if c == nil {
		return labels
	}
	for field, label := range c.Sort.Labels {
		if label != "" {
			labels[models.SortField(field)] = label
		}
	}
	return labels
}
