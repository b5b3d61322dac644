package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedCategory is one global category from the seed file
type SeedCategory struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// CategoriesConfig holds the default categories shipped with the application
type CategoriesConfig struct {
	Categories []SeedCategory `yaml:"categories"`

	byKey map[string]*SeedCategory
}

// LoadCategoriesConfig loads the category seed file
func LoadCategoriesConfig(path string) (*CategoriesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	return ParseCategoriesConfig(data)
}

// ParseCategoriesConfig parses and validates category seed YAML
func ParseCategoriesConfig(data []byte) (*CategoriesConfig, error) {
	var config CategoriesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.byKey = make(map[string]*SeedCategory, len(config.Categories))
	for i := range config.Categories {
		c := &config.Categories[i]
		config.byKey[c.Type+"/"+c.Name] = c
	}

	return &config, nil
}

// Validate validates the categories configuration
func (c *CategoriesConfig) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category must be configured")
	}

	seen := make(map[string]bool)
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		if cat.Type != "income" && cat.Type != "expense" {
			return fmt.Errorf("category %q: type must be income or expense, got %q", cat.Name, cat.Type)
		}
		key := cat.Type + "/" + cat.Name
		if seen[key] {
			return fmt.Errorf("duplicate category %q (%s)", cat.Name, cat.Type)
		}
		seen[key] = true
	}

	return nil
}

// Has reports whether the seed file defines the category
func (c *CategoriesConfig) Has(name, categoryType string) bool {
	_, ok := c.byKey[categoryType+"/"+name]
	return ok
}
