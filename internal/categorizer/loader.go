package categorizer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"finbot/internal/models"
)

// CategoriesConfig is the structure of a categories.yaml override file:
//
//	categories:
//	  - name: "Продукты"
//	    keywords: ["пятерочка", "lidl"]
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// LoadCategories loads a category keyword override from a YAML file. Every
// category name must belong to the canonical set; the file may narrow or
// extend keyword lists but cannot invent new categories.
func LoadCategories(path string) ([]CategoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var config CategoriesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}

	for _, category := range config.Categories {
		if !models.IsCanonicalCategory(category.Name) {
			return nil, fmt.Errorf("category %q in %s is not canonical", category.Name, path)
		}
	}

	return config.Categories, nil
}
