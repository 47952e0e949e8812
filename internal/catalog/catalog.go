// Package catalog holds the static exercise and food tables that map a search
// term to a demonstration video. The tables are plain data: an embedded YAML
// default that an operator can replace with CATALOG_PATH.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Catalog is a pair of term → video id tables.
type Catalog struct {
	Exercises map[string]string `yaml:"exercises"`
	Foods     map[string]string `yaml:"foods"`
}

// Default returns the embedded tables.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads tables from path, or returns Default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML tables.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if c.Exercises == nil {
		c.Exercises = map[string]string{}
	}
	if c.Foods == nil {
		c.Foods = map[string]string{}
	}
	return &c, nil
}

// ExerciseVideo looks up an exercise by its listed name, falling back to a
// case-insensitive match. It returns "" for an unlisted term.
func (c *Catalog) ExerciseVideo(term string) string {
	term = strings.TrimSpace(term)
	if id, ok := c.Exercises[term]; ok {
		return id
	}
	return foldLookup(c.Exercises, term)
}

// FoodVideo looks up a food case-insensitively. It returns "" for an unlisted
// term.
func (c *Catalog) FoodVideo(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if id, ok := c.Foods[term]; ok {
		return id
	}
	return foldLookup(c.Foods, term)
}

// ExerciseNames lists the exercise table keys in sorted order.
func (c *Catalog) ExerciseNames() []string {
	return sortedKeys(c.Exercises)
}

// FoodNames lists the food table keys in sorted order.
func (c *Catalog) FoodNames() []string {
	return sortedKeys(c.Foods)
}

func foldLookup(m map[string]string, term string) string {
	for k, v := range m {
		if strings.EqualFold(k, term) {
			return v
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
