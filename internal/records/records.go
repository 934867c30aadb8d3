// Package records defines the input unit of the report builder and the
// YAML manifest it is handed over in.
package records

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one evidence entry: a title and the images backing it. One
// record becomes exactly one block in the output document.
type Record struct {
	Title  string   `yaml:"title"`
	Images []string `yaml:"images"`
}

// LoadManifest reads an ordered record list from a YAML file. The
// manifest is the local hand-off format between whatever acquired the
// data (spreadsheets, drive downloads) and this tool.
func LoadManifest(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records manifest: %w", err)
	}

	var recs []Record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse records manifest %s: %w", path, err)
	}
	for i, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("records manifest %s: entry %d has no title", path, i+1)
		}
	}
	return recs, nil
}
