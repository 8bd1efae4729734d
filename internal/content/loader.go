package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a catalog file. Call Validate before using it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %v", err)
	}
	return Parse(data)
}

// Parse parses catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %v", err)
	}
	return &catalog, nil
}

// ApplyFileIDOverrides replaces local file references with pre-uploaded
// Telegram file IDs. Keys look like "DAY3_STEP0" and come from the
// environment, so content can switch to cached media without edits.
func (c *Catalog) ApplyFileIDOverrides(overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	for n, day := range c.Days {
		for i := range day.Steps {
			key := fmt.Sprintf("DAY%d_STEP%d", n, i)
			if id, ok := overrides[key]; ok && id != "" {
				day.Steps[i].FileID = id
			}
		}
		c.Days[n] = day
	}
}
