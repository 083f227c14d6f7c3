package repositories

import (
	"fmt"
	"os"
	"robot-route-service/internal/domain"
	"strings"

	"gopkg.in/yaml.v2"
)

type lineFile struct {
	Lines []lineRecord `yaml:"lines"`
}

type lineRecord struct {
	ID     string `yaml:"id"`
	Number string `yaml:"number"`
	Name   string `yaml:"name"`
	Color  string `yaml:"color"`
}

// In-memory tram line catalog loaded from a YAML or JSON lines file.
type YAMLLineCatalog struct {
	lines    []domain.TramLine
	byNumber map[string]domain.TramLine
	byID     map[string]domain.TramLine
}

// Load a catalog from disk. The file has a top-level "lines" list.
func LoadLineCatalog(path string) (*YAMLLineCatalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load line catalog: read %q: %w", path, err)
	}

	c, err := ParseLineCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("load line catalog %q: %w", path, err)
	}
	return c, nil
}

func ParseLineCatalog(data []byte) (*YAMLLineCatalog, error) {
	var f lineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lines: %w", err)
	}

	c := &YAMLLineCatalog{
		lines:    make([]domain.TramLine, 0, len(f.Lines)),
		byNumber: make(map[string]domain.TramLine, len(f.Lines)),
		byID:     make(map[string]domain.TramLine, len(f.Lines)),
	}
	for _, r := range f.Lines {
		l := domain.TramLine{
			ID:     strings.TrimSpace(r.ID),
			Number: strings.TrimSpace(r.Number),
			Name:   strings.TrimSpace(r.Name),
			Color:  strings.TrimSpace(r.Color),
		}
		c.lines = append(c.lines, l)

		// first entry wins on duplicate keys
		if _, ok := c.byNumber[l.Number]; l.Number != "" && !ok {
			c.byNumber[l.Number] = l
		}
		if _, ok := c.byID[l.ID]; l.ID != "" && !ok {
			c.byID[l.ID] = l
		}
	}
	return c, nil
}

func (c *YAMLLineCatalog) Lines() []domain.TramLine {
	out := make([]domain.TramLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *YAMLLineCatalog) Lookup(number, id string) (domain.TramLine, bool) {
	if n := strings.TrimSpace(number); n != "" {
		l, ok := c.byNumber[n]
		return l, ok
	}
	if i := strings.TrimSpace(id); i != "" {
		l, ok := c.byID[i]
		return l, ok
	}
	return domain.TramLine{}, false
}
