// Package cards loads the case card dataset from JSON or YAML files.
package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
)

// Format identifies a dataset encoding.
type Format string

// Supported dataset formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// record mirrors one card in the dataset file.
type record struct {
	ID       card.FlexID `json:"id"       yaml:"id"`
	CaseID   card.FlexID `json:"case_id"  yaml:"case_id"`
	Title    string      `json:"title"    yaml:"title"`
	Content  string      `json:"content"  yaml:"content"`
	Synonyms []string    `json:"synonyms" yaml:"synonyms"`
	Initial  bool        `json:"initial"  yaml:"initial"`
}

// FormatFromPath picks the dataset format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported card dataset extension %q: %w", filepath.Ext(path), domain.ErrInvalidInput)
	}
}

// Load reads and parses the card dataset at path.
func Load(path string) ([]card.Card, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read cards %s: %w", path, err)
	}
	cards, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse cards %s: %w", path, err)
	}
	return cards, nil
}

// Parse decodes a dataset in the given format. Card order is preserved.
// Duplicate ids and cards without id or case_id are rejected.
func Parse(data []byte, format Format) ([]card.Card, error) {
	var records []record
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode json: %w: %w", domain.ErrInvalidInput, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode yaml: %w: %w", domain.ErrInvalidInput, err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q: %w", format, domain.ErrInvalidInput)
	}

	out := make([]card.Card, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		c, err := card.New(string(r.ID), string(r.CaseID), r.Title, r.Content, r.Synonyms, r.Initial)
		if err != nil {
			return nil, fmt.Errorf("card #%d: %w", i, err)
		}
		if prev, dup := seen[c.ID()]; dup {
			return nil, fmt.Errorf("card #%d: duplicate id %q (first at #%d): %w", i, c.ID(), prev, domain.ErrInvalidInput)
		}
		seen[c.ID()] = i
		out = append(out, c)
	}
	return out, nil
}
