/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: schema.go
Description: Ordered feature-schema loader for the Akaylee Featurizer. Reads the
features mapping from features.yaml preserving the on-disk section and column
order, deduplicating column names with first-declaration-wins semantics, and
exposing per-section views for the three aggregators.
*/

package features

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatisticSection is the section name routed to the statistics aggregator
const StatisticSection = "statistic"

// EncSectionSuffix marks the sections routed to the encryption aggregator
const EncSectionSuffix = "_enc"

// Column is a single declared feature column
type Column struct {
	Name    string // unique column name
	Type    string // bool, int, float or string
	Section string // declaring section, first occurrence wins
}

// FeatureSchema is the full ordered feature declaration. Loaded once,
// read-only afterwards.
type FeatureSchema struct {
	Columns []Column

	types map[string]string
	// per-section column lists keep every declared name, including names
	// already claimed by an earlier section, because the encryption
	// aggregator defaults a whole section regardless of ownership
	sectionColumns map[string][]string
	sectionOrder   []string
}

// LoadSchema reads and parses the feature schema from a YAML config file
func LoadSchema(path string) (*FeatureSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema config %s: %w", path, err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema config %s: %w", path, err)
	}
	return schema, nil
}

// ParseSchema parses the features mapping out of raw YAML. The yaml.v3 node
// API is used directly because mapping order must survive the load.
func ParseSchema(data []byte) (*FeatureSchema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return emptySchema(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return emptySchema(), nil
	}

	featuresNode := mappingValue(root, "features")
	if featuresNode == nil || featuresNode.Kind != yaml.MappingNode {
		return emptySchema(), nil
	}

	schema := emptySchema()
	seen := make(map[string]bool)

	for i := 0; i+1 < len(featuresNode.Content); i += 2 {
		sectionName := featuresNode.Content[i].Value
		sectionNode := featuresNode.Content[i+1]
		if sectionNode.Kind != yaml.SequenceNode {
			continue
		}
		schema.sectionOrder = append(schema.sectionOrder, sectionName)

		var sectionCols []string
		for _, item := range sectionNode.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			name := scalarValue(item, "name")
			typ := scalarValue(item, "type")
			if name == "" {
				continue
			}
			sectionCols = append(sectionCols, name)
			if seen[name] {
				continue
			}
			seen[name] = true
			schema.Columns = append(schema.Columns, Column{
				Name:    name,
				Type:    typ,
				Section: sectionName,
			})
			if typ != "" {
				schema.types[name] = typ
			}
		}
		schema.sectionColumns[sectionName] = sectionCols
	}
	return schema, nil
}

func emptySchema() *FeatureSchema {
	return &FeatureSchema{
		types:          make(map[string]string),
		sectionColumns: make(map[string][]string),
	}
}

// mappingValue returns the value node for key within a mapping node
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// scalarValue returns the scalar string for key within a mapping node
func scalarValue(node *yaml.Node, key string) string {
	v := mappingValue(node, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// Names returns every declared column name in schema order
func (s *FeatureSchema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Type returns the declared type for a column, or "" when untyped
func (s *FeatureSchema) Type(name string) string {
	return s.types[name]
}

// Has reports whether the schema declares a column
func (s *FeatureSchema) Has(name string) bool {
	_, ok := s.types[name]
	if ok {
		return true
	}
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// SectionColumns returns the column names a section declares, in order
func (s *FeatureSchema) SectionColumns(section string) []string {
	return s.sectionColumns[section]
}

// EncSections returns the sections routed to the encryption aggregator
func (s *FeatureSchema) EncSections() []string {
	var out []string
	for _, name := range s.sectionOrder {
		if strings.HasSuffix(name, EncSectionSuffix) {
			out = append(out, name)
		}
	}
	return out
}

// EncColumns returns the deduplicated names of every encryption column in
// declaration order
func (s *FeatureSchema) EncColumns() []string {
	var out []string
	seen := make(map[string]bool)
	for _, section := range s.EncSections() {
		for _, name := range s.sectionColumns[section] {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// StatisticColumns returns the names declared by the statistic section
func (s *FeatureSchema) StatisticColumns() []string {
	return s.sectionColumns[StatisticSection]
}

// NumericColumns returns the names of every int or float column, in schema
// order. Used by downstream vectorization to pick scalable columns.
func (s *FeatureSchema) NumericColumns() []string {
	var out []string
	for _, c := range s.Columns {
		t := strings.ToLower(c.Type)
		if t == "int" || t == "float" {
			out = append(out, c.Name)
		}
	}
	return out
}
