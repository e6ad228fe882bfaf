/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: registry.go
Description: Static parser registries for the Akaylee Featurizer. Maps format-family
names to structural parser implementations and "<family>_enc" names to encryption-
marker parsers. Built once at initialization and read-only afterwards.
*/

package registry

import (
	"sort"

	"github.com/kleascm/akaylee-featurizer/pkg/encryption"
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
	"github.com/kleascm/akaylee-featurizer/pkg/parsers"
)

// Registry holds the structural and encryption parser tables
type Registry struct {
	structural map[string]interfaces.StructuralParser
	encryption map[string]interfaces.EncryptionParser
}

// New builds the full static registry with every known parser
func New() *Registry {
	r := &Registry{
		structural: make(map[string]interfaces.StructuralParser),
		encryption: make(map[string]interfaces.EncryptionParser),
	}

	for _, p := range []interfaces.StructuralParser{
		parsers.NewGZIPParser(),
		parsers.NewJPEGParser(),
		parsers.NewPNGParser(),
		parsers.NewMP4Parser(),
		parsers.NewOLE2Parser(),
		parsers.NewZIPParser(),
		parsers.NewOOXMLParser(),
		parsers.NewRARParser(),
		parsers.NewPDFParser(),
	} {
		r.structural[p.Family()] = p
	}

	for _, p := range []interfaces.EncryptionParser{
		encryption.NewOLE2EncParser(),
		encryption.NewPDFEncParser(),
		encryption.NewZIPEncParser(),
	} {
		r.encryption[p.Family()] = p
	}
	return r
}

// Structural returns the structural parser for a format family, if any
func (r *Registry) Structural(family string) (interfaces.StructuralParser, bool) {
	p, ok := r.structural[family]
	return p, ok
}

// Encryption returns the encryption parser for a "<family>_enc" name, if any
func (r *Registry) Encryption(family string) (interfaces.EncryptionParser, bool) {
	p, ok := r.encryption[family]
	return p, ok
}

// Families returns the sorted structural family names
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.structural))
	for name := range r.structural {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EncFamilies returns the sorted encryption family names
func (r *Registry) EncFamilies() []string {
	out := make([]string, 0, len(r.encryption))
	for name := range r.encryption {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
