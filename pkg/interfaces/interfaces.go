/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces and value types for the Akaylee Featurizer. Defines the
feature value variant, the ordered feature record, the sniffer result, and the parser
interfaces used across all packages to break import cycles.
*/

package interfaces

// ValueKind identifies the concrete type carried by a FeatureValue
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// FeatureValue is a tagged union over the types a feature column may carry.
// The zero value is the null value.
type FeatureValue struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Null returns the null feature value
func Null() FeatureValue { return FeatureValue{} }

// BoolValue wraps a bool as a feature value
func BoolValue(v bool) FeatureValue { return FeatureValue{Kind: KindBool, Bool: v} }

// IntValue wraps an integer as a feature value
func IntValue(v int64) FeatureValue { return FeatureValue{Kind: KindInt, Int: v} }

// FloatValue wraps a float as a feature value
func FloatValue(v float64) FeatureValue { return FeatureValue{Kind: KindFloat, Float: v} }

// StringValue wraps a string as a feature value
func StringValue(v string) FeatureValue { return FeatureValue{Kind: KindString, Str: v} }

// IsNull reports whether the value is the null sentinel
func (v FeatureValue) IsNull() bool { return v.Kind == KindNull }

// Record is an ordered mapping of feature name to value. Insertion order is
// preserved so that output columns keep their schema declaration order.
type Record struct {
	names  []string
	values map[string]FeatureValue
}

// NewRecord creates an empty feature record
func NewRecord() *Record {
	return &Record{values: make(map[string]FeatureValue)}
}

// Set stores a value under name, appending the name on first insertion
func (r *Record) Set(name string, v FeatureValue) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// SetDefault stores a value only if the name is not yet present
func (r *Record) SetDefault(name string, v FeatureValue) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
		r.values[name] = v
	}
}

// Get returns the value for name and whether it is present
func (r *Record) Get(name string) (FeatureValue, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present in the record
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns the feature names in insertion order
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of features in the record
func (r *Record) Len() int { return len(r.names) }

// Merge overlays every entry of other onto the record, preserving order
func (r *Record) Merge(other *Record) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		r.Set(name, other.values[name])
	}
}

// Clone returns an independent copy of the record
func (r *Record) Clone() *Record {
	out := NewRecord()
	out.Merge(r)
	return out
}

// SniffResult holds the container classification for a single file.
// Created once per file and never mutated afterwards.
type SniffResult struct {
	FormatFamily        string  // Family with a registered structural parser, or "other"
	MagicOK             bool    // Whether any known signature matched
	MagicFamily         string  // Broad signature family, parser or not
	SizeBytes           uint64  // File size in bytes
	LogSize             float64 // log10(size+1), 0.0 for empty files
	FallbackMaxAttempts int     // Carried from config, not a schema column
}

// StructuralParser walks the internal structure of one container format.
// Parse must never panic or surface an error: any failure collapses to the
// format's default record with parser_ok=false.
type StructuralParser interface {
	// Family returns the format family name this parser handles
	Family() string

	// Parse extracts the structural feature record for the file at path
	Parse(path string) *Record

	// Default returns a fresh all-default record for this format
	Default() *Record
}

// EncryptionParser detects legitimate-encryption markers inside a container
// whose structural parser already reported parser_ok. Same no-panic, no-error
// contract as StructuralParser.
type EncryptionParser interface {
	// Family returns the "<family>_enc" name this parser handles
	Family() string

	// Parse extracts the encryption-marker record for the file at path
	Parse(path string) *Record

	// Default returns a fresh all-default record for this family
	Default() *Record
}

// SnifferConfig holds the runtime configuration consumed by the sniffer
type SnifferConfig struct {
	HeadBytes           int             // Head window size, default 16 KiB
	TailBytes           int             // Tail window size, default 16 KiB
	EnabledFamilies     map[string]bool // Families allowed to be reported
	FallbackMaxAttempts int             // Propagated into SniffResult
}

// DefaultSnifferConfig returns the sniffer defaults used when no config is loaded
func DefaultSnifferConfig() SnifferConfig {
	return SnifferConfig{
		HeadBytes: 16 * 1024,
		TailBytes: 16 * 1024,
		EnabledFamilies: map[string]bool{
			"pdf": true, "png": true, "jpeg": true, "gzip": true,
			"ole2": true, "rar": true, "mp4": true, "zip": true, "ooxml": true,
		},
	}
}
